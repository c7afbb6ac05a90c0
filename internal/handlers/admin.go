package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"navio/api/internal/middleware"
	"navio/api/internal/repository"
	"navio/api/internal/service"
)

func (h HandlerSet) AdminStats(c *gin.Context) {
	stats, err := h.admin.Stats(c.Request.Context())
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h HandlerSet) AdminListUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	filter := repository.UserFilter{
		Query:  c.Query("q"),
		State:  repository.UserStateFilter(c.Query("state")),
		Limit:  limit,
		Cursor: c.Query("cursor"),
	}

	users, next, err := h.admin.ListUsers(c.Request.Context(), filter)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":      redactUsers(users),
		"nextCursor": nullableCursor(next),
	})
}

func (h HandlerSet) AdminGetUser(c *gin.Context) {
	user, err := h.admin.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, redactUser(user))
}

type patchUserRequest struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	Role      *string `json:"role"`
	VerifyNow *bool   `json:"verifyNow"`
	Active    *bool   `json:"active"`
}

func (h HandlerSet) AdminPatchUser(c *gin.Context) {
	var req patchUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body"})
		return
	}

	claims := middleware.CurrentClaims(c)
	input := service.PatchInput{
		Username:  req.Username,
		Email:     req.Email,
		Role:      req.Role,
		VerifyNow: req.VerifyNow != nil && *req.VerifyNow,
		Active:    req.Active,
	}
	user, err := h.admin.PatchUser(c.Request.Context(), claims.UserID, c.Param("id"), input)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, redactUser(user))
}

func (h HandlerSet) AdminDeactivateUser(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	user, err := h.admin.DeactivateUser(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, redactUser(user))
}

func (h HandlerSet) AdminReactivateUser(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	user, err := h.admin.ReactivateUser(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, redactUser(user))
}

func (h HandlerSet) AdminDeleteUser(c *gin.Context) {
	hard := c.Query("hard") == "1" || c.Query("hard") == "true"

	claims := middleware.CurrentClaims(c)
	user, err := h.admin.DeleteUser(c.Request.Context(), claims.UserID, c.Param("id"), hard)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	if hard {
		c.JSON(http.StatusOK, gin.H{"ok": true, "hardDeleted": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "hardDeleted": false, "user": redactUser(user)})
}

func (h HandlerSet) AdminListAudit(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	filter := repository.AuditFilter{
		Action: c.Query("action"),
		Limit:  limit,
		Cursor: c.Query("cursor"),
	}

	entries, next, err := h.admin.ListAudit(c.Request.Context(), filter)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":      entries,
		"nextCursor": nullableCursor(next),
	})
}
