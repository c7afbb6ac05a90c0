package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"navio/api/internal/middleware"
	"navio/api/internal/security"
	"navio/api/internal/service"
)

func (h HandlerSet) cookieOptions() security.CookieOptions {
	return security.CookieOptions{
		Name:   h.cfg.Security.CookieName,
		Secure: h.cfg.Security.CookieSecure,
		Domain: h.cfg.Security.CookieDomain,
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h HandlerSet) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_fields"})
		return
	}

	err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true})
}

// VerifyEmail is hit from the link in the verification mail, so the happy
// path redirects back into the web app rather than answering JSON.
func (h HandlerSet) VerifyEmail(c *gin.Context) {
	tokenID := c.Query("tid")
	secret := c.Query("t")
	if tokenID == "" || secret == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_fields"})
		return
	}

	if err := h.authService.VerifyEmail(c.Request.Context(), tokenID, secret); err != nil {
		h.serviceError(c, err)
		return
	}
	c.Redirect(http.StatusFound, h.cfg.Origins.App+"/?verified=1")
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

func (r loginRequest) handle() string {
	if r.Identifier != "" {
		return r.Identifier
	}
	if r.Username != "" {
		return r.Username
	}
	return r.Email
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_fields"})
		return
	}

	user, token, err := h.authService.Login(c.Request.Context(), service.LoginInput{
		Identifier: req.handle(),
		Password:   req.Password,
		IPAddress:  c.ClientIP(),
	})
	if err != nil {
		h.serviceError(c, err)
		return
	}

	security.SetSessionCookie(c.Writer, h.cookieOptions(), token, h.cfg.Security.SessionTTL)
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": redactUser(user)})
}

func (h HandlerSet) Logout(c *gin.Context) {
	security.ClearSessionCookie(c.Writer, h.cookieOptions())
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h HandlerSet) Me(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.authService.Me(c.Request.Context(), claims.UserID)
	if err != nil {
		// A stale cookie for a deleted account reads as logged out.
		security.ClearSessionCookie(c.Writer, h.cookieOptions())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, redactUser(user))
}

type forgotRequest struct {
	Email string `json:"email"`
}

func (h HandlerSet) ForgotPassword(c *gin.Context) {
	var req forgotRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_fields"})
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type resetRequest struct {
	TokenID     string `json:"tid"`
	Secret      string `json:"t"`
	NewPassword string `json:"newPassword"`
}

func (h HandlerSet) ResetPassword(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_fields"})
		return
	}
	if req.TokenID == "" || req.Secret == "" || req.NewPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_fields"})
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req.TokenID, req.Secret, req.NewPassword); err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
