package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"navio/api/internal/middleware"
	"navio/api/internal/models"
	"navio/api/internal/service"
)

func (h HandlerSet) TourBoard(c *gin.Context) {
	board, err := h.tours.Board(c.Request.Context())
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

type setActiveRequest struct {
	Active []models.Tour `json:"active"`
}

// SetActiveTours replaces the active plan wholesale. The archive is not
// touched; dispatch cannot rewrite history from here.
func (h HandlerSet) SetActiveTours(c *gin.Context) {
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body"})
		return
	}

	board, err := h.tours.SetActive(c.Request.Context(), req.Active)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

type markLoadedRequest struct {
	Note     string `json:"note"`
	ImageURL string `json:"imageUrl"`
}

func (h HandlerSet) MarkTourLoaded(c *gin.Context) {
	// Note and photo are optional, an empty body is fine.
	var req markLoadedRequest
	_ = c.ShouldBindJSON(&req)

	claims := middleware.CurrentClaims(c)
	board, err := h.tours.MarkLoaded(c.Request.Context(), c.Param("id"), service.LoadInput{
		Note:     req.Note,
		ImageURL: req.ImageURL,
		Actor:    claims.Username,
	})
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

func (h HandlerSet) MarkTourUnloaded(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	board, err := h.tours.MarkUnloaded(c.Request.Context(), c.Param("id"), claims.Username)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}
