package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h HandlerSet) GetLayout(c *gin.Context) {
	raw, err := h.layouts.Get(c.Request.Context())
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

// PutLayout stores the designer document verbatim. Validation stops at
// "JSON object"; the document schema belongs to the front-end.
func (h HandlerSet) PutLayout(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body"})
		return
	}

	if err := h.layouts.Put(c.Request.Context(), raw); err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
