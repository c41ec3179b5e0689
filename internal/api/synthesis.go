package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type speechRequest struct {
	Text string `json:"text"`
}

func (h *Handler) getSynthesis(c *gin.Context) {
	text, err := h.svc.Synthesis(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"synthesis": text})
}

func (h *Handler) generateSynthesis(c *gin.Context) {
	text, err := h.svc.GenerateSynthesis(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"synthesis": text})
}

// speech renders text as audio/wav. A newer request stops an older one
// that is still being generated.
func (h *Handler) speech(c *gin.Context) {
	var req speechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	wav, err := h.svc.Speak(c.Request.Context(), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "audio/wav", wav)
}
