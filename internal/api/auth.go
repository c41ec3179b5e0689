package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Name string `json:"name"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	// An empty body is a valid anonymous login.
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	if err := h.svc.Login(c.Request.Context(), req.Name); err != nil {
		respondError(c, err)
		return
	}
	h.me(c)
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) me(c *gin.Context) {
	ctx := c.Request.Context()
	ok, err := h.svc.Authenticated(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	name, err := h.svc.UserName(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": ok, "name": name})
}
