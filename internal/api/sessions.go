package api

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rcliao/agent-tutor/internal/tutor"
)

type renameRequest struct {
	Title string `json:"title"`
}

type messageRequest struct {
	Text string `json:"text"`
}

// messageResponse carries the collaborator failure alongside the apology
// that was stored in its place.
type messageResponse struct {
	*tutor.Reply
	Warning string `json:"warning,omitempty"`
}

func (h *Handler) listSessions(c *gin.Context) {
	sessions, active, err := h.svc.SessionList(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": active, "sessions": sessions})
}

func (h *Handler) createSession(c *gin.Context) {
	sess, err := h.svc.CreateSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (h *Handler) renameSession(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.svc.RenameSession(c.Request.Context(), c.Param("id"), c.Param("sid"), req.Title); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteSession(c *gin.Context) {
	if err := h.svc.DeleteSession(c.Request.Context(), c.Param("id"), c.Param("sid")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) activateSession(c *gin.Context) {
	if err := h.svc.ActivateSession(c.Request.Context(), c.Param("id"), c.Param("sid")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) sendMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	reply, err := h.svc.SendMessage(c.Request.Context(), tutor.SendParams{
		CourseID:  c.Param("id"),
		SessionID: c.Param("sid"),
		Text:      req.Text,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	resp := messageResponse{Reply: reply}
	if reply.Err != nil {
		resp.Warning = reply.Err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) transcript(c *gin.Context) {
	ctx := c.Request.Context()
	course, err := h.svc.Course(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	text, err := h.svc.Transcript(ctx, course.ID, c.Param("sid"))
	if err != nil {
		respondError(c, err)
		return
	}
	disposition := mime.FormatMediaType("attachment", map[string]string{
		"filename": tutor.TranscriptFilename(course.Title),
	})
	c.Header("Content-Disposition", disposition)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}
