package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rcliao/agent-tutor/internal/tutor"
)

type courseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (h *Handler) listCourses(c *gin.Context) {
	courses, err := h.svc.Courses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, courses)
}

func (h *Handler) createCourse(c *gin.Context) {
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	course, err := h.svc.CreateCourse(c.Request.Context(), tutor.CourseParams(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, course)
}

func (h *Handler) getCourse(c *gin.Context) {
	course, err := h.svc.Course(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *Handler) updateCourse(c *gin.Context) {
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	course, err := h.svc.UpdateCourse(c.Request.Context(), c.Param("id"), tutor.CourseParams(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *Handler) deleteCourse(c *gin.Context) {
	if err := h.svc.DeleteCourse(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) workspace(c *gin.Context) {
	ws, err := h.svc.Workspace(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ws)
}

func (h *Handler) context(c *gin.Context) {
	text, err := h.svc.Context(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.String(http.StatusOK, text)
}
