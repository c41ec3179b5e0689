package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rcliao/agent-tutor/internal/model"
	"github.com/rcliao/agent-tutor/internal/tutor"
)

type researchRequest struct {
	Query  string `json:"query"`
	Folder string `json:"folder"`
}

func (h *Handler) listMaterials(c *gin.Context) {
	var (
		mats []model.Material
		err  error
	)
	if folder, ok := c.GetQuery("folder"); ok {
		mats, err = h.svc.MaterialsByFolder(c.Request.Context(), c.Param("id"), folder)
	} else {
		mats, err = h.svc.Materials(c.Request.Context(), c.Param("id"))
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mats)
}

// uploadMaterial accepts a multipart form with "type", "title", optional
// "folder", and either a "file" part or a "text" field.
func (h *Handler) uploadMaterial(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	if err := c.Request.ParseMultipartForm(h.maxUpload); err != nil {
		badRequest(c, fmt.Errorf("parse upload: %w", err))
		return
	}

	p := tutor.AnalyzeParams{
		CourseID: c.Param("id"),
		Type:     model.MaterialType(c.PostForm("type")),
		Title:    c.PostForm("title"),
		Text:     c.PostForm("text"),
		Folder:   c.PostForm("folder"),
	}
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			respondError(c, fmt.Errorf("open upload: %w", err))
			return
		}
		defer f.Close()
		p.Data, err = io.ReadAll(f)
		if err != nil {
			respondError(c, fmt.Errorf("read upload: %w", err))
			return
		}
		p.MimeType = fh.Header.Get("Content-Type")
		if p.Title == "" {
			p.Title = fh.Filename
		}
	} else if !errors.Is(err, http.ErrMissingFile) {
		badRequest(c, err)
		return
	}

	mat, err := h.svc.Analyze(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mat)
}

func (h *Handler) research(c *gin.Context) {
	var req researchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	mat, err := h.svc.Research(c.Request.Context(), tutor.ResearchParams{
		CourseID: c.Param("id"),
		Query:    req.Query,
		Folder:   req.Folder,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mat)
}

func (h *Handler) removeMaterial(c *gin.Context) {
	removed, err := h.svc.RemoveMaterial(c.Request.Context(), c.Param("id"), c.Param("mid"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
