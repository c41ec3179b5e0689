package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type folderRequest struct {
	Name string `json:"name"`
}

func (h *Handler) listFolders(c *gin.Context) {
	folders, err := h.svc.Folders(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, folders)
}

func (h *Handler) createFolder(c *gin.Context) {
	var req folderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	folders, err := h.svc.CreateFolder(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, folders)
}

func (h *Handler) renameFolder(c *gin.Context) {
	var req folderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	folders, err := h.svc.RenameFolder(c.Request.Context(), c.Param("id"), c.Param("name"), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, folders)
}

func (h *Handler) deleteFolder(c *gin.Context) {
	folders, err := h.svc.DeleteFolder(c.Request.Context(), c.Param("id"), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, folders)
}

func (h *Handler) toggleFolder(c *gin.Context) {
	view, err := h.svc.ToggleFolder(c.Request.Context(), c.Param("id"), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) setTarget(c *gin.Context) {
	var req folderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	view, err := h.svc.SetTargetFolder(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
