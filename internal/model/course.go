// Package model defines the core tutoring data types.
package model

import "time"

// Course is a tutoring subject. Its ID partitions every other entity.
type Course struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
}

// ContextHint is the course description handed to the collaborator when
// analyzing uploads.
func (c Course) ContextHint() string {
	return c.Title + ": " + c.Description
}

// MaterialType identifies how a material was produced.
type MaterialType string

const (
	MaterialVideo    MaterialType = "video"
	MaterialAudio    MaterialType = "audio"
	MaterialDocument MaterialType = "document"
	MaterialWeb      MaterialType = "web"
)

// ValidMaterialTypes are the allowed material types.
var ValidMaterialTypes = map[MaterialType]bool{
	MaterialVideo:    true,
	MaterialAudio:    true,
	MaterialDocument: true,
	MaterialWeb:      true,
}

// Material is an AI-summarized artifact filed under a folder.
type Material struct {
	ID        string       `json:"id"`
	Type      MaterialType `json:"type"`
	Title     string       `json:"title"`
	Summary   string       `json:"summary"`
	Timestamp time.Time    `json:"timestamp"`
	Folder    string       `json:"folder"`
}

// Source is a web link surfaced by search grounding.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// View is the per-course selection state that folder and session changes
// cascade into.
type View struct {
	ActiveSession string   `json:"active_session,omitempty"`
	TargetFolder  string   `json:"target_folder,omitempty"`
	Expanded      []string `json:"expanded,omitempty"`
}

// IsExpanded reports whether folder is open in the accordion.
func (v View) IsExpanded(folder string) bool {
	for _, f := range v.Expanded {
		if f == folder {
			return true
		}
	}
	return false
}
