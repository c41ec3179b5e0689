package tutor

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rcliao/agent-tutor/internal/gemini"
	"github.com/rcliao/agent-tutor/internal/model"
)

// Task prompts sent with each upload type.
const (
	videoPrompt    = "Provide a comprehensive summary of this video for a student."
	audioPrompt    = "Transcribe and summarize this audio."
	documentPrompt = "Summarize this document and list key concepts."

	defaultAudioMime = "audio/mp3"

	materialAddedTemplate = "I have finished analyzing **%s** (%s) and saved it to **%s**.\n\n**Summary:**\n%s\n\nYou can now ask me detailed questions about this content."
)

// AddMaterialParams describes an analyzed material to file.
type AddMaterialParams struct {
	CourseID string
	Type     model.MaterialType
	Title    string
	Summary  string
	Folder   string
}

// AddMaterial prepends a material to the course, announces it in the active
// session and expands its folder. The folder must exist.
func (s *Service) AddMaterial(ctx context.Context, p AddMaterialParams) (*model.Material, error) {
	if !model.ValidMaterialTypes[p.Type] {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, p.Type)
	}
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, fmt.Errorf("material title: %w", ErrEmptyName)
	}

	var mat model.Material
	err := s.update(ctx, p.CourseID, materialKinds, func(cs *courseState) error {
		folders, err := cs.folders()
		if err != nil {
			return err
		}
		if !slices.Contains(folders, p.Folder) {
			return fmt.Errorf("folder %q: %w", p.Folder, ErrInvalidFolder)
		}
		mats, err := cs.materials()
		if err != nil {
			return err
		}
		v, err := cs.view(folders)
		if err != nil {
			return err
		}
		sessions, err := cs.sessions()
		if err != nil {
			return err
		}

		mat = model.Material{
			ID:        s.newID(),
			Type:      p.Type,
			Title:     title,
			Summary:   p.Summary,
			Timestamp: s.now().UTC().Truncate(time.Millisecond),
			Folder:    p.Folder,
		}
		mats = append([]model.Material{mat}, mats...)
		if !v.IsExpanded(p.Folder) {
			v.Expanded = append(v.Expanded, p.Folder)
		}

		s.appendTo(&sessions[activeIndex(sessions, v)], model.Message{
			Role:    model.RoleModel,
			Content: fmt.Sprintf(materialAddedTemplate, title, p.Type, p.Folder, p.Summary),
		})

		if err := cs.setMaterials(mats); err != nil {
			return err
		}
		if err := cs.setView(v); err != nil {
			return err
		}
		return cs.setSessions(sessions)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("material added", "course_id", p.CourseID, "material_id", mat.ID, "type", mat.Type, "folder", mat.Folder)
	return &mat, nil
}

// RemoveMaterial deletes a material. Unknown ids are a no-op; the return
// value reports whether anything was removed.
func (s *Service) RemoveMaterial(ctx context.Context, courseID, id string) (bool, error) {
	var removed bool
	err := s.update(ctx, courseID, folderKinds, func(cs *courseState) error {
		mats, err := cs.materials()
		if err != nil {
			return err
		}
		i := slices.IndexFunc(mats, func(m model.Material) bool { return m.ID == id })
		removed = i >= 0
		if !removed {
			return nil
		}
		return cs.setMaterials(slices.Delete(mats, i, i+1))
	})
	return removed, err
}

// Materials returns every material of the course, newest first.
func (s *Service) Materials(ctx context.Context, courseID string) ([]model.Material, error) {
	var mats []model.Material
	err := s.read(ctx, courseID, func(cs *courseState) error {
		var err error
		mats, err = cs.materials()
		return err
	})
	return mats, err
}

// MaterialsByFolder returns the materials filed under folder, newest first.
func (s *Service) MaterialsByFolder(ctx context.Context, courseID, folder string) ([]model.Material, error) {
	mats, err := s.Materials(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return filterFolder(mats, folder), nil
}

func filterFolder(mats []model.Material, folder string) []model.Material {
	out := []model.Material{}
	for _, m := range mats {
		if m.Folder == folder {
			out = append(out, m)
		}
	}
	return out
}

// AnalyzeParams describes an upload to summarize. Data holds the raw bytes
// of a video, audio or document file; Text holds plain document text.
type AnalyzeParams struct {
	CourseID string
	Type     model.MaterialType
	Title    string
	Data     []byte
	MimeType string
	Text     string
	Folder   string
}

// Analyze summarizes an upload with the collaborator and files the result.
// On failure nothing is stored.
func (s *Service) Analyze(ctx context.Context, p AnalyzeParams) (*model.Material, error) {
	var prompt string
	switch p.Type {
	case model.MaterialVideo:
		prompt = videoPrompt
	case model.MaterialAudio:
		prompt = audioPrompt
		if p.MimeType == "" {
			p.MimeType = defaultAudioMime
		}
	case model.MaterialDocument:
		prompt = documentPrompt
	default:
		return nil, fmt.Errorf("%w: %q cannot be uploaded", ErrInvalidType, p.Type)
	}
	if strings.TrimSpace(p.Title) == "" {
		return nil, fmt.Errorf("material title: %w", ErrEmptyName)
	}
	if len(p.Data) == 0 && (p.Type != model.MaterialDocument || strings.TrimSpace(p.Text) == "") {
		return nil, ErrEmptyContent
	}

	course, folder, err := s.uploadTarget(ctx, p.CourseID, p.Folder)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var res gemini.Result
	if len(p.Data) > 0 {
		res, err = s.collab.SummarizeMedia(ctx, p.Type, p.Data, p.MimeType, prompt, course.ContextHint())
	} else {
		res, err = s.collab.SummarizeText(ctx, p.Text, prompt, course.ContextHint())
	}
	if err != nil {
		s.log.Warn("analysis failed", "course_id", p.CourseID, "type", p.Type, "title", p.Title, "duration", time.Since(start), "error", err)
		return nil, collaboratorErr("analyze "+string(p.Type), err)
	}
	s.log.Info("analysis complete", "course_id", p.CourseID, "type", p.Type, "title", p.Title, "duration", time.Since(start))

	return s.AddMaterial(ctx, AddMaterialParams{
		CourseID: p.CourseID,
		Type:     p.Type,
		Title:    p.Title,
		Summary:  res.Text,
		Folder:   folder,
	})
}

// ResearchParams describes a web research request.
type ResearchParams struct {
	CourseID string
	Query    string
	Folder   string
}

// Research runs a web-grounded overview of a query and files it as a web
// material. Discovered sources are appended to the summary.
func (s *Service) Research(ctx context.Context, p ResearchParams) (*model.Material, error) {
	query := strings.TrimSpace(p.Query)
	if query == "" {
		return nil, ErrEmptyContent
	}
	course, folder, err := s.uploadTarget(ctx, p.CourseID, p.Folder)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := s.collab.Research(ctx, query, course.ContextHint())
	if err != nil {
		s.log.Warn("research failed", "course_id", p.CourseID, "query", query, "duration", time.Since(start), "error", err)
		return nil, collaboratorErr("research", err)
	}
	s.log.Info("research complete", "course_id", p.CourseID, "sources", len(res.Sources), "duration", time.Since(start))

	return s.AddMaterial(ctx, AddMaterialParams{
		CourseID: p.CourseID,
		Type:     model.MaterialWeb,
		Title:    query,
		Summary:  res.Text + gemini.FormatSources(res.Sources),
		Folder:   folder,
	})
}

// uploadTarget resolves the folder an upload is filed under: the requested
// folder, else the view's target folder, else the first folder.
func (s *Service) uploadTarget(ctx context.Context, courseID, requested string) (model.Course, string, error) {
	var (
		course model.Course
		folder string
	)
	err := s.read(ctx, courseID, func(cs *courseState) error {
		course = cs.course
		folders, err := cs.folders()
		if err != nil {
			return err
		}
		if requested != "" {
			if !slices.Contains(folders, requested) {
				return fmt.Errorf("folder %q: %w", requested, ErrInvalidFolder)
			}
			folder = requested
			return nil
		}
		v, err := cs.view(folders)
		if err != nil {
			return err
		}
		folder = v.TargetFolder
		return nil
	})
	return course, folder, err
}
