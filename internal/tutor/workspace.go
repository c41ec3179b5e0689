package tutor

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rcliao/agent-tutor/internal/model"
)

// Workspace is everything the course page shows.
type Workspace struct {
	Course        model.Course        `json:"course"`
	Folders       []string            `json:"folders"`
	Materials     []model.Material    `json:"materials"`
	Sessions      []model.ChatSession `json:"sessions"`
	ActiveSession string              `json:"active_session"`
	Synthesis     string              `json:"synthesis"`
	View          model.View          `json:"view"`
}

// Workspace loads every collection of a course concurrently.
func (s *Service) Workspace(ctx context.Context, courseID string) (*Workspace, error) {
	course, err := s.Course(ctx, courseID)
	if err != nil {
		return nil, err
	}
	ws := &Workspace{Course: *course}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ws.Folders, err = s.Folders(gctx, courseID)
		return err
	})
	g.Go(func() error {
		var err error
		ws.Materials, err = s.Materials(gctx, courseID)
		return err
	})
	g.Go(func() error {
		var err error
		ws.Sessions, ws.ActiveSession, err = s.SessionList(gctx, courseID)
		return err
	})
	g.Go(func() error {
		var err error
		ws.Synthesis, err = s.Synthesis(gctx, courseID)
		return err
	})
	g.Go(func() error {
		var err error
		ws.View, err = s.View(gctx, courseID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ws, nil
}
