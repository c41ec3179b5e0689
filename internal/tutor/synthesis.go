package tutor

import (
	"context"
	"errors"
	"time"

	"github.com/rcliao/agent-tutor/internal/store"
)

// Synthesis returns the stored course synthesis, or "" when none has been
// generated.
func (s *Service) Synthesis(ctx context.Context, courseID string) (string, error) {
	var text string
	err := s.read(ctx, courseID, func(cs *courseState) error {
		data, err := cs.r.Get(cs.key(store.KindSynthesis))
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		text = string(data)
		return nil
	})
	return text, err
}

// GenerateSynthesis recomputes the course synthesis from every material and
// overwrites the stored one. With no materials it fails with ErrNoMaterials
// before contacting the collaborator. On failure the previous synthesis is
// kept. Concurrent calls for one course share a single collaborator call.
// The shared call runs detached from any one caller; a caller whose ctx
// ends stops waiting without affecting the others.
func (s *Service) GenerateSynthesis(ctx context.Context, courseID string) (string, error) {
	flight := context.WithoutCancel(ctx)
	ch := s.synthesis.DoChan(courseID, func() (interface{}, error) {
		return s.generateSynthesis(flight, courseID)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			s.log.Debug("synthesis shared", "course_id", courseID)
		}
		return res.Val.(string), nil
	}
}

func (s *Service) generateSynthesis(ctx context.Context, courseID string) (string, error) {
	course, err := s.Course(ctx, courseID)
	if err != nil {
		return "", err
	}
	mats, err := s.Materials(ctx, courseID)
	if err != nil {
		return "", err
	}
	if len(mats) == 0 {
		return "", ErrNoMaterials
	}

	start := time.Now()
	res, err := s.collab.Synthesize(ctx, mats, course.Title)
	if err != nil {
		s.log.Warn("synthesis failed", "course_id", courseID, "duration", time.Since(start), "error", err)
		return "", collaboratorErr("synthesize", err)
	}
	s.log.Info("synthesis generated", "course_id", courseID, "materials", len(mats), "duration", time.Since(start))

	err = s.update(ctx, courseID, []string{store.KindSynthesis}, func(cs *courseState) error {
		cs.tx.Set(cs.key(store.KindSynthesis), []byte(res.Text))
		return nil
	})
	if err != nil {
		return "", err
	}
	return res.Text, nil
}
