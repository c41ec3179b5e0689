package tutor

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rcliao/agent-tutor/internal/model"
)

const (
	// seedMessageID marks the synthetic greeting that opens a session. It is
	// never sent to the collaborator as history.
	seedMessageID = "1"

	defaultSessionTitle = "New Conversation"
	welcomeTemplate     = "Welcome to **%s**. I'm your AI agent. Upload videos, audio, or documents to specific weeks, and I'll analyze them to help you learn!"
	greetingTemplate    = "Hello! I'm ready to help you with **%s**. What's on your mind?"
)

// Sessions returns the course's chat sessions, most recently modified first.
func (s *Service) Sessions(ctx context.Context, courseID string) ([]model.ChatSession, error) {
	var sessions []model.ChatSession
	err := s.update(ctx, courseID, sessionKinds, func(cs *courseState) error {
		var err error
		sessions, err = cs.sessions()
		return err
	})
	return sessions, err
}

// SessionList returns the sessions of a course together with the id of the
// active one, both read in a single transaction.
func (s *Service) SessionList(ctx context.Context, courseID string) ([]model.ChatSession, string, error) {
	var (
		sessions []model.ChatSession
		active   string
	)
	err := s.update(ctx, courseID, sessionKinds, func(cs *courseState) error {
		var err error
		if sessions, err = cs.sessions(); err != nil {
			return err
		}
		v, err := cs.currentView()
		if err != nil {
			return err
		}
		active = sessions[activeIndex(sessions, v)].ID
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return sessions, active, nil
}

// ActiveSession returns the active session, falling back to the first one
// when the stored active id no longer resolves.
func (s *Service) ActiveSession(ctx context.Context, courseID string) (*model.ChatSession, error) {
	var active model.ChatSession
	err := s.update(ctx, courseID, sessionKinds, func(cs *courseState) error {
		sessions, err := cs.sessions()
		if err != nil {
			return err
		}
		v, err := cs.currentView()
		if err != nil {
			return err
		}
		active = sessions[activeIndex(sessions, v)]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &active, nil
}

// CreateSession starts a new conversation with a greeting and makes it
// active.
func (s *Service) CreateSession(ctx context.Context, courseID string) (*model.ChatSession, error) {
	var created model.ChatSession
	err := s.update(ctx, courseID, sessionKinds, func(cs *courseState) error {
		sessions, err := cs.sessions()
		if err != nil {
			return err
		}
		v, err := cs.currentView()
		if err != nil {
			return err
		}
		now := s.stamp(time.Time{})
		created = model.ChatSession{
			ID:    s.newID(),
			Title: defaultSessionTitle,
			Messages: []model.Message{{
				ID:        seedMessageID,
				Role:      model.RoleModel,
				Content:   fmt.Sprintf(greetingTemplate, cs.course.Title),
				Timestamp: now,
			}},
			LastModified: now,
		}
		v.ActiveSession = created.ID
		if err := cs.setSessions(append([]model.ChatSession{created}, sessions...)); err != nil {
			return err
		}
		return cs.setView(v)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteSession removes a session. The last session cannot be deleted.
// Deleting the active session activates the first remaining one.
func (s *Service) DeleteSession(ctx context.Context, courseID, sessionID string) error {
	return s.update(ctx, courseID, sessionKinds, func(cs *courseState) error {
		sessions, err := cs.sessions()
		if err != nil {
			return err
		}
		i := sessionIndex(sessions, sessionID)
		if i < 0 {
			return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
		}
		if len(sessions) <= 1 {
			return ErrLastSession
		}
		v, err := cs.currentView()
		if err != nil {
			return err
		}
		wasActive := sessions[activeIndex(sessions, v)].ID == sessionID
		sessions = slices.Delete(sessions, i, i+1)
		if wasActive {
			v.ActiveSession = sessions[0].ID
			if err := cs.setView(v); err != nil {
				return err
			}
		}
		return cs.setSessions(sessions)
	})
}

// ActivateSession makes sessionID the active session.
func (s *Service) ActivateSession(ctx context.Context, courseID, sessionID string) error {
	return s.update(ctx, courseID, sessionKinds, func(cs *courseState) error {
		sessions, err := cs.sessions()
		if err != nil {
			return err
		}
		if sessionIndex(sessions, sessionID) < 0 {
			return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
		}
		v, err := cs.currentView()
		if err != nil {
			return err
		}
		v.ActiveSession = sessionID
		return cs.setView(v)
	})
}

// AppendMessage appends msg to a session and bumps its modification time.
// Missing ids and timestamps are filled in.
func (s *Service) AppendMessage(ctx context.Context, courseID, sessionID string, msg model.Message) (model.Message, error) {
	if msg.Role != model.RoleUser && msg.Role != model.RoleModel {
		return msg, fmt.Errorf("%w: role %q", ErrInvalidType, msg.Role)
	}
	err := s.update(ctx, courseID, sessionKinds, func(cs *courseState) error {
		sessions, err := cs.sessions()
		if err != nil {
			return err
		}
		i := sessionIndex(sessions, sessionID)
		if i < 0 {
			return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
		}
		msg = s.appendTo(&sessions[i], msg)
		return cs.setSessions(sessions)
	})
	return msg, err
}

// RenameSession sets a session title by hand. A manual title is never
// replaced by a generated one.
func (s *Service) RenameSession(ctx context.Context, courseID, sessionID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("session title: %w", ErrEmptyName)
	}
	return s.update(ctx, courseID, sessionKinds, func(cs *courseState) error {
		sessions, err := cs.sessions()
		if err != nil {
			return err
		}
		i := sessionIndex(sessions, sessionID)
		if i < 0 {
			return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
		}
		sessions[i].Title = title
		sessions[i].TitleEdited = true
		return cs.setSessions(sessions)
	})
}

// appendTo appends msg to sess, filling its id and a timestamp strictly
// after the previous message.
func (s *Service) appendTo(sess *model.ChatSession, msg model.Message) model.Message {
	if msg.ID == "" {
		msg.ID = s.newID()
	}
	last := lastTimestamp(*sess)
	if msg.Timestamp.IsZero() || !msg.Timestamp.After(last) {
		msg.Timestamp = s.stamp(last)
	}
	sess.Messages = append(sess.Messages, msg)
	sess.LastModified = msg.Timestamp
	return msg
}

func lastTimestamp(sess model.ChatSession) time.Time {
	if n := len(sess.Messages); n > 0 {
		return sess.Messages[n-1].Timestamp
	}
	return time.Time{}
}

// fallbackTitle is the provisional title taken from a session's first
// message: its first 30 characters, with an ellipsis when truncated.
func fallbackTitle(text string) string {
	r := []rune(text)
	if len(r) <= 30 {
		return text
	}
	return string(r[:30]) + "..."
}
