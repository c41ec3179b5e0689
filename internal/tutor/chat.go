package tutor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rcliao/agent-tutor/internal/model"
	"github.com/rcliao/agent-tutor/internal/store"
)

// apologyText replaces the model reply when the collaborator fails.
const apologyText = "I encountered an error. Please check your connection or try again."

// chatKinds covers the session plus everything the grounding context reads.
var chatKinds = []string{store.KindSessions, store.KindLegacyChat, store.KindView, store.KindFolders, store.KindMaterials}

// SendParams describes one user turn. An empty SessionID targets the active
// session.
type SendParams struct {
	CourseID  string
	SessionID string
	Text      string
}

// Reply is the outcome of a chat turn. Err is set when the collaborator
// failed and Model holds the apology message instead of an answer.
type Reply struct {
	SessionID string        `json:"session_id"`
	Title     string        `json:"title"`
	User      model.Message `json:"user"`
	Model     model.Message `json:"model"`
	Err       error         `json:"-"`
}

// SendMessage runs one turn of the per-session state machine: append the
// user message, ask the collaborator with freshly assembled grounding
// context, append the reply. A session accepts one turn at a time; a second
// turn while the first is waiting fails with ErrBusy.
func (s *Service) SendMessage(ctx context.Context, p SendParams) (*Reply, error) {
	if strings.TrimSpace(p.Text) == "" {
		return nil, ErrEmptyMessage
	}
	sessionID := p.SessionID
	if sessionID == "" {
		active, err := s.ActiveSession(ctx, p.CourseID)
		if err != nil {
			return nil, err
		}
		sessionID = active.ID
	}

	if !s.begin(p.CourseID, sessionID) {
		return nil, ErrBusy
	}
	defer s.end(p.CourseID, sessionID)

	reply := &Reply{SessionID: sessionID}
	var (
		history   []model.Message
		grounding string
		firstTurn bool
	)
	err := s.update(ctx, p.CourseID, chatKinds, func(cs *courseState) error {
		sessions, err := cs.sessions()
		if err != nil {
			return err
		}
		i := sessionIndex(sessions, sessionID)
		if i < 0 {
			return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
		}
		sess := &sessions[i]

		history = history[:0]
		for _, m := range sess.Messages {
			if m.ID != seedMessageID {
				history = append(history, m)
			}
		}
		firstTurn = sess.UserMessageCount() == 0
		if firstTurn && !sess.TitleEdited {
			sess.Title = fallbackTitle(p.Text)
		}
		reply.User = s.appendTo(sess, model.Message{Role: model.RoleUser, Content: p.Text})
		reply.Title = sess.Title

		folders, err := cs.folders()
		if err != nil {
			return err
		}
		mats, err := cs.materials()
		if err != nil {
			return err
		}
		grounding = BuildContext(cs.course, folders, mats)
		return cs.setSessions(sessions)
	})
	if err != nil {
		return nil, err
	}

	if firstTurn {
		s.generateTitle(ctx, p.CourseID, sessionID, p.Text)
	}

	start := time.Now()
	content := apologyText
	res, chatErr := s.collab.Chat(ctx, history, p.Text, grounding, s.webSearch)
	if chatErr != nil {
		reply.Err = collaboratorErr("chat", chatErr)
		s.log.Warn("chat failed", "course_id", p.CourseID, "session_id", sessionID, "duration", time.Since(start), "error", chatErr)
	} else {
		content = res.Text
		s.log.Info("chat reply", "course_id", p.CourseID, "session_id", sessionID, "sources", len(res.Sources), "duration", time.Since(start))
	}

	// The reply is recorded even if the caller went away; the turn has no
	// cancellation once started.
	persistCtx := context.WithoutCancel(ctx)
	err = s.update(persistCtx, p.CourseID, sessionKinds, func(cs *courseState) error {
		sessions, err := cs.sessions()
		if err != nil {
			return err
		}
		i := sessionIndex(sessions, sessionID)
		if i < 0 {
			return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
		}
		reply.Model = s.appendTo(&sessions[i], model.Message{Role: model.RoleModel, Content: content})
		reply.Title = sessions[i].Title
		return cs.setSessions(sessions)
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// generateTitle asks the collaborator for a short session title in the
// background. The result is dropped if the session was renamed by hand in
// the meantime, or no longer exists.
func (s *Service) generateTitle(ctx context.Context, courseID, sessionID, text string) {
	ctx = context.WithoutCancel(ctx)
	s.titles.Add(1)
	go func() {
		defer s.titles.Done()
		title, err := s.collab.TitleFor(ctx, text)
		if err != nil || strings.TrimSpace(title) == "" {
			s.log.Debug("title generation skipped", "course_id", courseID, "session_id", sessionID, "error", err)
			return
		}
		err = s.update(ctx, courseID, sessionKinds, func(cs *courseState) error {
			sessions, err := cs.sessions()
			if err != nil {
				return err
			}
			i := sessionIndex(sessions, sessionID)
			if i < 0 || sessions[i].TitleEdited {
				return nil
			}
			sessions[i].Title = title
			return cs.setSessions(sessions)
		})
		if err != nil {
			s.log.Warn("store generated title", "course_id", courseID, "session_id", sessionID, "error", err)
		}
	}()
}

// WaitTitles blocks until background title generation has finished.
func (s *Service) WaitTitles() {
	s.titles.Wait()
}

// Awaiting reports whether a session has a turn in flight.
func (s *Service) Awaiting(courseID, sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.awaiting[courseID+"/"+sessionID]
}

func (s *Service) begin(courseID, sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := courseID + "/" + sessionID
	if s.awaiting[k] {
		return false
	}
	s.awaiting[k] = true
	return true
}

func (s *Service) end(courseID, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.awaiting, courseID+"/"+sessionID)
}
