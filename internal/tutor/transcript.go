package tutor

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rcliao/agent-tutor/internal/model"
)

const transcriptSeparator = "\n----------------------------------------\n\n"

var whitespaceRun = regexp.MustCompile(`\s+`)

// Transcript renders a session as plain text. An empty sessionID selects
// the active session.
func (s *Service) Transcript(ctx context.Context, courseID, sessionID string) (string, error) {
	var sess *model.ChatSession
	if sessionID == "" {
		active, err := s.ActiveSession(ctx, courseID)
		if err != nil {
			return "", err
		}
		sess = active
	} else {
		sessions, err := s.Sessions(ctx, courseID)
		if err != nil {
			return "", err
		}
		i := sessionIndex(sessions, sessionID)
		if i < 0 {
			return "", fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
		}
		sess = &sessions[i]
	}
	return FormatTranscript(sess.Messages), nil
}

// FormatTranscript renders messages as "[time] You|AI Agent:" blocks
// separated by a dashed rule.
func FormatTranscript(messages []model.Message) string {
	entries := make([]string, len(messages))
	for i, m := range messages {
		role := "AI Agent"
		if m.Role == model.RoleUser {
			role = "You"
		}
		entries[i] = fmt.Sprintf("[%s] %s:\n%s\n", m.Timestamp.Local().Format("1/2/2006, 3:04:05 PM"), role, m.Content)
	}
	return strings.Join(entries, transcriptSeparator)
}

// TranscriptFilename is the download name of a course transcript.
func TranscriptFilename(courseTitle string) string {
	return whitespaceRun.ReplaceAllString(courseTitle, "_") + "_chat.txt"
}
