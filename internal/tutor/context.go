package tutor

import (
	"context"
	"fmt"
	"strings"

	"github.com/rcliao/agent-tutor/internal/model"
)

const (
	knowledgeBaseHeader = "=== KNOWLEDGE BASE (Analyzed Course Materials) ==="
	noMaterialsNotice   = "No materials uploaded yet. Encourage the user to upload video, audio, or documents."
)

// BuildContext assembles the grounding instruction for a chat turn: the
// tutor preamble with the citation rule, then every folder that holds
// materials, in registry order, with one line per material.
func BuildContext(course model.Course, folders []string, materials []model.Material) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert AI Tutor for the course: %q.\n", course.Title)
	if course.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", course.Description)
	}
	b.WriteString(`
Your goal is to help the student master this subject.
Use the provided KNOWLEDGE BASE below to answer questions.

If the answer is not found in the knowledge base, you have access to Google Search to find up-to-date information. Use it to supplement your answers when necessary.

CRITICAL CITATION RULE:
When you derive an answer from a specific material in the Knowledge Base, you MUST cite the source title in bold brackets at the end of the sentence or paragraph.
Format: **[Material Title]**
Example: "The mitochondria is the powerhouse of the cell **[Lecture 1 Video]**."

`)
	b.WriteString(knowledgeBaseHeader)
	b.WriteString("\n")

	if len(materials) == 0 {
		b.WriteString(noMaterialsNotice)
		return b.String()
	}
	for _, folder := range folders {
		inFolder := filterFolder(materials, folder)
		if len(inFolder) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n\n--- FOLDER: %s ---", folder)
		for _, m := range inFolder {
			fmt.Fprintf(&b, "\n[%s] %s: %s", strings.ToUpper(string(m.Type)), m.Title, m.Summary)
		}
	}
	return b.String()
}

// Context returns the grounding text the next chat turn of a course would
// use.
func (s *Service) Context(ctx context.Context, courseID string) (string, error) {
	var out string
	err := s.read(ctx, courseID, func(cs *courseState) error {
		folders, err := cs.folders()
		if err != nil {
			return err
		}
		mats, err := cs.materials()
		if err != nil {
			return err
		}
		out = BuildContext(cs.course, folders, mats)
		return nil
	})
	return out, err
}
