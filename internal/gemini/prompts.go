package gemini

import (
	"fmt"
	"strings"

	"github.com/rcliao/agent-tutor/internal/model"
)

func contextPrompt(typ model.MaterialType, hint string) string {
	if typ == model.MaterialVideo {
		if hint == "" {
			return "CONTEXT: General educational analysis."
		}
		return fmt.Sprintf("CONTEXT: You are a tutor for the course %q. Analyze this video specifically for students of this course.", hint)
	}
	if hint == "" {
		return ""
	}
	return fmt.Sprintf("CONTEXT: You are a tutor for the course %q.", hint)
}

func joinPrompt(ctxPrompt, instruction string) string {
	return ctxPrompt + "\n\n" + instruction
}

func emptyAnalysisText(typ model.MaterialType) string {
	if typ == model.MaterialAudio {
		return "No transcription generated."
	}
	return "No analysis generated."
}

func synthesisPrompt(materials []model.Material, courseTitle string) string {
	blocks := make([]string, len(materials))
	for i, m := range materials {
		blocks[i] = fmt.Sprintf("Title: %s (%s)\nSummary: %s", m.Title, m.Type, m.Summary)
	}
	return fmt.Sprintf(`You are an expert educational consultant.
Create a high-level executive summary and syllabus for the course %q based on the uploaded materials below.
Synthesize the information into a cohesive learning path.

Structure your response as follows:
1. **Course Executive Summary**: A high-level overview of what the course covers based on the materials.
2. **Key Learning Outcomes**: What the student will learn.
3. **Synthesized Syllabus**: Map the materials to a logical flow (Week by Week or thematic).
4. **Gap Analysis**: What topics seem to be missing or could be strengthened based on standard curriculums for this subject.

Materials:
%s`, courseTitle, strings.Join(blocks, "\n\n"))
}
