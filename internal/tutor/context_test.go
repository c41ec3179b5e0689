package tutor

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rcliao/agent-tutor/internal/model"
)

var testCourse = model.Course{ID: "c1", Title: "Biology 101", Description: "Cells"}

func TestBuildContextNoMaterials(t *testing.T) {
	out := BuildContext(testCourse, []string{"Week 1", "Week 2"}, nil)

	if !strings.Contains(out, `You are an expert AI Tutor for the course: "Biology 101".`) {
		t.Errorf("missing role line:\n%s", out)
	}
	if !strings.Contains(out, "Description: Cells") {
		t.Error("missing description")
	}
	if !strings.Contains(out, "Format: **[Material Title]**") {
		t.Error("missing citation rule")
	}
	_, kb, ok := strings.Cut(out, knowledgeBaseHeader)
	if !ok {
		t.Fatal("missing knowledge base header")
	}
	if strings.TrimSpace(kb) != noMaterialsNotice {
		t.Errorf("knowledge base should hold only the notice, got %q", kb)
	}
	if strings.Contains(out, "--- FOLDER:") {
		t.Error("no folder headers expected")
	}
}

func TestBuildContextFolderOrder(t *testing.T) {
	now := time.Now()
	mats := []model.Material{
		{ID: "3", Type: model.MaterialVideo, Title: "Lecture 2", Summary: "Mitosis", Folder: "Week 2", Timestamp: now},
		{ID: "2", Type: model.MaterialDocument, Title: "Notes", Summary: "Membranes", Folder: "Week 1", Timestamp: now},
		{ID: "1", Type: model.MaterialWeb, Title: "Wiki", Summary: "Overview", Folder: "Week 1", Timestamp: now},
	}
	out := BuildContext(testCourse, []string{"Week 1", "Empty", "Week 2"}, mats)

	w1 := strings.Index(out, "--- FOLDER: Week 1 ---")
	w2 := strings.Index(out, "--- FOLDER: Week 2 ---")
	if w1 < 0 || w2 < 0 || w1 > w2 {
		t.Fatalf("expected Week 1 before Week 2:\n%s", out)
	}
	if strings.Contains(out, "FOLDER: Empty") {
		t.Error("folders without materials must be skipped")
	}
	for _, line := range []string{"[DOCUMENT] Notes: Membranes", "[WEB] Wiki: Overview", "[VIDEO] Lecture 2: Mitosis"} {
		if strings.Count(out, line) != 1 {
			t.Errorf("expected exactly one %q", line)
		}
	}
	if strings.Contains(out, noMaterialsNotice) {
		t.Error("notice must not appear with materials")
	}
	if !strings.HasSuffix(out, "\n[VIDEO] Lecture 2: Mitosis") {
		t.Errorf("unexpected tail %q", out[len(out)-40:])
	}
}

func TestBuildContextWithoutDescription(t *testing.T) {
	out := BuildContext(model.Course{Title: "History"}, []string{"Week 1"}, nil)
	if strings.Contains(out, "Description:") {
		t.Error("empty description must be omitted")
	}
}

func TestServiceContextMatchesBuild(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	addMaterial(t, svc, "Week 2", "Notes", "Cells have membranes.")

	out, err := svc.Context(ctx, bio)
	if err != nil {
		t.Fatalf("context: %v", err)
	}
	if !strings.Contains(out, "--- FOLDER: Week 2 ---\n[DOCUMENT] Notes: Cells have membranes.") {
		t.Errorf("unexpected context:\n%s", out)
	}
}
