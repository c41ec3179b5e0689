package store

import "strings"

// Global keys.
const (
	KeyCourses  = "courses"
	KeyAuth     = "auth"
	KeyUserName = "user_name"
)

// Per-course collections. Each is persisted independently.
const (
	KindSessions  = "sessions"
	KindMaterials = "materials"
	KindFolders   = "folders"
	KindSynthesis = "synthesis"
	KindView      = "view"
	// KindLegacyChat holds a single pre-session message list.
	KindLegacyChat = "chat"
)

// CoursePrefix is the prefix shared by every key a course owns.
func CoursePrefix(courseID string) string {
	return "course/" + courseID + "/"
}

// CourseKey returns the key of one per-course collection.
func CourseKey(courseID, kind string) string {
	return CoursePrefix(courseID) + kind
}

// CourseIDFromKey extracts the course id from a per-course key.
func CourseIDFromKey(key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, "course/")
	if !ok {
		return "", false
	}
	id, _, ok := strings.Cut(rest, "/")
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
