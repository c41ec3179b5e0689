package tutor

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/rcliao/agent-tutor/internal/model"
	"github.com/rcliao/agent-tutor/internal/store"
)

// DefaultFolders is the folder registry of a course that has none stored.
var DefaultFolders = []string{
	"Week 1", "Week 2", "Week 3", "Week 4", "Week 5",
	"Week 6", "Week 7", "Week 8", "Week 9", "Week 10",
	"Group Project",
}

// CourseColors is the palette new courses pick from.
var CourseColors = []string{
	"bg-blue-600",
	"bg-violet-600",
	"bg-emerald-600",
	"bg-amber-600",
	"bg-rose-600",
	"bg-cyan-600",
}

const defaultCourseIcon = "book"

func randomColor() string {
	return CourseColors[rand.IntN(len(CourseColors))]
}

func seedCourses() []model.Course {
	return []model.Course{
		{ID: "1", Title: "Biology 101", Description: "Introduction to Cell Biology and Genetics", Color: "bg-emerald-600", Icon: "book"},
		{ID: "2", Title: "European History", Description: "History of Europe from 1900 to Present", Color: "bg-blue-600", Icon: "history"},
	}
}

// loadCourses returns the course list. An absent list yields the demo
// courses; an explicitly empty list stays empty.
func loadCourses(r reader) ([]model.Course, error) {
	var courses []model.Course
	ok, err := getJSON(r, store.KeyCourses, &courses)
	if err != nil {
		return nil, err
	}
	if !ok {
		return seedCourses(), nil
	}
	if courses == nil {
		courses = []model.Course{}
	}
	return courses, nil
}

func findCourse(r reader, id string) (model.Course, error) {
	courses, err := loadCourses(r)
	if err != nil {
		return model.Course{}, err
	}
	for _, c := range courses {
		if c.ID == id {
			return c, nil
		}
	}
	return model.Course{}, fmt.Errorf("course %s: %w", id, ErrNotFound)
}

// CourseParams holds the editable course fields.
type CourseParams struct {
	Title       string
	Description string
}

// Courses lists every course.
func (s *Service) Courses(ctx context.Context) ([]model.Course, error) {
	return loadCourses(storeReader{ctx: ctx, st: s.store})
}

// Course returns one course.
func (s *Service) Course(ctx context.Context, id string) (*model.Course, error) {
	c, err := findCourse(storeReader{ctx: ctx, st: s.store}, id)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCourse appends a new course with a palette color.
func (s *Service) CreateCourse(ctx context.Context, p CourseParams) (*model.Course, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, fmt.Errorf("course title: %w", ErrEmptyName)
	}
	c := model.Course{
		ID:          s.newID(),
		Title:       title,
		Description: strings.TrimSpace(p.Description),
		Color:       s.pickColor(),
		Icon:        defaultCourseIcon,
	}
	err := s.store.Update(ctx, []string{store.KeyCourses}, func(tx store.Tx) error {
		courses, err := loadCourses(tx)
		if err != nil {
			return err
		}
		return putJSON(tx, store.KeyCourses, append(courses, c))
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("course created", "course_id", c.ID, "title", c.Title)
	return &c, nil
}

// UpdateCourse edits a course's title and description.
func (s *Service) UpdateCourse(ctx context.Context, id string, p CourseParams) (*model.Course, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, fmt.Errorf("course title: %w", ErrEmptyName)
	}
	var updated model.Course
	err := s.store.Update(ctx, []string{store.KeyCourses}, func(tx store.Tx) error {
		courses, err := loadCourses(tx)
		if err != nil {
			return err
		}
		i := slices.IndexFunc(courses, func(c model.Course) bool { return c.ID == id })
		if i < 0 {
			return fmt.Errorf("course %s: %w", id, ErrNotFound)
		}
		courses[i].Title = title
		courses[i].Description = strings.TrimSpace(p.Description)
		updated = courses[i]
		return putJSON(tx, store.KeyCourses, courses)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteCourse removes a course and every key it owns.
func (s *Service) DeleteCourse(ctx context.Context, id string) error {
	prefix := store.CoursePrefix(id)
	owned, err := s.store.Keys(ctx, prefix)
	if err != nil {
		return err
	}
	keys := []string{store.KeyCourses}
	for _, kind := range courseKinds {
		keys = append(keys, store.CourseKey(id, kind))
	}
	for _, k := range owned {
		if !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}

	err = s.store.Update(ctx, keys, func(tx store.Tx) error {
		courses, err := loadCourses(tx)
		if err != nil {
			return err
		}
		i := slices.IndexFunc(courses, func(c model.Course) bool { return c.ID == id })
		if i < 0 {
			return fmt.Errorf("course %s: %w", id, ErrNotFound)
		}
		if err := putJSON(tx, store.KeyCourses, slices.Delete(courses, i, i+1)); err != nil {
			return err
		}
		for _, k := range keys[1:] {
			tx.Delete(k)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("course deleted", "course_id", id, "keys_removed", len(owned))
	return nil
}
