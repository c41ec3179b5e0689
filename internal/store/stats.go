package store

import (
	"context"
	"errors"
	"sort"
)

// Stats holds store statistics.
type Stats struct {
	Driver      string        `json:"driver"`
	Path        string        `json:"path,omitempty"`
	SizeBytes   int64         `json:"size_bytes,omitempty"`
	TotalKeys   int           `json:"total_keys"`
	ValueBytes  int64         `json:"value_bytes"`
	GlobalKeys  []string      `json:"global_keys"`
	CourseCount int           `json:"course_count"`
	Courses     []CourseStats `json:"courses"`
}

// CourseStats holds per-course key counts.
type CourseStats struct {
	CourseID   string `json:"course_id"`
	Keys       int    `json:"keys"`
	ValueBytes int64  `json:"value_bytes"`
}

// CollectStats walks every key in s.
func CollectStats(ctx context.Context, driver string, s Store) (*Stats, error) {
	st := &Stats{Driver: driver, GlobalKeys: []string{}, Courses: []CourseStats{}}
	if sq, ok := s.(*SQLiteStore); ok {
		st.Path = sq.Path()
		st.SizeBytes = sq.SizeBytes()
	}

	keys, err := s.Keys(ctx, "")
	if err != nil {
		return nil, err
	}

	perCourse := map[string]*CourseStats{}
	for _, k := range keys {
		v, err := s.Get(ctx, k)
		if errors.Is(err, ErrNotFound) {
			continue // removed while walking
		}
		if err != nil {
			return nil, err
		}
		st.TotalKeys++
		st.ValueBytes += int64(len(v))

		id, ok := CourseIDFromKey(k)
		if !ok {
			st.GlobalKeys = append(st.GlobalKeys, k)
			continue
		}
		cs, ok := perCourse[id]
		if !ok {
			cs = &CourseStats{CourseID: id}
			perCourse[id] = cs
		}
		cs.Keys++
		cs.ValueBytes += int64(len(v))
	}

	for _, cs := range perCourse {
		st.Courses = append(st.Courses, *cs)
	}
	sort.Slice(st.Courses, func(i, j int) bool {
		return st.Courses[i].ValueBytes > st.Courses[j].ValueBytes
	})
	st.CourseCount = len(st.Courses)
	return st, nil
}
