package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testStoreContract exercises behavior every backend must share.
func testStoreContract(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		_, err := s.Get(ctx, "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("set and get", func(t *testing.T) {
		if err := s.Set(ctx, "hello", []byte("world")); err != nil {
			t.Fatalf("set: %v", err)
		}
		got, err := s.Get(ctx, "hello")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if string(got) != "world" {
			t.Errorf("expected 'world', got %q", got)
		}
		s.Set(ctx, "hello", []byte("again"))
		got, _ = s.Get(ctx, "hello")
		if string(got) != "again" {
			t.Errorf("expected overwrite, got %q", got)
		}
	})

	t.Run("keys by prefix", func(t *testing.T) {
		s.Set(ctx, CourseKey("c1", KindFolders), []byte(`[]`))
		s.Set(ctx, CourseKey("c1", KindMaterials), []byte(`[]`))
		s.Set(ctx, CourseKey("c2", KindFolders), []byte(`[]`))

		keys, err := s.Keys(ctx, CoursePrefix("c1"))
		if err != nil {
			t.Fatalf("keys: %v", err)
		}
		want := []string{"course/c1/folders", "course/c1/materials"}
		if len(keys) != len(want) {
			t.Fatalf("expected %v, got %v", want, keys)
		}
		for i := range want {
			if keys[i] != want[i] {
				t.Errorf("key %d: expected %s, got %s", i, want[i], keys[i])
			}
		}
	})

	t.Run("delete", func(t *testing.T) {
		s.Set(ctx, "a", []byte("1"))
		s.Set(ctx, "b", []byte("2"))
		if err := s.Delete(ctx, "a", "b", "never-existed"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := s.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected a deleted, got %v", err)
		}
	})

	t.Run("update commits", func(t *testing.T) {
		s.Set(ctx, "x", []byte("1"))
		err := s.Update(ctx, []string{"x", "y"}, func(tx Tx) error {
			v, err := tx.Get("x")
			if err != nil {
				return err
			}
			tx.Set("y", append(v, '!'))
			tx.Delete("x")
			return nil
		})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if _, err := s.Get(ctx, "x"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected x deleted, got %v", err)
		}
		y, _ := s.Get(ctx, "y")
		if string(y) != "1!" {
			t.Errorf("expected '1!', got %q", y)
		}
	})

	t.Run("update reads own writes", func(t *testing.T) {
		err := s.Update(ctx, []string{"own"}, func(tx Tx) error {
			tx.Set("own", []byte("v"))
			got, err := tx.Get("own")
			if err != nil {
				return err
			}
			if string(got) != "v" {
				t.Errorf("expected buffered write, got %q", got)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
	})

	t.Run("update rolls back on error", func(t *testing.T) {
		s.Set(ctx, "keep", []byte("old"))
		boom := errors.New("boom")
		err := s.Update(ctx, []string{"keep"}, func(tx Tx) error {
			tx.Set("keep", []byte("new"))
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		got, _ := s.Get(ctx, "keep")
		if string(got) != "old" {
			t.Errorf("expected 'old' after rollback, got %q", got)
		}
	})

	t.Run("update rejects undeclared keys", func(t *testing.T) {
		err := s.Update(ctx, []string{"declared"}, func(tx Tx) error {
			tx.Set("other", []byte("v"))
			return nil
		})
		if !errors.Is(err, ErrUndeclaredKey) {
			t.Fatalf("expected ErrUndeclaredKey, got %v", err)
		}
		if _, err := s.Get(ctx, "other"); !errors.Is(err, ErrNotFound) {
			t.Errorf("undeclared write leaked: %v", err)
		}
	})

	t.Run("concurrent updates lose nothing", func(t *testing.T) {
		s.Set(ctx, "counter", []byte("0"))
		const workers = 20
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.Update(ctx, []string{"counter"}, func(tx Tx) error {
					v, err := tx.Get("counter")
					if err != nil {
						return err
					}
					n, _ := strconv.Atoi(string(v))
					tx.Set("counter", []byte(strconv.Itoa(n+1)))
					return nil
				})
				if err != nil {
					t.Errorf("update: %v", err)
				}
			}()
		}
		wg.Wait()
		v, _ := s.Get(ctx, "counter")
		if string(v) != strconv.Itoa(workers) {
			t.Errorf("expected %d, got %s", workers, v)
		}
	})
}

func TestSQLiteStoreContract(t *testing.T) {
	testStoreContract(t, newTestStore(t))
}

func TestMemoryStoreContract(t *testing.T) {
	testStoreContract(t, NewMemoryStore())
}

func TestSQLiteStorePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "persist.db")

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s.Set(ctx, KeyCourses, []byte(`[{"id":"1"}]`))
	s.Close()

	s, err = NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.Get(ctx, KeyCourses)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if string(got) != `[{"id":"1"}]` {
		t.Errorf("unexpected value %q", got)
	}
}

func TestDBPathCreation(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sub", "dir", "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("expected db file to be created")
	}
}

func TestCourseIDFromKey(t *testing.T) {
	tests := []struct {
		key  string
		id   string
		isOK bool
	}{
		{"course/abc/sessions", "abc", true},
		{"course/abc/", "abc", true},
		{"courses", "", false},
		{"course//x", "", false},
		{"auth", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			id, ok := CourseIDFromKey(tt.key)
			if id != tt.id || ok != tt.isOK {
				t.Errorf("CourseIDFromKey(%q) = %q, %v; want %q, %v", tt.key, id, ok, tt.id, tt.isOK)
			}
		})
	}
}

func TestStatsAndExport(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Set(ctx, KeyCourses, []byte(`[]`))
	s.Set(ctx, CourseKey("c1", KindFolders), []byte(`["Week 1"]`))
	s.Set(ctx, CourseKey("c1", KindSynthesis), []byte("plain text"))

	st, err := CollectStats(ctx, DriverSQLite, s)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.TotalKeys != 3 || st.CourseCount != 1 {
		t.Errorf("unexpected stats: %+v", st)
	}
	if st.Courses[0].CourseID != "c1" || st.Courses[0].Keys != 2 {
		t.Errorf("unexpected course stats: %+v", st.Courses[0])
	}

	entries, err := ExportAll(ctx, s, "")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	dst := NewMemoryStore()
	n, err := Import(ctx, dst, entries)
	if err != nil || n != 3 {
		t.Fatalf("import: n=%d err=%v", n, err)
	}
	got, _ := dst.Get(ctx, CourseKey("c1", KindSynthesis))
	if string(got) != "plain text" {
		t.Errorf("expected plain text restored, got %q", got)
	}
	for _, e := range entries {
		if e.Key == CourseKey("c1", KindSynthesis) && (e.Encoding != EncodingText || string(e.Value) != `"plain text"`) {
			t.Errorf("expected text entry, got %+v", e)
		}
	}
}
