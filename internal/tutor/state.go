package tutor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/rcliao/agent-tutor/internal/model"
	"github.com/rcliao/agent-tutor/internal/store"
)

// Key sets declared by the different kinds of course updates.
var (
	folderKinds   = []string{store.KindFolders, store.KindMaterials, store.KindView}
	sessionKinds  = []string{store.KindSessions, store.KindLegacyChat, store.KindView, store.KindFolders}
	materialKinds = []string{store.KindFolders, store.KindMaterials, store.KindView, store.KindSessions, store.KindLegacyChat}
	courseKinds   = []string{store.KindSessions, store.KindMaterials, store.KindFolders, store.KindSynthesis, store.KindView, store.KindLegacyChat}
)

type reader interface {
	Get(key string) ([]byte, error)
}

type storeReader struct {
	ctx context.Context
	st  store.Store
}

func (r storeReader) Get(key string) ([]byte, error) { return r.st.Get(r.ctx, key) }

// courseState is a typed view over one course's collections. tx is nil for
// read-only access.
type courseState struct {
	r      reader
	tx     store.Tx
	s      *Service
	course model.Course
}

func (cs *courseState) key(kind string) string {
	return store.CourseKey(cs.course.ID, kind)
}

// read runs fn against the current committed state of courseID.
func (s *Service) read(ctx context.Context, courseID string, fn func(cs *courseState) error) error {
	r := storeReader{ctx: ctx, st: s.store}
	c, err := findCourse(r, courseID)
	if err != nil {
		return err
	}
	return fn(&courseState{r: r, s: s, course: c})
}

// update runs fn inside one atomic store update over the named per-course
// collections. The course list is always part of the update so writes to a
// course that is concurrently deleted fail with ErrNotFound.
func (s *Service) update(ctx context.Context, courseID string, kinds []string, fn func(cs *courseState) error) error {
	keys := make([]string, 0, len(kinds)+1)
	keys = append(keys, store.KeyCourses)
	for _, k := range kinds {
		keys = append(keys, store.CourseKey(courseID, k))
	}
	return s.store.Update(ctx, keys, func(tx store.Tx) error {
		c, err := findCourse(tx, courseID)
		if err != nil {
			return err
		}
		return fn(&courseState{r: tx, tx: tx, s: s, course: c})
	})
}

func getJSON(r reader, key string, v any) (bool, error) {
	data, err := r.Get(key)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func putJSON(tx store.Tx, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	tx.Set(key, data)
	return nil
}

// folders returns the folder registry, defaulting to DefaultFolders.
func (cs *courseState) folders() ([]string, error) {
	var folders []string
	ok, err := getJSON(cs.r, cs.key(store.KindFolders), &folders)
	if err != nil {
		return nil, err
	}
	if !ok || len(folders) == 0 {
		return append([]string(nil), DefaultFolders...), nil
	}
	return folders, nil
}

func (cs *courseState) setFolders(folders []string) error {
	return putJSON(cs.tx, cs.key(store.KindFolders), folders)
}

// materials returns the material store, newest first. Legacy records
// without a folder are filed under the first default folder.
func (cs *courseState) materials() ([]model.Material, error) {
	var mats []model.Material
	if _, err := getJSON(cs.r, cs.key(store.KindMaterials), &mats); err != nil {
		return nil, err
	}
	for i := range mats {
		if mats[i].Folder == "" {
			mats[i].Folder = DefaultFolders[0]
		}
	}
	if mats == nil {
		mats = []model.Material{}
	}
	return mats, nil
}

func (cs *courseState) setMaterials(mats []model.Material) error {
	return putJSON(cs.tx, cs.key(store.KindMaterials), mats)
}

// view returns the selection state, resolving a missing or stale target
// folder to the first folder.
func (cs *courseState) view(folders []string) (model.View, error) {
	var v model.View
	ok, err := getJSON(cs.r, cs.key(store.KindView), &v)
	if err != nil {
		return v, err
	}
	if !ok && len(folders) > 0 {
		v.Expanded = []string{folders[0]}
	}
	if !slices.Contains(folders, v.TargetFolder) && len(folders) > 0 {
		v.TargetFolder = folders[0]
	}
	return v, nil
}

// currentView loads the folder registry and resolves the view against it.
func (cs *courseState) currentView() (model.View, error) {
	folders, err := cs.folders()
	if err != nil {
		return model.View{}, err
	}
	return cs.view(folders)
}

func (cs *courseState) setView(v model.View) error {
	return putJSON(cs.tx, cs.key(store.KindView), v)
}

// sessions returns the chat sessions sorted by recency. When none are
// stored yet the collection is initialized, migrating a legacy single-chat
// entry when present. Initialization needs a writable state.
func (cs *courseState) sessions() ([]model.ChatSession, error) {
	var sessions []model.ChatSession
	ok, err := getJSON(cs.r, cs.key(store.KindSessions), &sessions)
	if err != nil {
		return nil, err
	}
	if ok && len(sessions) > 0 {
		sortSessions(sessions)
		return sessions, nil
	}
	if cs.tx == nil {
		return nil, errors.New("sessions not initialized")
	}

	now := cs.s.stamp(time.Time{})
	var legacy []model.Message
	migrated, err := getJSON(cs.r, cs.key(store.KindLegacyChat), &legacy)
	if err != nil {
		return nil, err
	}
	var first model.ChatSession
	if migrated {
		first = model.ChatSession{ID: cs.s.newID(), Title: "Previous Conversation", Messages: legacy, LastModified: now}
		cs.tx.Delete(cs.key(store.KindLegacyChat))
	} else {
		first = model.ChatSession{
			ID:    cs.s.newID(),
			Title: defaultSessionTitle,
			Messages: []model.Message{{
				ID:        seedMessageID,
				Role:      model.RoleModel,
				Content:   fmt.Sprintf(welcomeTemplate, cs.course.Title),
				Timestamp: now,
			}},
			LastModified: now,
		}
	}
	if first.Messages == nil {
		first.Messages = []model.Message{}
	}
	sessions = []model.ChatSession{first}
	if err := cs.setSessions(sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (cs *courseState) setSessions(sessions []model.ChatSession) error {
	return putJSON(cs.tx, cs.key(store.KindSessions), sessions)
}

// activeIndex resolves the active session, falling back to the first one.
func activeIndex(sessions []model.ChatSession, v model.View) int {
	for i := range sessions {
		if sessions[i].ID == v.ActiveSession {
			return i
		}
	}
	return 0
}

func sessionIndex(sessions []model.ChatSession, id string) int {
	for i := range sessions {
		if sessions[i].ID == id {
			return i
		}
	}
	return -1
}

func sortSessions(sessions []model.ChatSession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].LastModified.After(sessions[j].LastModified)
	})
}
