package tutor

import (
	"context"
	"errors"
	"strings"

	"github.com/rcliao/agent-tutor/internal/store"
)

const defaultUserName = "Student"

// Login opens the mock auth gate. No credentials are checked. A non-empty
// name replaces the stored display name.
func (s *Service) Login(ctx context.Context, name string) error {
	keys := []string{store.KeyAuth, store.KeyUserName}
	return s.store.Update(ctx, keys, func(tx store.Tx) error {
		tx.Set(store.KeyAuth, []byte("true"))
		if name = strings.TrimSpace(name); name != "" {
			tx.Set(store.KeyUserName, []byte(name))
		}
		return nil
	})
}

// Logout closes the auth gate.
func (s *Service) Logout(ctx context.Context) error {
	return s.store.Delete(ctx, store.KeyAuth)
}

// Authenticated reports whether the gate is open.
func (s *Service) Authenticated(ctx context.Context) (bool, error) {
	v, err := s.store.Get(ctx, store.KeyAuth)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return string(v) == "true", nil
}

// UserName returns the display name, defaulting to "Student".
func (s *Service) UserName(ctx context.Context) (string, error) {
	v, err := s.store.Get(ctx, store.KeyUserName)
	if errors.Is(err, store.ErrNotFound) || (err == nil && len(v) == 0) {
		return defaultUserName, nil
	}
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// RequireAuth returns ErrUnauthenticated unless the gate is open.
func (s *Service) RequireAuth(ctx context.Context) error {
	ok, err := s.Authenticated(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthenticated
	}
	return nil
}
