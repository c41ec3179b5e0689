package tutor

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/rcliao/agent-tutor/internal/model"
)

// Folders returns the course's folder registry in order.
func (s *Service) Folders(ctx context.Context, courseID string) ([]string, error) {
	var folders []string
	err := s.read(ctx, courseID, func(cs *courseState) error {
		var err error
		folders, err = cs.folders()
		return err
	})
	return folders, err
}

// View returns the course's selection state.
func (s *Service) View(ctx context.Context, courseID string) (model.View, error) {
	var v model.View
	err := s.read(ctx, courseID, func(cs *courseState) error {
		folders, err := cs.folders()
		if err != nil {
			return err
		}
		v, err = cs.view(folders)
		return err
	})
	return v, err
}

// CreateFolder appends a folder. The upload target is left unchanged.
func (s *Service) CreateFolder(ctx context.Context, courseID, name string) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("folder name: %w", ErrEmptyName)
	}
	var folders []string
	err := s.update(ctx, courseID, folderKinds, func(cs *courseState) error {
		var err error
		if folders, err = cs.folders(); err != nil {
			return err
		}
		if slices.Contains(folders, name) {
			return fmt.Errorf("folder %q: %w", name, ErrDuplicateName)
		}
		folders = append(folders, name)
		return cs.setFolders(folders)
	})
	if err != nil {
		return nil, err
	}
	return folders, nil
}

// RenameFolder renames a folder in place and rewrites every material, the
// expanded list and the upload target that referenced the old name, all in
// one atomic update.
func (s *Service) RenameFolder(ctx context.Context, courseID, oldName, newName string) ([]string, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, fmt.Errorf("folder name: %w", ErrEmptyName)
	}
	var folders []string
	err := s.update(ctx, courseID, folderKinds, func(cs *courseState) error {
		var err error
		if folders, err = cs.folders(); err != nil {
			return err
		}
		i := slices.Index(folders, oldName)
		if i < 0 {
			return fmt.Errorf("folder %q: %w", oldName, ErrNotFound)
		}
		if newName == oldName {
			return nil
		}
		if slices.Contains(folders, newName) {
			return fmt.Errorf("folder %q: %w", newName, ErrDuplicateName)
		}

		v, err := cs.view(folders)
		if err != nil {
			return err
		}
		mats, err := cs.materials()
		if err != nil {
			return err
		}

		folders[i] = newName
		for j := range mats {
			if mats[j].Folder == oldName {
				mats[j].Folder = newName
			}
		}
		for j := range v.Expanded {
			if v.Expanded[j] == oldName {
				v.Expanded[j] = newName
			}
		}
		if v.TargetFolder == oldName {
			v.TargetFolder = newName
		}

		if err := cs.setFolders(folders); err != nil {
			return err
		}
		if err := cs.setMaterials(mats); err != nil {
			return err
		}
		return cs.setView(v)
	})
	if err != nil {
		return nil, err
	}
	return folders, nil
}

// DeleteFolder removes a folder together with every material filed in it.
// The last remaining folder cannot be deleted.
func (s *Service) DeleteFolder(ctx context.Context, courseID, name string) ([]string, error) {
	var (
		folders []string
		removed int
	)
	err := s.update(ctx, courseID, folderKinds, func(cs *courseState) error {
		var err error
		if folders, err = cs.folders(); err != nil {
			return err
		}
		i := slices.Index(folders, name)
		if i < 0 {
			return fmt.Errorf("folder %q: %w", name, ErrNotFound)
		}
		if len(folders) <= 1 {
			return ErrLastFolder
		}

		v, err := cs.view(folders)
		if err != nil {
			return err
		}
		mats, err := cs.materials()
		if err != nil {
			return err
		}

		folders = slices.Delete(folders, i, i+1)
		kept := mats[:0]
		for _, m := range mats {
			if m.Folder != name {
				kept = append(kept, m)
			}
		}
		removed = len(mats) - len(kept)
		v.Expanded = slices.DeleteFunc(v.Expanded, func(f string) bool { return f == name })
		if v.TargetFolder == name {
			v.TargetFolder = folders[0]
		}

		if err := cs.setFolders(folders); err != nil {
			return err
		}
		if err := cs.setMaterials(kept); err != nil {
			return err
		}
		return cs.setView(v)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("folder deleted", "course_id", courseID, "folder", name, "materials_removed", removed)
	return folders, nil
}

// ToggleFolder expands or collapses a folder.
func (s *Service) ToggleFolder(ctx context.Context, courseID, name string) (model.View, error) {
	var v model.View
	err := s.update(ctx, courseID, folderKinds, func(cs *courseState) error {
		folders, err := cs.folders()
		if err != nil {
			return err
		}
		if !slices.Contains(folders, name) {
			return fmt.Errorf("folder %q: %w", name, ErrNotFound)
		}
		if v, err = cs.view(folders); err != nil {
			return err
		}
		if v.IsExpanded(name) {
			v.Expanded = slices.DeleteFunc(v.Expanded, func(f string) bool { return f == name })
		} else {
			v.Expanded = append(v.Expanded, name)
		}
		return cs.setView(v)
	})
	return v, err
}

// SetTargetFolder selects the folder new uploads are filed under.
func (s *Service) SetTargetFolder(ctx context.Context, courseID, name string) (model.View, error) {
	var v model.View
	err := s.update(ctx, courseID, folderKinds, func(cs *courseState) error {
		folders, err := cs.folders()
		if err != nil {
			return err
		}
		if !slices.Contains(folders, name) {
			return fmt.Errorf("folder %q: %w", name, ErrInvalidFolder)
		}
		if v, err = cs.view(folders); err != nil {
			return err
		}
		v.TargetFolder = name
		return cs.setView(v)
	})
	return v, err
}
