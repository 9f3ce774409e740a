// ABOUTME: Filesystem implementation of the artifact Store
// ABOUTME: Writes go to a temp file then rename so readers never see partial documents

package artifact

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FSStore implements Store on the local filesystem. Documents live at
// <root>/<runID>/<name>. Atomicity comes from writing to a temp file in the
// destination directory and renaming it into place.
type FSStore struct {
	root string
}

// NewFSStore creates a filesystem store rooted at the given directory,
// creating it if needed.
func NewFSStore(root string) (*FSStore, error) {
	if root == "" {
		return nil, fmt.Errorf("artifact root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact root: %w", err)
	}
	return &FSStore{root: root}, nil
}

// cleanName rejects names that would escape the run directory.
func cleanName(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("empty artifact name")
	}
	clean := filepath.ToSlash(filepath.Clean(name))
	if strings.HasPrefix(clean, "..") || strings.HasPrefix(clean, "/") {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	return clean, nil
}

func (s *FSStore) pathFor(runID, name string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("empty run id")
	}
	clean, err := cleanName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, runID, filepath.FromSlash(clean)), nil
}

// Put writes the document atomically: temp file in the target directory,
// fsync, then rename over the destination.
func (s *FSStore) Put(ctx context.Context, runID, name string, data []byte) error {
	path, err := s.pathFor(runID, name)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating artifact directory: %v", ErrUnavailable, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %v", ErrUnavailable, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: writing artifact: %v", ErrUnavailable, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: syncing artifact: %v", ErrUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing temp file: %v", ErrUnavailable, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: replacing artifact: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *FSStore) Get(ctx context.Context, runID, name string) ([]byte, error) {
	path, err := s.pathFor(runID, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: reading artifact: %v", ErrUnavailable, err)
	}
	return data, nil
}

func (s *FSStore) List(ctx context.Context, runID, prefix string) ([]string, error) {
	if runID == "" {
		return nil, fmt.Errorf("empty run id")
	}
	runDir := filepath.Join(s.root, runID)
	if _, err := os.Stat(runDir); os.IsNotExist(err) {
		return []string{}, nil
	}

	var names []string
	err := filepath.WalkDir(runDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(runDir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: listing artifacts: %v", ErrUnavailable, err)
	}
	sort.Strings(names)
	if names == nil {
		names = []string{}
	}
	return names, nil
}
