package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DirStore writes snapshots under <root>/<session>/<name> on local disk.
type DirStore struct {
	root string
}

func NewDirStore(root string) *DirStore {
	return &DirStore{root: root}
}

func (d *DirStore) path(sessionID, name string) (string, error) {
	sessionID, name, err := normalizeKey(sessionID, name)
	if err != nil {
		return "", err
	}
	p := filepath.Join(d.root, sessionID, filepath.FromSlash(name))
	if !strings.HasPrefix(p, filepath.Join(d.root, sessionID)+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid snapshot name %q", name)
	}
	return p, nil
}

func (d *DirStore) Put(_ context.Context, sessionID, name string, content []byte) error {
	p, err := d.path(sessionID, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, content, 0o644)
}

func (d *DirStore) Get(_ context.Context, sessionID, name string) ([]byte, error) {
	p, err := d.path(sessionID, name)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return b, err
}

func (d *DirStore) List(_ context.Context, sessionID string) ([]string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("session_id is required")
	}
	base := filepath.Join(d.root, sessionID)
	var names []string
	err := filepath.WalkDir(base, func(p string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if e.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(base, p)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}
