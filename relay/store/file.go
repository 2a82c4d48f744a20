package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Dir stores each document as <name>.json in a directory, the layout earlier
// deployments of the bot wrote to their working directory.
type Dir struct {
	path string
}

// NewDir returns a backend rooted at path, creating it if needed.
func NewDir(path string) (*Dir, error) {
	if path == "" {
		path = "."
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("store dir: %w", err)
	}
	return &Dir{path: path}, nil
}

func (d *Dir) file(name string) string {
	return filepath.Join(d.path, name+".json")
}

// Load implements Backend.
func (d *Dir) Load(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(d.file(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// Save implements Backend. The document is replaced atomically.
func (d *Dir) Save(_ context.Context, name string, data []byte) error {
	tmp, err := os.CreateTemp(d.path, name+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), d.file(name))
}

// Ping implements Pinger by checking the directory is still there.
func (d *Dir) Ping(context.Context) error {
	st, err := os.Stat(d.path)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return fmt.Errorf("store dir: %s is not a directory", d.path)
	}
	return nil
}
