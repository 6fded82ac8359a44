// Package media stores uploaded images on the local file system and keeps
// the images table in line with what is on disk.
package media

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// File is one image on disk.
type File struct {
	Name string
	Size int64
}

// Library is a flat directory of image files.
type Library struct {
	root   string // absolute
	prefix string // public URL prefix, e.g. /uploads
}

// NewLibrary opens root, creating it if needed. Files are served under
// publicPrefix.
func NewLibrary(root, publicPrefix string) (*Library, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("media: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("media: create root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("media: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("media: root is not a directory: %s", abs)
	}
	return &Library{root: abs, prefix: "/" + strings.Trim(publicPrefix, "/")}, nil
}

// Root returns the absolute directory path.
func (l *Library) Root() string { return l.root }

// URL returns the public URL of name.
func (l *Library) URL(name string) string {
	return l.prefix + "/" + name
}

// Path validates that name is a plain file name and returns its absolute
// path inside the library.
func (l *Library) Path(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") || strings.HasPrefix(cleaned, ".") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	abs := filepath.Join(l.root, cleaned)
	if !strings.HasPrefix(abs, l.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes media directory")
	}
	return abs, nil
}

// List returns every image file in the library, sorted by name.
func (l *Library) List() ([]File, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, fmt.Errorf("media: list: %w", err)
	}
	var out []File
	for _, e := range entries {
		if e.IsDir() || !IsImageName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, File{Name: e.Name(), Size: info.Size()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Stat returns the file called name.
func (l *Library) Stat(name string) (File, error) {
	abs, err := l.Path(name)
	if err != nil {
		return File{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return File{}, err
	}
	return File{Name: name, Size: info.Size()}, nil
}

// Write atomically writes data to name: tmp file, fsync, rename.
func (l *Library) Write(name string, data []byte) error {
	abs, err := l.Path(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(l.root, ".taproom-tmp-*")
	if err != nil {
		return fmt.Errorf("media: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("media: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("media: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("media: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("media: rename: %w", err)
	}
	success = true
	return nil
}

// Delete removes name from the library.
func (l *Library) Delete(name string) error {
	abs, err := l.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("media: delete %s: %w", name, err)
	}
	return nil
}
