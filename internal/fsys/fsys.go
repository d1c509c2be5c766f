// Package fsys provides the filesystem primitives the rest of gitlite is
// written against. Production code runs on an osfs rooted at "/"; tests run
// the same code on an in-memory filesystem.
package fsys

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// FS wraps a billy.Filesystem with the small contract gitlite needs:
// whole-file reads and writes, plain-file listings, and path joining.
// All paths are slash-separated and interpreted by the underlying filesystem.
type FS struct {
	bfs billy.Filesystem
}

// New wraps an existing billy filesystem.
func New(bfs billy.Filesystem) *FS {
	return &FS{bfs: bfs}
}

// NewOS returns an FS over the host filesystem, rooted at root.
func NewOS(root string) *FS {
	return &FS{bfs: osfs.New(root)}
}

// NewMem returns an in-memory FS.
func NewMem() *FS {
	return &FS{bfs: memfs.New()}
}

// Exists reports whether the path names any entry.
func (f *FS) Exists(p string) bool {
	_, err := f.bfs.Stat(p)
	return err == nil
}

// IsFile reports whether the path names a regular file.
func (f *FS) IsFile(p string) bool {
	fi, err := f.bfs.Stat(p)
	return err == nil && !fi.IsDir()
}

// IsDir reports whether the path names a directory.
func (f *FS) IsDir(p string) bool {
	fi, err := f.bfs.Stat(p)
	return err == nil && fi.IsDir()
}

// ReadBytes reads the whole file.
func (f *FS) ReadBytes(p string) ([]byte, error) {
	data, err := util.ReadFile(f.bfs, p)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", p, err)
	}
	return data, nil
}

// ReadString reads the whole file as a string.
func (f *FS) ReadString(p string) (string, error) {
	data, err := f.ReadBytes(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Write writes data to the file, creating parent directories and truncating
// any previous content.
func (f *FS) Write(p string, data []byte) error {
	if dir := path.Dir(p); dir != "." && dir != "/" {
		if err := f.bfs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %q: %w", dir, err)
		}
	}
	if err := util.WriteFile(f.bfs, p, data, 0o644); err != nil {
		return fmt.Errorf("writing %q: %w", p, err)
	}
	return nil
}

// ListPlain returns the names of the plain files directly inside dir, sorted.
// A missing directory yields an empty listing.
func (f *FS) ListPlain(dir string) ([]string, error) {
	infos, err := f.bfs.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing %q: %w", dir, err)
	}
	var names []string
	for _, fi := range infos {
		if fi.IsDir() {
			continue
		}
		names = append(names, fi.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ListTree returns the slash-joined relative paths of every file under dir,
// recursing into subdirectories. A missing directory yields an empty listing.
func (f *FS) ListTree(dir string) ([]string, error) {
	var out []string
	var walk func(rel string) error
	walk = func(rel string) error {
		full := dir
		if rel != "" {
			full = f.Join(dir, rel)
		}
		infos, err := f.bfs.ReadDir(full)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("listing %q: %w", full, err)
		}
		for _, fi := range infos {
			child := fi.Name()
			if rel != "" {
				child = rel + "/" + fi.Name()
			}
			if fi.IsDir() {
				if err := walk(child); err != nil {
					return err
				}
				continue
			}
			out = append(out, child)
		}
		return nil
	}
	if err := walk(""); err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// Delete removes the file if it exists. Deleting a missing file is not an
// error.
func (f *FS) Delete(p string) error {
	if err := f.bfs.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting %q: %w", p, err)
	}
	return nil
}

// Join joins path elements with the filesystem separator.
func (f *FS) Join(elem ...string) string {
	return f.bfs.Join(elem...)
}

// Resolve interprets p against base when p is relative. Absolute paths are
// returned cleaned.
func (f *FS) Resolve(base, p string) string {
	if strings.HasPrefix(p, "/") {
		return path.Clean(p)
	}
	return path.Clean(f.Join(base, p))
}

// SHA1 returns the 40-character lowercase hex digest of data.
func SHA1(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}
