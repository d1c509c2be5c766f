// Package staging holds the set of pending additions and removals between two
// commits, persisted as two plain text files inside the control directory.
package staging

import (
	"sort"
	"strings"

	"gitlite/internal/fsys"
	"gitlite/internal/gliterr"
)

// Area is the staging area: filename→blob-id additions plus a removal set.
// A filename is never present in both at once.
type Area struct {
	fs          *fsys.FS
	addedPath   string
	removedPath string

	added   map[string]string
	removed map[string]bool
}

// Load opens the staging area persisted under the control directory.
func Load(fs *fsys.FS, controlDir string) (*Area, error) {
	a := &Area{
		fs:          fs,
		addedPath:   fs.Join(controlDir, "staging"),
		removedPath: fs.Join(controlDir, "removed"),
	}
	if err := a.Reload(); err != nil {
		return nil, err
	}
	return a, nil
}

// Reload discards in-memory state and re-reads both files. Blank lines and
// entries with empty fields are dropped; values are trimmed of trailing
// CR/LF.
func (a *Area) Reload() error {
	a.added = map[string]string{}
	a.removed = map[string]bool{}

	if a.fs.IsFile(a.addedPath) {
		raw, err := a.fs.ReadString(a.addedPath)
		if err != nil {
			return gliterr.IO("reading staging", err)
		}
		for _, line := range strings.Split(raw, "\n") {
			name, id, ok := strings.Cut(strings.TrimRight(line, "\r\n"), ":")
			if !ok {
				continue
			}
			name = strings.TrimSpace(name)
			id = strings.TrimSpace(id)
			if name == "" || id == "" {
				continue
			}
			a.added[name] = id
		}
	}

	if a.fs.IsFile(a.removedPath) {
		raw, err := a.fs.ReadString(a.removedPath)
		if err != nil {
			return gliterr.IO("reading removed set", err)
		}
		for _, line := range strings.Split(raw, "\n") {
			name := strings.TrimSpace(strings.TrimRight(line, "\r\n"))
			if name == "" {
				continue
			}
			a.removed[name] = true
		}
	}
	return nil
}

// Save persists both records.
func (a *Area) Save() error {
	var sb strings.Builder
	for _, name := range a.AddedFiles() {
		sb.WriteString(name)
		sb.WriteString(":")
		sb.WriteString(a.added[name])
		sb.WriteString("\n")
	}
	if err := a.fs.Write(a.addedPath, []byte(sb.String())); err != nil {
		return gliterr.IO("writing staging", err)
	}

	sb.Reset()
	for _, name := range a.RemovedFiles() {
		sb.WriteString(name)
		sb.WriteString("\n")
	}
	if err := a.fs.Write(a.removedPath, []byte(sb.String())); err != nil {
		return gliterr.IO("writing removed set", err)
	}
	return nil
}

// Clear empties both records and persists the empty state.
func (a *Area) Clear() error {
	a.added = map[string]string{}
	a.removed = map[string]bool{}
	return a.Save()
}

// Stage records an addition. Staging a file clears any pending removal of it.
func (a *Area) Stage(name, blobID string) {
	if name == "" || blobID == "" {
		return
	}
	delete(a.removed, name)
	a.added[name] = blobID
}

// Unstage drops a pending addition.
func (a *Area) Unstage(name string) {
	delete(a.added, name)
}

// MarkRemoved records a removal. Marking clears any pending addition.
func (a *Area) MarkRemoved(name string) {
	if name == "" {
		return
	}
	delete(a.added, name)
	a.removed[name] = true
}

// UnmarkRemoved drops a pending removal.
func (a *Area) UnmarkRemoved(name string) {
	delete(a.removed, name)
}

// IsStaged reports whether the file has a pending addition.
func (a *Area) IsStaged(name string) bool {
	_, ok := a.added[name]
	return ok
}

// StagedID returns the blob id staged for the file.
func (a *Area) StagedID(name string) (string, bool) {
	id, ok := a.added[name]
	return id, ok
}

// IsRemoved reports whether the file has a pending removal.
func (a *Area) IsRemoved(name string) bool {
	return a.removed[name]
}

// IsEmpty reports whether there is nothing pending.
func (a *Area) IsEmpty() bool {
	return len(a.added) == 0 && len(a.removed) == 0
}

// AddedFiles returns the names with pending additions, sorted.
func (a *Area) AddedFiles() []string {
	names := make([]string, 0, len(a.added))
	for name := range a.added {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RemovedFiles returns the names with pending removals, sorted.
func (a *Area) RemovedFiles() []string {
	names := make([]string, 0, len(a.removed))
	for name := range a.removed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
