// Package refs stores branch pointers and the current-branch indicator.
// Each branch is one file under the branches directory whose content is a
// commit id; a slash in a branch name (tracking branches like origin/master)
// maps to a nested directory.
package refs

import (
	"strings"

	"gitlite/internal/fsys"
	"gitlite/internal/gliterr"
)

type Store struct {
	fs       *fsys.FS
	dir      string
	headPath string
}

// NewStore opens the reference store under the control directory.
func NewStore(fs *fsys.FS, controlDir string) *Store {
	return &Store{
		fs:       fs,
		dir:      fs.Join(controlDir, "branches"),
		headPath: fs.Join(controlDir, "HEAD"),
	}
}

func (s *Store) branchPath(name string) string {
	return s.fs.Join(append([]string{s.dir}, strings.Split(name, "/")...)...)
}

// Branch returns the commit id a branch points at, and whether the branch
// exists.
func (s *Store) Branch(name string) (string, bool, error) {
	p := s.branchPath(name)
	if !s.fs.IsFile(p) {
		return "", false, nil
	}
	raw, err := s.fs.ReadString(p)
	if err != nil {
		return "", false, gliterr.IO("reading branch", err)
	}
	return strings.TrimSpace(raw), true, nil
}

// SetBranch creates or overwrites a branch pointer.
func (s *Store) SetBranch(name, commitID string) error {
	if err := s.fs.Write(s.branchPath(name), []byte(commitID)); err != nil {
		return gliterr.IO("writing branch", err)
	}
	return nil
}

// DeleteBranch removes the branch pointer only; no objects are touched.
func (s *Store) DeleteBranch(name string) error {
	if err := s.fs.Delete(s.branchPath(name)); err != nil {
		return gliterr.IO("deleting branch", err)
	}
	return nil
}

// Branches lists every branch name, slash-joined for tracking branches,
// sorted.
func (s *Store) Branches() ([]string, error) {
	names, err := s.fs.ListTree(s.dir)
	if err != nil {
		return nil, gliterr.IO("listing branches", err)
	}
	return names, nil
}

// Head returns the name of the current branch.
func (s *Store) Head() (string, error) {
	raw, err := s.fs.ReadString(s.headPath)
	if err != nil {
		return "", gliterr.IO("reading HEAD", err)
	}
	return strings.TrimSpace(raw), nil
}

// SetHead records the current branch name.
func (s *Store) SetHead(name string) error {
	if err := s.fs.Write(s.headPath, []byte(name)); err != nil {
		return gliterr.IO("writing HEAD", err)
	}
	return nil
}
