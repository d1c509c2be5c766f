package object

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"gitlite/internal/fsys"
	"gitlite/internal/gliterr"
)

const (
	blobCacheSize   = 256
	commitCacheSize = 512
)

// Store is a content-addressed object store over a single flat directory.
// Blobs and commits share the key space; callers know from context which kind
// a digest names. Writes are idempotent, so replaying an interrupted copy is
// always safe.
type Store struct {
	fs  *fsys.FS
	dir string

	blobs   *lru.Cache[string, []byte]
	commits *lru.Cache[string, *Commit]
}

// NewStore returns a store over the object directory. The directory itself is
// not created here; it appears with the first object written.
func NewStore(fs *fsys.FS, dir string) (*Store, error) {
	blobs, err := lru.New[string, []byte](blobCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating blob cache: %w", err)
	}
	commits, err := lru.New[string, *Commit](commitCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating commit cache: %w", err)
	}
	return &Store{fs: fs, dir: dir, blobs: blobs, commits: commits}, nil
}

// Dir returns the directory backing the store.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) objectPath(id string) string {
	return s.fs.Join(s.dir, id)
}

// Has reports whether an object with the given digest is present.
func (s *Store) Has(id string) bool {
	if id == "" {
		return false
	}
	if _, ok := s.blobs.Get(id); ok {
		return true
	}
	if _, ok := s.commits.Get(id); ok {
		return true
	}
	return s.fs.IsFile(s.objectPath(id))
}

// PutBlob hashes content and persists it under its digest if not already
// present, returning the digest.
func (s *Store) PutBlob(content []byte) (string, error) {
	id := fsys.SHA1(content)
	if !s.fs.IsFile(s.objectPath(id)) {
		if err := s.fs.Write(s.objectPath(id), content); err != nil {
			return "", gliterr.IO("storing blob", err)
		}
	}
	s.blobs.Add(id, content)
	return id, nil
}

// GetBlob returns the raw bytes stored under the digest.
func (s *Store) GetBlob(id string) ([]byte, error) {
	if content, ok := s.blobs.Get(id); ok {
		return content, nil
	}
	if !s.fs.IsFile(s.objectPath(id)) {
		return nil, gliterr.Newf(gliterr.KindObjectMissing, "object %s not found", id)
	}
	content, err := s.fs.ReadBytes(s.objectPath(id))
	if err != nil {
		return nil, gliterr.IO("reading blob", err)
	}
	s.blobs.Add(id, content)
	return content, nil
}

// PutCommit serialises the commit to its canonical form and persists it under
// its id, returning the id.
func (s *Store) PutCommit(c *Commit) (string, error) {
	if c.ID == "" {
		c.ID = c.ComputeID()
	}
	if !s.fs.IsFile(s.objectPath(c.ID)) {
		if err := s.fs.Write(s.objectPath(c.ID), Encode(c)); err != nil {
			return "", gliterr.IO("storing commit", err)
		}
	}
	s.commits.Add(c.ID, c)
	return c.ID, nil
}

// GetCommit reads and parses the commit stored under the digest.
func (s *Store) GetCommit(id string) (*Commit, error) {
	if c, ok := s.commits.Get(id); ok {
		return c, nil
	}
	if !s.fs.IsFile(s.objectPath(id)) {
		return nil, gliterr.Newf(gliterr.KindObjectMissing, "commit %s not found", id)
	}
	data, err := s.fs.ReadBytes(s.objectPath(id))
	if err != nil {
		return nil, gliterr.IO("reading commit", err)
	}
	c, err := Decode(data)
	if err != nil {
		return nil, err
	}
	c.ID = id
	s.commits.Add(id, c)
	return c, nil
}

// CopyObject copies one object's raw bytes into another store, skipping the
// write when the destination already has it.
func (s *Store) CopyObject(id string, dst *Store) error {
	if dst.Has(id) {
		return nil
	}
	data, err := s.fs.ReadBytes(s.objectPath(id))
	if err != nil {
		return gliterr.IO("reading object for copy", err)
	}
	if err := dst.fs.Write(dst.objectPath(id), data); err != nil {
		return gliterr.IO("copying object", err)
	}
	return nil
}

// ListIDs enumerates the digests present in the store. Filenames that are not
// 40-character digests are ignored.
func (s *Store) ListIDs() ([]string, error) {
	names, err := s.fs.ListPlain(s.dir)
	if err != nil {
		return nil, gliterr.IO("listing objects", err)
	}
	var ids []string
	for _, name := range names {
		if len(name) == IDLength && isHex(name) {
			ids = append(ids, name)
		}
	}
	return ids, nil
}

func isHex(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
