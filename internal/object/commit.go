// Package object implements the content-addressed object store: blobs and
// commits keyed by SHA-1 digests, sharing a flat key space in a single
// directory.
package object

import (
	"sort"
	"strconv"
	"strings"

	"gitlite/internal/fsys"
)

// IDLength is the length of a full hexadecimal digest.
const IDLength = 40

// RootMessage is the message of the unique zero-parent commit created by init.
const RootMessage = "initial commit"

// Commit is one node of the history DAG.
type Commit struct {
	ID        string
	Message   string
	Timestamp int64
	Parents   []string
	Tree      map[string]string
	MergeInfo string
}

// NewCommit builds a commit and computes its id.
func NewCommit(message string, timestamp int64, parents []string, tree map[string]string) *Commit {
	c := &Commit{
		Message:   message,
		Timestamp: timestamp,
		Parents:   append([]string(nil), parents...),
		Tree:      tree,
	}
	if c.Tree == nil {
		c.Tree = map[string]string{}
	}
	c.ID = c.ComputeID()
	return c
}

// NewRoot builds the repository's root commit: fixed message, epoch zero,
// no parents, empty tree.
func NewRoot() *Commit {
	return NewCommit(RootMessage, 0, nil, nil)
}

// ComputeID hashes the commit's identifying fields: message, decimal
// timestamp, every parent id, then every filename and blob id in ascending
// filename order. Identical logical commits always hash identically.
func (c *Commit) ComputeID() string {
	var sb strings.Builder
	sb.WriteString(c.Message)
	sb.WriteString(strconv.FormatInt(c.Timestamp, 10))
	for _, p := range c.Parents {
		sb.WriteString(p)
	}
	for _, name := range c.SortedFiles() {
		sb.WriteString(name)
		sb.WriteString(c.Tree[name])
	}
	return fsys.SHA1([]byte(sb.String()))
}

// SortedFiles returns the tree's filenames in ascending order, the canonical
// iteration order for both id computation and serialisation.
func (c *Commit) SortedFiles() []string {
	names := make([]string, 0, len(c.Tree))
	for name := range c.Tree {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsMerge reports whether the commit has two parents.
func (c *Commit) IsMerge() bool {
	return len(c.Parents) == 2
}

// IsRoot reports whether the commit has no parents.
func (c *Commit) IsRoot() bool {
	return len(c.Parents) == 0
}

// Blob returns the blob id for a filename, or "" if the file is not in the
// tree.
func (c *Commit) Blob(name string) string {
	return c.Tree[name]
}

// Tracks reports whether the commit's tree contains the filename.
func (c *Commit) Tracks(name string) bool {
	_, ok := c.Tree[name]
	return ok
}

// CloneTree returns a copy of the tree safe for the caller to mutate.
func (c *Commit) CloneTree() map[string]string {
	out := make(map[string]string, len(c.Tree))
	for name, id := range c.Tree {
		out[name] = id
	}
	return out
}
