// Package graph implements traversal over the commit DAG: short-id
// resolution, history walks, message search, and split-point discovery.
package graph

import (
	"strings"

	"gitlite/internal/gliterr"
	"gitlite/internal/object"
	"gitlite/internal/refs"
)

type Graph struct {
	objects *object.Store
	refs    *refs.Store
}

func New(objects *object.Store, refs *refs.Store) *Graph {
	return &Graph{objects: objects, refs: refs}
}

// HeadCommitID returns the commit id of the branch HEAD names.
func (g *Graph) HeadCommitID() (string, error) {
	branch, err := g.refs.Head()
	if err != nil {
		return "", err
	}
	id, ok, err := g.refs.Branch(branch)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", gliterr.Newf(gliterr.KindNoSuchBranch, "HEAD names missing branch %q", branch)
	}
	return id, nil
}

// Resolve expands a short id to the unique full digest it prefixes. A full
// digest that exists resolves to itself. The match must both be unique and
// parse as a commit.
func (g *Graph) Resolve(shortID string) (string, error) {
	if shortID == "" {
		return "", gliterr.New(gliterr.KindNoSuchCommit)
	}
	if len(shortID) == object.IDLength {
		if _, err := g.objects.GetCommit(shortID); err != nil {
			if gliterr.Is(err, gliterr.KindObjectMissing) || gliterr.Is(err, gliterr.KindCorruptObject) {
				return "", gliterr.New(gliterr.KindNoSuchCommit)
			}
			return "", err
		}
		return shortID, nil
	}
	if len(shortID) > object.IDLength {
		return "", gliterr.New(gliterr.KindNoSuchCommit)
	}

	ids, err := g.objects.ListIDs()
	if err != nil {
		return "", err
	}
	match := ""
	for _, id := range ids {
		if !strings.HasPrefix(id, shortID) {
			continue
		}
		if match != "" {
			return "", gliterr.Newf(gliterr.KindAmbiguousID, "short id %q is ambiguous", shortID)
		}
		match = id
	}
	if match == "" {
		return "", gliterr.New(gliterr.KindNoSuchCommit)
	}
	if _, err := g.objects.GetCommit(match); err != nil {
		return "", gliterr.New(gliterr.KindNoSuchCommit)
	}
	return match, nil
}

// FirstParentLog walks from start to the root following first parents,
// yielding each commit. The walk stops early if visit returns false.
func (g *Graph) FirstParentLog(start string, visit func(*object.Commit) bool) error {
	for id := start; id != ""; {
		c, err := g.objects.GetCommit(id)
		if err != nil {
			return err
		}
		if !visit(c) {
			return nil
		}
		if c.IsRoot() {
			return nil
		}
		id = c.Parents[0]
	}
	return nil
}

// AllCommits yields every parseable commit in the store. Objects that are not
// commits (blobs, foreign files) are skipped.
func (g *Graph) AllCommits(visit func(*object.Commit) bool) error {
	ids, err := g.objects.ListIDs()
	if err != nil {
		return err
	}
	for _, id := range ids {
		c, err := g.objects.GetCommit(id)
		if err != nil {
			if gliterr.Is(err, gliterr.KindCorruptObject) || gliterr.Is(err, gliterr.KindObjectMissing) {
				continue
			}
			return err
		}
		if !visit(c) {
			return nil
		}
	}
	return nil
}

// FindByMessage returns the ids of every commit whose message equals msg
// exactly.
func (g *Graph) FindByMessage(msg string) ([]string, error) {
	var found []string
	err := g.AllCommits(func(c *object.Commit) bool {
		if c.Message == msg {
			found = append(found, c.ID)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, gliterr.New(gliterr.KindNoSuchMessage)
	}
	return found, nil
}

// Ancestors returns the set of commits reachable from id through any parent,
// including id itself.
func (g *Graph) Ancestors(id string) (map[string]bool, error) {
	seen := map[string]bool{}
	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == "" || seen[cur] {
			continue
		}
		seen[cur] = true
		c, err := g.objects.GetCommit(cur)
		if err != nil {
			return nil, err
		}
		stack = append(stack, c.Parents...)
	}
	return seen, nil
}

// SplitPoint returns the latest common ancestor of a and b: the first commit
// reached by a breadth-first walk from b (first parent before second) that is
// also an ancestor of a. Either side empty yields empty.
func (g *Graph) SplitPoint(a, b string) (string, error) {
	if a == "" || b == "" {
		return "", nil
	}
	fromA, err := g.Ancestors(a)
	if err != nil {
		return "", err
	}

	visited := map[string]bool{}
	queue := []string{b}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == "" || visited[cur] {
			continue
		}
		visited[cur] = true
		if fromA[cur] {
			return cur, nil
		}
		c, err := g.objects.GetCommit(cur)
		if err != nil {
			return "", err
		}
		queue = append(queue, c.Parents...)
	}
	return "", nil
}
