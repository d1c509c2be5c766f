// Package merge implements the three-way merge: classify every file across
// the split, current, and given trees, materialise conflicts, and commit the
// merged tree.
package merge

import (
	"fmt"
	"sort"

	"gitlite/internal/gliterr"
	"gitlite/internal/graph"
	"gitlite/internal/object"
	"gitlite/internal/refs"
	"gitlite/internal/staging"
	"gitlite/internal/worktree"
)

const (
	markerHead  = "<<<<<<< HEAD\n"
	markerSplit = "=======\n"
	markerEnd   = ">>>>>>>\n"
)

// Result describes how a merge concluded.
type Result struct {
	// AlreadyAncestor is set when the given branch is an ancestor of the
	// current branch; nothing was changed.
	AlreadyAncestor bool
	// FastForwarded is set when the current branch pointer was simply moved
	// to the given commit.
	FastForwarded bool
	// Conflicted is set when at least one file merged with conflict markers.
	Conflicted bool
	// CommitID is the merge commit id, when one was created.
	CommitID string
}

// Engine performs merges against a repository's stores.
type Engine struct {
	objects *object.Store
	staging *staging.Area
	refs    *refs.Store
	graph   *graph.Graph
	tree    *worktree.Tree
	clock   func() int64
}

func NewEngine(objects *object.Store, st *staging.Area, rf *refs.Store, g *graph.Graph, tree *worktree.Tree, clock func() int64) *Engine {
	return &Engine{objects: objects, staging: st, refs: rf, graph: g, tree: tree, clock: clock}
}

// action is one planned working-tree mutation, applied only after every
// precondition has passed.
type action struct {
	name     string
	blobID   string // take the given side's blob; "" means delete
	conflict []byte // conflict content to materialise instead
}

// Merge merges the named branch into the current branch.
func (e *Engine) Merge(branchName string) (*Result, error) {
	given, ok, err := e.refs.Branch(branchName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, gliterr.Newf(gliterr.KindNoSuchBranch, "A branch with that name does not exist.")
	}
	currentBranch, err := e.refs.Head()
	if err != nil {
		return nil, err
	}
	if branchName == currentBranch {
		return nil, gliterr.New(gliterr.KindSelfMerge)
	}
	if err := e.staging.Reload(); err != nil {
		return nil, err
	}
	if !e.staging.IsEmpty() {
		return nil, gliterr.New(gliterr.KindUncommittedChanges)
	}

	current, err := e.graph.HeadCommitID()
	if err != nil {
		return nil, err
	}
	split, err := e.graph.SplitPoint(current, given)
	if err != nil {
		return nil, err
	}

	if split == given {
		return &Result{AlreadyAncestor: true}, nil
	}

	currentCommit, err := e.objects.GetCommit(current)
	if err != nil {
		return nil, err
	}
	givenCommit, err := e.objects.GetCommit(given)
	if err != nil {
		return nil, err
	}

	if split == current {
		if err := e.tree.SafeSwitch(currentCommit.Tree, givenCommit.Tree); err != nil {
			return nil, err
		}
		if err := e.refs.SetBranch(currentBranch, given); err != nil {
			return nil, err
		}
		return &Result{FastForwarded: true, CommitID: given}, nil
	}

	splitTree := map[string]string{}
	if split != "" {
		splitCommit, err := e.objects.GetCommit(split)
		if err != nil {
			return nil, err
		}
		splitTree = splitCommit.Tree
	}

	actions, conflicted, err := e.classify(splitTree, currentCommit.Tree, givenCommit.Tree)
	if err != nil {
		return nil, err
	}

	if err := e.precheckUntracked(currentCommit.Tree, givenCommit.Tree); err != nil {
		return nil, err
	}

	for _, act := range actions {
		if err := e.apply(act); err != nil {
			return nil, err
		}
	}

	tree := currentCommit.CloneTree()
	for _, name := range e.staging.AddedFiles() {
		id, _ := e.staging.StagedID(name)
		tree[name] = id
	}
	for _, name := range e.staging.RemovedFiles() {
		delete(tree, name)
	}

	mergeCommit := object.NewCommit(
		fmt.Sprintf("Merged %s into %s.", branchName, currentBranch),
		e.clock(),
		[]string{current, given},
		tree,
	)
	mergeCommit.MergeInfo = current[:7] + " " + given[:7]
	mergeCommit.ID = mergeCommit.ComputeID()

	id, err := e.objects.PutCommit(mergeCommit)
	if err != nil {
		return nil, err
	}
	if err := e.refs.SetBranch(currentBranch, id); err != nil {
		return nil, err
	}
	if err := e.staging.Clear(); err != nil {
		return nil, err
	}

	return &Result{Conflicted: conflicted, CommitID: id}, nil
}

// classify walks the union of filenames across the three trees and decides
// the outcome for each. No working-tree mutation happens here; conflict
// content is assembled from blobs so the later apply step is pure writes.
func (e *Engine) classify(splitTree, currentTree, givenTree map[string]string) ([]action, bool, error) {
	names := map[string]bool{}
	for name := range splitTree {
		names[name] = true
	}
	for name := range currentTree {
		names[name] = true
	}
	for name := range givenTree {
		names[name] = true
	}
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	var actions []action
	conflicted := false
	for _, name := range sorted {
		s := splitTree[name]
		a := currentTree[name]
		b := givenTree[name]

		switch {
		case a == b:
			// Unchanged, identically changed, or deleted on both sides.
		case s == a:
			// Only the given side changed: take it.
			actions = append(actions, action{name: name, blobID: b})
		case s == b:
			// Only the current side changed: keep it.
		default:
			content, err := e.conflictContent(a, b)
			if err != nil {
				return nil, false, err
			}
			actions = append(actions, action{name: name, conflict: content})
			conflicted = true
		}
	}
	return actions, conflicted, nil
}

func (e *Engine) conflictContent(a, b string) ([]byte, error) {
	var aContent, bContent []byte
	var err error
	if a != "" {
		if aContent, err = e.objects.GetBlob(a); err != nil {
			return nil, err
		}
	}
	if b != "" {
		if bContent, err = e.objects.GetBlob(b); err != nil {
			return nil, err
		}
	}
	content := make([]byte, 0, len(markerHead)+len(aContent)+len(markerSplit)+len(bContent)+len(markerEnd))
	content = append(content, markerHead...)
	content = append(content, aContent...)
	content = append(content, markerSplit...)
	content = append(content, bContent...)
	content = append(content, markerEnd...)
	return content, nil
}

// precheckUntracked fails before any mutation if an untracked working file
// would be overwritten by the given side.
func (e *Engine) precheckUntracked(currentTree, givenTree map[string]string) error {
	for name, b := range givenTree {
		if b == currentTree[name] {
			continue
		}
		if _, tracked := currentTree[name]; tracked {
			continue
		}
		if e.tree.Exists(name) {
			return gliterr.New(gliterr.KindUntrackedInTheWay)
		}
	}
	return nil
}

func (e *Engine) apply(act action) error {
	if act.conflict != nil {
		blobID, err := e.objects.PutBlob(act.conflict)
		if err != nil {
			return err
		}
		if err := e.tree.Write(act.name, act.conflict); err != nil {
			return err
		}
		e.staging.Stage(act.name, blobID)
		return nil
	}
	if act.blobID == "" {
		if err := e.tree.Delete(act.name); err != nil {
			return err
		}
		e.staging.MarkRemoved(act.name)
		return nil
	}
	content, err := e.objects.GetBlob(act.blobID)
	if err != nil {
		return err
	}
	if err := e.tree.Write(act.name, content); err != nil {
		return err
	}
	e.staging.Stage(act.name, act.blobID)
	return nil
}
