package repo

import (
	"fmt"

	"go.uber.org/zap"

	"gitlite/internal/fsys"
	"gitlite/internal/gliterr"
	"gitlite/internal/object"
)

// Add stages a file for the next commit. Adding a file that is marked for
// removal just cancels the removal. Staging a file whose content matches the
// current commit drops any previous staged entry instead.
func (r *Repository) Add(name string) error {
	if r.staging.IsRemoved(name) {
		r.staging.UnmarkRemoved(name)
		return r.staging.Save()
	}

	if !r.tree.Exists(name) {
		return gliterr.New(gliterr.KindFileNotFound)
	}

	content, err := r.tree.Read(name)
	if err != nil {
		return err
	}
	blobID := fsys.SHA1(content)

	head, err := r.HeadCommit()
	if err != nil {
		return err
	}
	if head.Blob(name) == blobID {
		r.staging.Unstage(name)
		return r.staging.Save()
	}

	if _, err := r.objects.PutBlob(content); err != nil {
		return err
	}
	r.staging.Stage(name, blobID)
	r.debugLog("staged file", zap.String("file", name), zap.String("blob", blobID))
	return r.staging.Save()
}

// Rm unstages a staged file, or marks a tracked file removed and deletes it
// from the working tree.
func (r *Repository) Rm(name string) error {
	if r.staging.IsStaged(name) {
		r.staging.Unstage(name)
		return r.staging.Save()
	}

	head, err := r.HeadCommit()
	if err != nil {
		return err
	}
	if !head.Tracks(name) {
		return gliterr.New(gliterr.KindNothingToRemove)
	}

	r.staging.MarkRemoved(name)
	if err := r.staging.Save(); err != nil {
		return err
	}
	return r.tree.Delete(name)
}

// Commit records the staged changes as a new commit on the current branch.
func (r *Repository) Commit(message string) (string, error) {
	if message == "" {
		return "", gliterr.New(gliterr.KindEmptyCommitMessage)
	}

	if err := r.staging.Reload(); err != nil {
		return "", err
	}
	if r.staging.IsEmpty() {
		return "", gliterr.New(gliterr.KindNothingStaged)
	}

	head, err := r.HeadCommit()
	if err != nil {
		return "", err
	}

	tree := head.CloneTree()
	for _, name := range r.staging.AddedFiles() {
		id, _ := r.staging.StagedID(name)
		tree[name] = id
	}
	for _, name := range r.staging.RemovedFiles() {
		delete(tree, name)
	}

	c := object.NewCommit(message, r.clock(), []string{head.ID}, tree)
	id, err := r.objects.PutCommit(c)
	if err != nil {
		return "", err
	}

	branch, err := r.refs.Head()
	if err != nil {
		return "", err
	}
	if err := r.refs.SetBranch(branch, id); err != nil {
		return "", err
	}
	if err := r.staging.Clear(); err != nil {
		return "", err
	}
	r.debugLog("created commit", zap.String("id", id), zap.String("branch", branch))
	return id, nil
}

// CheckoutFile restores one file from the head commit.
func (r *Repository) CheckoutFile(name string) error {
	head, err := r.HeadCommit()
	if err != nil {
		return err
	}
	return r.tree.CheckoutFile(head, name)
}

// CheckoutFileAt restores one file from the commit named by a short id.
func (r *Repository) CheckoutFileAt(shortID, name string) error {
	id, err := r.graph.Resolve(shortID)
	if err != nil {
		return err
	}
	c, err := r.objects.GetCommit(id)
	if err != nil {
		return err
	}
	return r.tree.CheckoutFile(c, name)
}

// CheckoutBranch switches the working tree and HEAD to another branch.
func (r *Repository) CheckoutBranch(name string) error {
	target, ok, err := r.refs.Branch(name)
	if err != nil {
		return err
	}
	if !ok {
		return gliterr.New(gliterr.KindNoSuchBranch)
	}
	current, err := r.refs.Head()
	if err != nil {
		return err
	}
	if name == current {
		return gliterr.Newf(gliterr.KindCurrentBranch, "No need to checkout the current branch.")
	}

	head, err := r.HeadCommit()
	if err != nil {
		return err
	}
	targetCommit, err := r.objects.GetCommit(target)
	if err != nil {
		return err
	}
	if err := r.tree.SafeSwitch(head.Tree, targetCommit.Tree); err != nil {
		return err
	}
	return r.refs.SetHead(name)
}

// Branch creates a new branch at the current head commit.
func (r *Repository) Branch(name string) error {
	if _, ok, err := r.refs.Branch(name); err != nil {
		return err
	} else if ok {
		return gliterr.New(gliterr.KindBranchExists)
	}
	id, err := r.graph.HeadCommitID()
	if err != nil {
		return err
	}
	return r.refs.SetBranch(name, id)
}

// RmBranch deletes a branch pointer. The current branch cannot be removed.
func (r *Repository) RmBranch(name string) error {
	if _, ok, err := r.refs.Branch(name); err != nil {
		return err
	} else if !ok {
		return gliterr.Newf(gliterr.KindNoSuchBranch, "A branch with that name does not exist.")
	}
	current, err := r.refs.Head()
	if err != nil {
		return err
	}
	if name == current {
		return gliterr.New(gliterr.KindCurrentBranch)
	}
	return r.refs.DeleteBranch(name)
}

// Reset moves the current branch to the commit named by a short id and
// switches the working tree to it.
func (r *Repository) Reset(shortID string) error {
	id, err := r.graph.Resolve(shortID)
	if err != nil {
		return err
	}
	target, err := r.objects.GetCommit(id)
	if err != nil {
		return err
	}
	head, err := r.HeadCommit()
	if err != nil {
		return err
	}
	if err := r.tree.SafeSwitch(head.Tree, target.Tree); err != nil {
		return err
	}
	branch, err := r.refs.Head()
	if err != nil {
		return err
	}
	return r.refs.SetBranch(branch, id)
}

// Merge merges the named branch into the current branch and prints the
// outcome notice.
func (r *Repository) Merge(branchName string) error {
	res, err := r.merger.Merge(branchName)
	if err != nil {
		return err
	}
	switch {
	case res.AlreadyAncestor:
		fmt.Fprintln(r.out, "Given branch is an ancestor of the current branch.")
	case res.FastForwarded:
		fmt.Fprintln(r.out, "Current branch fast-forwarded.")
	case res.Conflicted:
		fmt.Fprintln(r.out, "Encountered a merge conflict.")
	}
	return nil
}

// RemoteAdd registers a remote.
func (r *Repository) RemoteAdd(name, path string) error {
	return r.remotes.Add(name, path)
}

// RemoteRm unregisters a remote.
func (r *Repository) RemoteRm(name string) error {
	return r.remotes.Remove(name)
}

// Push publishes the current branch head to the named remote branch.
func (r *Repository) Push(remoteName, branchName string) error {
	return r.syncer.Push(remoteName, branchName)
}

// Fetch replicates a remote branch into the local tracking branch.
func (r *Repository) Fetch(remoteName, branchName string) error {
	return r.syncer.Fetch(remoteName, branchName)
}

// Pull fetches a remote branch then merges its tracking branch.
func (r *Repository) Pull(remoteName, branchName string) error {
	if err := r.Fetch(remoteName, branchName); err != nil {
		return err
	}
	return r.Merge(remoteName + "/" + branchName)
}
