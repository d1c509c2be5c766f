package repo

import (
	"fmt"
	"time"

	"gitlite/internal/object"
)

const dateLayout = "Mon Jan 2 15:04:05 2006 -0700"

func (r *Repository) printCommit(c *object.Commit) {
	fmt.Fprintln(r.out, "===")
	fmt.Fprintf(r.out, "commit %s\n", c.ID)
	if c.IsMerge() {
		fmt.Fprintf(r.out, "Merge: %s %s\n", c.Parents[0][:7], c.Parents[1][:7])
	}
	fmt.Fprintf(r.out, "Date: %s\n", time.Unix(c.Timestamp, 0).Format(dateLayout))
	fmt.Fprintln(r.out, c.Message)
	fmt.Fprintln(r.out)
}

// Log prints the first-parent history of the current branch, newest first.
func (r *Repository) Log() error {
	head, err := r.graph.HeadCommitID()
	if err != nil {
		return err
	}
	return r.graph.FirstParentLog(head, func(c *object.Commit) bool {
		r.printCommit(c)
		return true
	})
}

// GlobalLog prints every commit in the object store, in store order.
func (r *Repository) GlobalLog() error {
	return r.graph.AllCommits(func(c *object.Commit) bool {
		r.printCommit(c)
		return true
	})
}

// Find prints the ids of every commit with exactly the given message.
func (r *Repository) Find(message string) error {
	ids, err := r.graph.FindByMessage(message)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(r.out, id)
	}
	return nil
}

// Status prints the five status sections: branches, staged files, removed
// files, unstaged modifications, untracked files.
func (r *Repository) Status() error {
	branches, err := r.refs.Branches()
	if err != nil {
		return err
	}
	current, err := r.refs.Head()
	if err != nil {
		return err
	}
	head, err := r.HeadCommit()
	if err != nil {
		return err
	}

	fmt.Fprintln(r.out, "=== Branches ===")
	for _, b := range branches {
		if b == current {
			fmt.Fprintf(r.out, "*%s\n", b)
		} else {
			fmt.Fprintln(r.out, b)
		}
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, "=== Staged Files ===")
	for _, name := range r.staging.AddedFiles() {
		fmt.Fprintln(r.out, name)
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, "=== Removed Files ===")
	for _, name := range r.staging.RemovedFiles() {
		fmt.Fprintln(r.out, name)
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, "=== Modifications Not Staged For Commit ===")
	for _, name := range head.SortedFiles() {
		if r.staging.IsStaged(name) || r.staging.IsRemoved(name) {
			continue
		}
		if !r.tree.Exists(name) {
			fmt.Fprintf(r.out, "%s (deleted)\n", name)
			continue
		}
		digest, err := r.tree.Digest(name)
		if err != nil {
			return err
		}
		if digest != head.Blob(name) {
			fmt.Fprintf(r.out, "%s (modified)\n", name)
		}
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, "=== Untracked Files ===")
	untracked, err := r.tree.Untracked(head.Tree)
	if err != nil {
		return err
	}
	for _, name := range untracked {
		fmt.Fprintln(r.out, name)
	}

	return nil
}
