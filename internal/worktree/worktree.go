// Package worktree reconciles the user's files with commit trees, refusing to
// destroy untracked work.
package worktree

import (
	"gitlite/internal/fsys"
	"gitlite/internal/gliterr"
	"gitlite/internal/object"
	"gitlite/internal/staging"
)

// binaryNames are the front-end binaries ignored when scanning the worktree.
var binaryNames = map[string]bool{
	"gitlite":     true,
	"gitlite.exe": true,
}

// Tree operates on the working directory rooted at root.
type Tree struct {
	fs      *fsys.FS
	root    string
	objects *object.Store
	staging *staging.Area
}

func New(fs *fsys.FS, root string, objects *object.Store, staging *staging.Area) *Tree {
	return &Tree{fs: fs, root: root, objects: objects, staging: staging}
}

func (t *Tree) path(name string) string {
	return t.fs.Join(t.root, name)
}

// Exists reports whether the named file is present in the working tree.
func (t *Tree) Exists(name string) bool {
	return t.fs.IsFile(t.path(name))
}

// Read returns the working-tree content of the named file.
func (t *Tree) Read(name string) ([]byte, error) {
	data, err := t.fs.ReadBytes(t.path(name))
	if err != nil {
		return nil, gliterr.IO("reading working file", err)
	}
	return data, nil
}

// Write replaces the working-tree content of the named file.
func (t *Tree) Write(name string, data []byte) error {
	if err := t.fs.Write(t.path(name), data); err != nil {
		return gliterr.IO("writing working file", err)
	}
	return nil
}

// Delete removes the named file from the working tree if present.
func (t *Tree) Delete(name string) error {
	if err := t.fs.Delete(t.path(name)); err != nil {
		return gliterr.IO("deleting working file", err)
	}
	return nil
}

// Digest returns the blob digest of the file's current working-tree content.
func (t *Tree) Digest(name string) (string, error) {
	data, err := t.Read(name)
	if err != nil {
		return "", err
	}
	return fsys.SHA1(data), nil
}

// Scan lists the plain files in the working tree, skipping hidden entries and
// the gitlite binaries.
func (t *Tree) Scan() ([]string, error) {
	names, err := t.fs.ListPlain(t.root)
	if err != nil {
		return nil, gliterr.IO("scanning working tree", err)
	}
	var out []string
	for _, name := range names {
		if name == "" || name[0] == '.' || binaryNames[name] {
			continue
		}
		out = append(out, name)
	}
	return out, nil
}

// Untracked lists the working files that are neither in the current commit's
// tree nor staged.
func (t *Tree) Untracked(currentTree map[string]string) ([]string, error) {
	files, err := t.Scan()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, name := range files {
		if _, tracked := currentTree[name]; tracked {
			continue
		}
		if t.staging.IsStaged(name) {
			continue
		}
		out = append(out, name)
	}
	return out, nil
}

// SafeSwitch replaces the working tree of the current commit with the target
// tree. It first verifies no untracked file would be overwritten; until that
// check passes nothing is mutated. On success the staging area is cleared.
func (t *Tree) SafeSwitch(currentTree, targetTree map[string]string) error {
	untracked, err := t.Untracked(currentTree)
	if err != nil {
		return err
	}
	for _, name := range untracked {
		if _, ok := targetTree[name]; ok {
			return gliterr.New(gliterr.KindUntrackedInTheWay)
		}
	}

	for name := range currentTree {
		if _, ok := targetTree[name]; !ok {
			if err := t.Delete(name); err != nil {
				return err
			}
		}
	}

	for name, blobID := range targetTree {
		content, err := t.objects.GetBlob(blobID)
		if err != nil {
			return err
		}
		if err := t.Write(name, content); err != nil {
			return err
		}
	}

	return t.staging.Clear()
}

// CheckoutFile overwrites one working file with its content in the given
// commit. The staging area is left alone.
func (t *Tree) CheckoutFile(c *object.Commit, name string) error {
	blobID := c.Blob(name)
	if blobID == "" {
		return gliterr.New(gliterr.KindFileNotInCommit)
	}
	content, err := t.objects.GetBlob(blobID)
	if err != nil {
		return err
	}
	return t.Write(name, content)
}
