package remote

import (
	"strings"

	"gitlite/internal/fsys"
	"gitlite/internal/gliterr"
	"gitlite/internal/object"
	"gitlite/internal/refs"
)

// Syncer copies objects and references between the local repository and a
// remote one. Object writes are content-addressed and idempotent, so an
// interrupted copy completes on the next run.
type Syncer struct {
	fs       *fsys.FS
	root     string // local working-tree root, for resolving relative remote paths
	registry *Registry
	objects  *object.Store
	refs     *refs.Store
}

func NewSyncer(fs *fsys.FS, root string, registry *Registry, objects *object.Store, rf *refs.Store) *Syncer {
	return &Syncer{fs: fs, root: root, registry: registry, objects: objects, refs: rf}
}

// peer holds the opened stores of the remote repository.
type peer struct {
	objects *object.Store
	refs    *refs.Store
}

// openPeer resolves a remote name to its control directory and opens stores
// over it. A registered path either is the control directory (ends in
// ".gitlite") or contains one.
func (s *Syncer) openPeer(remoteName string) (*peer, error) {
	registered, err := s.registry.Get(remoteName)
	if err != nil {
		return nil, err
	}
	path := s.fs.Resolve(s.root, registered)

	control := path
	if !strings.HasSuffix(path, ".gitlite") {
		control = s.fs.Join(path, ".gitlite")
	}
	if !s.fs.IsDir(control) {
		return nil, gliterr.Newf(gliterr.KindIO, "Remote directory not found.")
	}

	objects, err := object.NewStore(s.fs, s.fs.Join(control, "objects"))
	if err != nil {
		return nil, err
	}
	return &peer{
		objects: objects,
		refs:    refs.NewStore(s.fs, control),
	}, nil
}

// Push publishes the local current-branch head to the named remote branch.
// Only fast-forward updates are allowed.
func (s *Syncer) Push(remoteName, branchName string) error {
	remote, err := s.openPeer(remoteName)
	if err != nil {
		return err
	}

	head, err := s.refs.Head()
	if err != nil {
		return err
	}
	local, ok, err := s.refs.Branch(head)
	if err != nil {
		return err
	}
	if !ok {
		return gliterr.Newf(gliterr.KindNoSuchBranch, "HEAD names missing branch %q", head)
	}

	remoteHead, _, err := remote.refs.Branch(branchName)
	if err != nil {
		return err
	}

	// Commits from the local head back to the remote head, first parent
	// only. The remote head must appear or the push is not a fast-forward.
	var toCopy []string
	found := remoteHead == ""
	for id := local; id != ""; {
		if id == remoteHead {
			found = true
			break
		}
		toCopy = append(toCopy, id)
		c, err := s.objects.GetCommit(id)
		if err != nil {
			return err
		}
		if c.IsRoot() {
			break
		}
		id = c.Parents[0]
	}
	if !found {
		return gliterr.New(gliterr.KindNonFastForward)
	}

	// Roots first, so a crash mid-copy never leaves a commit without its
	// history.
	for i := len(toCopy) - 1; i >= 0; i-- {
		if err := s.copyCommit(toCopy[i], s.objects, remote.objects); err != nil {
			return err
		}
	}

	return remote.refs.SetBranch(branchName, local)
}

// Fetch replicates the named remote branch's history into the local store and
// points the tracking branch "<remote>/<branch>" at its head. The walk visits
// every parent so merge histories arrive whole, and stops descending at
// commits the local store already has.
func (s *Syncer) Fetch(remoteName, branchName string) error {
	remote, err := s.openPeer(remoteName)
	if err != nil {
		return err
	}

	remoteHead, ok, err := remote.refs.Branch(branchName)
	if err != nil {
		return err
	}
	if !ok {
		return gliterr.New(gliterr.KindNoSuchRemoteBranch)
	}

	var toCopy []string
	visited := map[string]bool{}
	queue := []string{remoteHead}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if id == "" || visited[id] {
			continue
		}
		visited[id] = true
		if s.objects.Has(id) {
			continue
		}
		c, err := remote.objects.GetCommit(id)
		if err != nil {
			return err
		}
		toCopy = append(toCopy, id)
		queue = append(queue, c.Parents...)
	}

	for i := len(toCopy) - 1; i >= 0; i-- {
		if err := s.copyCommit(toCopy[i], remote.objects, s.objects); err != nil {
			return err
		}
	}

	return s.refs.SetBranch(remoteName+"/"+branchName, remoteHead)
}

// copyCommit copies one commit and every blob its tree references from src to
// dst, skipping objects dst already has.
func (s *Syncer) copyCommit(id string, src, dst *object.Store) error {
	c, err := src.GetCommit(id)
	if err != nil {
		return err
	}
	for _, blobID := range c.Tree {
		if err := src.CopyObject(blobID, dst); err != nil {
			return err
		}
	}
	return src.CopyObject(id, dst)
}
