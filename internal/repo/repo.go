// Package repo is the façade over the gitlite subsystems. It owns the object
// store, staging area, reference store, commit graph, working-tree sync,
// merge engine, and remote sync, and exposes every user-level operation.
package repo

import (
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"gitlite/internal/config"
	"gitlite/internal/fsys"
	"gitlite/internal/gliterr"
	"gitlite/internal/graph"
	"gitlite/internal/logging"
	"gitlite/internal/merge"
	"gitlite/internal/object"
	"gitlite/internal/refs"
	"gitlite/internal/remote"
	"gitlite/internal/staging"
	"gitlite/internal/worktree"
)

// ControlDirName is the repository control directory, relative to the
// working-tree root.
const ControlDirName = ".gitlite"

const defaultBranch = "master"

type Repository struct {
	fs   *fsys.FS
	root string

	Config *config.Config

	objects *object.Store
	staging *staging.Area
	refs    *refs.Store
	graph   *graph.Graph
	tree    *worktree.Tree
	merger  *merge.Engine
	remotes *remote.Registry
	syncer  *remote.Syncer

	log   *logging.Logger
	out   io.Writer
	clock func() int64
}

// Option adjusts how a Repository is opened.
type Option func(*Repository)

// WithOutput directs console output (log, status, merge notices) to w.
func WithOutput(w io.Writer) Option {
	return func(r *Repository) { r.out = w }
}

// WithClock overrides the wall-clock used for commit timestamps.
func WithClock(clock func() int64) Option {
	return func(r *Repository) { r.clock = clock }
}

// WithLogger attaches a diagnostic logger.
func WithLogger(log *logging.Logger) Option {
	return func(r *Repository) { r.log = log }
}

func (r *Repository) controlDir() string {
	return r.fs.Join(r.root, ControlDirName)
}

// Init creates a fresh repository at root: control directory, root commit,
// master branch, empty staging area, default config.
func Init(fs *fsys.FS, root string, opts ...Option) (*Repository, error) {
	control := fs.Join(root, ControlDirName)
	if fs.Exists(control) {
		return nil, gliterr.New(gliterr.KindAlreadyInitialised)
	}

	objects, err := object.NewStore(fs, fs.Join(control, "objects"))
	if err != nil {
		return nil, err
	}
	root0 := object.NewRoot()
	if _, err := objects.PutCommit(root0); err != nil {
		return nil, err
	}

	rf := refs.NewStore(fs, control)
	if err := rf.SetBranch(defaultBranch, root0.ID); err != nil {
		return nil, err
	}
	if err := rf.SetHead(defaultBranch); err != nil {
		return nil, err
	}

	st, err := staging.Load(fs, control)
	if err != nil {
		return nil, err
	}
	if err := st.Save(); err != nil {
		return nil, err
	}

	if err := config.Save(fs, fs.Join(control, "config.json"), config.Default()); err != nil {
		return nil, err
	}

	return Open(fs, root, opts...)
}

// Open opens an existing repository at root.
func Open(fs *fsys.FS, root string, opts ...Option) (*Repository, error) {
	control := fs.Join(root, ControlDirName)
	if !fs.IsDir(control) {
		return nil, gliterr.New(gliterr.KindNotInitialised)
	}

	cfg, err := config.Load(fs, fs.Join(control, "config.json"))
	if err != nil {
		return nil, err
	}

	objects, err := object.NewStore(fs, fs.Join(control, "objects"))
	if err != nil {
		return nil, err
	}
	st, err := staging.Load(fs, control)
	if err != nil {
		return nil, err
	}
	rf := refs.NewStore(fs, control)
	g := graph.New(objects, rf)
	tree := worktree.New(fs, root, objects, st)
	registry := remote.NewRegistry(fs, control)

	r := &Repository{
		fs:      fs,
		root:    root,
		Config:  cfg,
		objects: objects,
		staging: st,
		refs:    rf,
		graph:   g,
		tree:    tree,
		remotes: registry,
		syncer:  remote.NewSyncer(fs, root, registry, objects, rf),
		log:     logging.NewNop(),
		out:     os.Stdout,
		clock:   func() int64 { return time.Now().Unix() },
	}
	for _, opt := range opts {
		opt(r)
	}
	r.merger = merge.NewEngine(objects, st, rf, g, tree, r.clock)
	return r, nil
}

// Objects exposes the object store for inspection.
func (r *Repository) Objects() *object.Store { return r.objects }

// Refs exposes the reference store for inspection.
func (r *Repository) Refs() *refs.Store { return r.refs }

// Staging exposes the staging area for inspection.
func (r *Repository) Staging() *staging.Area { return r.staging }

// Graph exposes the commit graph for inspection.
func (r *Repository) Graph() *graph.Graph { return r.graph }

// SetLogger replaces the diagnostic logger after open, once configuration is
// known.
func (r *Repository) SetLogger(log *logging.Logger) {
	r.log = log
}

// HeadCommit returns the commit HEAD currently resolves to.
func (r *Repository) HeadCommit() (*object.Commit, error) {
	id, err := r.graph.HeadCommitID()
	if err != nil {
		return nil, err
	}
	return r.objects.GetCommit(id)
}

func (r *Repository) debugLog(msg string, fields ...zap.Field) {
	r.log.Debug(msg, fields...)
}
