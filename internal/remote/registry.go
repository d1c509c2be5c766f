// Package remote implements the remotes registry and the push/fetch
// synchronisation protocol between two repositories sharing a filesystem.
package remote

import (
	"sort"
	"strings"

	"gitlite/internal/fsys"
	"gitlite/internal/gliterr"
)

// Registry is the persistent name→path table of configured remotes, stored
// one "name SPACE path" per line.
type Registry struct {
	fs   *fsys.FS
	path string
}

func NewRegistry(fs *fsys.FS, controlDir string) *Registry {
	return &Registry{fs: fs, path: fs.Join(controlDir, "remotes")}
}

func (r *Registry) load() (map[string]string, error) {
	remotes := map[string]string{}
	if !r.fs.IsFile(r.path) {
		return remotes, nil
	}
	raw, err := r.fs.ReadString(r.path)
	if err != nil {
		return nil, gliterr.IO("reading remotes", err)
	}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r\n")
		name, path, ok := strings.Cut(line, " ")
		if !ok || name == "" || path == "" {
			continue
		}
		remotes[name] = path
	}
	return remotes, nil
}

func (r *Registry) save(remotes map[string]string) error {
	names := make([]string, 0, len(remotes))
	for name := range remotes {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(name)
		sb.WriteString(" ")
		sb.WriteString(remotes[name])
		sb.WriteString("\n")
	}
	if err := r.fs.Write(r.path, []byte(sb.String())); err != nil {
		return gliterr.IO("writing remotes", err)
	}
	return nil
}

// Add registers a new remote.
func (r *Registry) Add(name, path string) error {
	remotes, err := r.load()
	if err != nil {
		return err
	}
	if _, ok := remotes[name]; ok {
		return gliterr.New(gliterr.KindRemoteExists)
	}
	remotes[name] = path
	return r.save(remotes)
}

// Remove deletes a remote from the registry. Objects already fetched stay.
func (r *Registry) Remove(name string) error {
	remotes, err := r.load()
	if err != nil {
		return err
	}
	if _, ok := remotes[name]; !ok {
		return gliterr.New(gliterr.KindNoSuchRemote)
	}
	delete(remotes, name)
	return r.save(remotes)
}

// Get returns the path registered for a remote.
func (r *Registry) Get(name string) (string, error) {
	remotes, err := r.load()
	if err != nil {
		return "", err
	}
	path, ok := remotes[name]
	if !ok {
		return "", gliterr.New(gliterr.KindNoSuchRemote)
	}
	return path, nil
}

// List returns the registry as sorted name/path pairs.
func (r *Registry) List() ([][2]string, error) {
	remotes, err := r.load()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(remotes))
	for name := range remotes {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([][2]string, 0, len(names))
	for _, name := range names {
		out = append(out, [2]string{name, remotes[name]})
	}
	return out, nil
}
