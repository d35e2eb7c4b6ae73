// Package fs is the local filesystem driver.
package fs

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"

	"github.com/justyntemme/filespanel/internal/debug"
	"github.com/justyntemme/filespanel/internal/gateway"
	"github.com/justyntemme/filespanel/internal/pathutil"
	"github.com/justyntemme/filespanel/internal/tree"
)

var ErrExists = errors.New("destination already exists")

// Local snapshots and mutates a directory tree on disk. Keys are canonical
// paths.
type Local struct {
	// Ignore lists entry names that are never reported, at any depth.
	Ignore map[string]bool
}

func NewLocal(ignore ...string) *Local {
	l := &Local{Ignore: make(map[string]bool, len(ignore))}
	for _, name := range ignore {
		l.Ignore[name] = true
	}
	return l
}

func (l *Local) Name() string { return "local" }

// skipped reports whether any component of rel is ignored.
func (l *Local) skipped(rel string) bool {
	if len(l.Ignore) == 0 {
		return false
	}
	for _, part := range strings.Split(rel, "/") {
		if l.Ignore[part] {
			return true
		}
	}
	return false
}

func toCanonical(native string) string {
	return pathutil.Canonical(filepath.ToSlash(native))
}

// ReadDirectory walks root recursively and returns its snapshot as a
// single-element slice. The root is expanded, everything else collapsed.
func (l *Local) ReadDirectory(ctx context.Context, root string) ([]*tree.Node, error) {
	native := filepath.Clean(filepath.FromSlash(root))
	info, err := os.Stat(native)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", root)
	}

	rootPath := toCanonical(native)
	top := &tree.Node{
		Key:      rootPath,
		Path:     rootPath,
		Name:     pathutil.Base(rootPath),
		IsFolder: true,
		Expanded: true,
		ModTime:  info.ModTime(),
	}

	var (
		mu    sync.Mutex
		nodes []*tree.Node
	)

	// Follow symlinks to get target info
	conf := &fastwalk.Config{Follow: true}
	err = fastwalk.Walk(conf, native, func(fullPath string, d iofs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			debug.Log(debug.IO_ENTRY, "read: walk error at %q: %v", fullPath, err)
			return nil // Skip errors, continue walking
		}
		if fullPath == native {
			return nil
		}

		p := toCanonical(fullPath)
		if l.skipped(strings.TrimPrefix(p, rootPath+"/")) {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		info, err := fastwalk.StatDirEntry(fullPath, d)
		if err != nil {
			// Try lstat as fallback for broken symlinks
			info, err = os.Lstat(fullPath)
			if err != nil {
				debug.Log(debug.IO_ENTRY, "read: skipping %q: stat error: %v", d.Name(), err)
				return nil
			}
		}

		n := &tree.Node{
			Key:      p,
			Path:     p,
			Name:     d.Name(),
			IsFolder: info.IsDir(),
			ModTime:  info.ModTime(),
		}
		if !n.IsFolder {
			n.Size = info.Size()
		}

		mu.Lock()
		nodes = append(nodes, n)
		mu.Unlock()
		return nil
	})
	if err != nil {
		debug.Log(debug.IO, "read: walk error: %v", err)
		return nil, err
	}

	assemble(top, nodes)
	debug.Log(debug.IO, "read: %q returned %d nodes", rootPath, len(nodes)+1)
	return []*tree.Node{top}, nil
}

// assemble links the flat walk output under top. Children are sorted with
// folders first, then by name.
func assemble(top *tree.Node, nodes []*tree.Node) {
	byPath := make(map[string]*tree.Node, len(nodes)+1)
	byPath[top.Path] = top
	for _, n := range nodes {
		byPath[n.Path] = n
	}
	for _, n := range nodes {
		if parent, ok := byPath[pathutil.ParentPath(n.Path, 1)]; ok && parent.IsFolder {
			parent.Children = append(parent.Children, n)
		}
	}
	tree.SortRecursive(top)
}

// Move renames from to to.Path. An existing destination is never replaced.
func (l *Local) Move(ctx context.Context, from tree.Item, to gateway.MoveSpec) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src := filepath.FromSlash(pathutil.Canonical(from.Path))
	dst := filepath.FromSlash(pathutil.Canonical(to.Path))

	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, to.Path)
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := os.Rename(src, dst); err != nil {
		return err
	}
	debug.Log(debug.IO, "move: %q -> %q", src, dst)
	return nil
}
