// Package store is a virtual tree driver backed by SQLite. Nodes are rows
// keyed by UUID, so keys survive moves and renames.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/justyntemme/filespanel/internal/debug"
	"github.com/justyntemme/filespanel/internal/gateway"
	"github.com/justyntemme/filespanel/internal/pathutil"
	"github.com/justyntemme/filespanel/internal/tree"
)

var (
	ErrNotFound  = errors.New("no such node")
	ErrExists    = errors.New("destination already exists")
	ErrNotFolder = errors.New("not a folder")
	ErrCycle     = errors.New("cannot move a folder into itself")
	ErrStale     = errors.New("node moved since it was read")
)

// RootID is the id of the "/" row.
var RootID = uuid.Nil.String()

type DB struct {
	conn *sql.DB
}

func NewDB() *DB {
	return &DB{}
}

// Open initializes the database connection and schema
func (d *DB) Open(dbPath string) error {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	// One writer at a time keeps transactions from tripping over SQLITE_BUSY
	db.SetMaxOpenConns(1)

	// WAL mode allows simultaneous readers and writers
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return err
	}
	// Synchronous NORMAL is safe against app crashes, faster than FULL
	if _, err := db.Exec("PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return err
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return err
	}

	query := `
	CREATE TABLE IF NOT EXISTS nodes (
		id        TEXT PRIMARY KEY,
		parent_id TEXT REFERENCES nodes(id) ON DELETE CASCADE,
		name      TEXT NOT NULL,
		is_folder INTEGER NOT NULL DEFAULT 0,
		size      INTEGER NOT NULL DEFAULT 0,
		mod_time  INTEGER NOT NULL DEFAULT 0,
		UNIQUE (parent_id, name)
	);
	CREATE INDEX IF NOT EXISTS nodes_parent ON nodes(parent_id);
	`
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return err
	}

	if _, err := db.Exec(
		"INSERT OR IGNORE INTO nodes (id, parent_id, name, is_folder) VALUES (?, NULL, '', 1)",
		RootID,
	); err != nil {
		db.Close()
		return err
	}

	d.conn = db
	debug.Log(debug.STORE, "opened %s", dbPath)
	return nil
}

func (d *DB) Name() string { return "sqlite" }

func (d *DB) Close() {
	if d.conn != nil {
		d.conn.Close()
	}
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type row struct {
	id       string
	isFolder bool
}

// resolve walks p from the root one component at a time.
func resolve(ctx context.Context, q querier, p string) (row, error) {
	p = pathutil.Canonical(p)
	cur := row{id: RootID, isFolder: true}
	if p == "/" {
		return cur, nil
	}
	if !strings.HasPrefix(p, "/") {
		return row{}, fmt.Errorf("%w: %s is not absolute", ErrNotFound, p)
	}
	for _, name := range strings.Split(p[1:], "/") {
		if !cur.isFolder {
			return row{}, fmt.Errorf("%w: %s", ErrNotFolder, p)
		}
		var next row
		err := q.QueryRowContext(ctx,
			"SELECT id, is_folder FROM nodes WHERE parent_id = ? AND name = ?",
			cur.id, name,
		).Scan(&next.id, &next.isFolder)
		if errors.Is(err, sql.ErrNoRows) {
			return row{}, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		if err != nil {
			return row{}, err
		}
		cur = next
	}
	return cur, nil
}

// ReadDirectory returns the subtree under root. The root is expanded.
func (d *DB) ReadDirectory(ctx context.Context, root string) ([]*tree.Node, error) {
	root = pathutil.Canonical(root)
	top, err := resolve(ctx, d.conn, root)
	if err != nil {
		return nil, err
	}
	if !top.isFolder {
		return nil, fmt.Errorf("%w: %s", ErrNotFolder, root)
	}

	rows, err := d.conn.QueryContext(ctx, `
	WITH RECURSIVE sub(id) AS (
		SELECT ?
		UNION ALL
		SELECT n.id FROM nodes n JOIN sub ON n.parent_id = sub.id
	)
	SELECT n.id, COALESCE(n.parent_id, ''), n.name, n.is_folder, n.size, n.mod_time
	FROM nodes n JOIN sub ON n.id = sub.id
	ORDER BY n.is_folder DESC, n.name COLLATE NOCASE`, top.id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*tree.Node)
	parentOf := make(map[string]string)
	var order []string
	for rows.Next() {
		var (
			id, parentID, name string
			isFolder           bool
			size, modTime      int64
		)
		if err := rows.Scan(&id, &parentID, &name, &isFolder, &size, &modTime); err != nil {
			return nil, err
		}
		n := &tree.Node{Key: id, Name: name, IsFolder: isFolder, Size: size}
		if modTime != 0 {
			n.ModTime = time.Unix(0, modTime)
		}
		byID[id] = n
		parentOf[id] = parentID
		order = append(order, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rootNode := byID[top.id]
	if rootNode == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, root)
	}
	rootNode.Path = root
	rootNode.Name = pathutil.Base(root)
	rootNode.Expanded = true

	for _, id := range order {
		if id == top.id {
			continue
		}
		if parent := byID[parentOf[id]]; parent != nil {
			parent.Children = append(parent.Children, byID[id])
		}
	}
	tree.Walk(rootNode, func(n *tree.Node, _ int) bool {
		for _, c := range n.Children {
			c.Path = pathutil.Join(n.Path, c.Name)
		}
		return true
	})

	debug.Log(debug.STORE, "read %q: %d nodes", root, len(byID))
	return []*tree.Node{rootNode}, nil
}

// Move reparents and renames from in one transaction.
func (d *DB) Move(ctx context.Context, from tree.Item, to gateway.MoveSpec) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	src, err := resolve(ctx, tx, from.Path)
	if err != nil {
		return err
	}
	if src.id == RootID {
		return fmt.Errorf("%w: cannot move the root", ErrNotFound)
	}
	if from.Key != "" && from.Key != src.id {
		return fmt.Errorf("%w: %s", ErrStale, from.Path)
	}

	dstPath := pathutil.Canonical(to.Path)
	name := pathutil.Base(dstPath)
	if !pathutil.ValidName(name) {
		return fmt.Errorf("invalid name %q", name)
	}
	parent, err := resolve(ctx, tx, pathutil.ParentPath(dstPath, 1))
	if err != nil {
		return err
	}
	if !parent.isFolder {
		return fmt.Errorf("%w: %s", ErrNotFolder, pathutil.ParentPath(dstPath, 1))
	}

	var taken int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM nodes WHERE parent_id = ? AND name = ? AND id != ?",
		parent.id, name, src.id,
	).Scan(&taken); err != nil {
		return err
	}
	if taken > 0 {
		return fmt.Errorf("%w: %s", ErrExists, dstPath)
	}

	if err := checkCycle(ctx, tx, src.id, parent.id); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE nodes SET parent_id = ?, name = ? WHERE id = ?",
		parent.id, name, src.id,
	); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	debug.Log(debug.STORE, "move %s: %q -> %q", src.id, from.Path, dstPath)
	return nil
}

// checkCycle fails when newParent is id or lies below it.
func checkCycle(ctx context.Context, q querier, id, newParent string) error {
	for cur := newParent; cur != ""; {
		if cur == id {
			return ErrCycle
		}
		var parent sql.NullString
		if err := q.QueryRowContext(ctx, "SELECT parent_id FROM nodes WHERE id = ?", cur).Scan(&parent); err != nil {
			return err
		}
		cur = parent.String
	}
	return nil
}

// Create adds a node at p and returns its id. The parent must exist.
func (d *DB) Create(ctx context.Context, p string, isFolder bool, size int64, modTime time.Time) (string, error) {
	p = pathutil.Canonical(p)
	parent, err := resolve(ctx, d.conn, pathutil.ParentPath(p, 1))
	if err != nil {
		return "", err
	}
	if !parent.isFolder {
		return "", fmt.Errorf("%w: %s", ErrNotFolder, pathutil.ParentPath(p, 1))
	}
	name := pathutil.Base(p)
	if !pathutil.ValidName(name) {
		return "", fmt.Errorf("invalid name %q", name)
	}

	var mod int64
	if !modTime.IsZero() {
		mod = modTime.UnixNano()
	}
	id := uuid.NewString()
	_, err = d.conn.ExecContext(ctx,
		"INSERT INTO nodes (id, parent_id, name, is_folder, size, mod_time) VALUES (?, ?, ?, ?, ?, ?)",
		id, parent.id, name, isFolder, size, mod,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return "", fmt.Errorf("%w: %s", ErrExists, p)
		}
		return "", err
	}
	return id, nil
}

// MkdirAll creates p and any missing parents as folders.
func (d *DB) MkdirAll(ctx context.Context, p string) error {
	p = pathutil.Canonical(p)
	if p == "/" {
		return nil
	}
	existing, err := resolve(ctx, d.conn, p)
	if err == nil {
		if !existing.isFolder {
			return fmt.Errorf("%w: %s", ErrNotFolder, p)
		}
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	if err := d.MkdirAll(ctx, pathutil.ParentPath(p, 1)); err != nil {
		return err
	}
	_, err = d.Create(ctx, p, true, 0, time.Time{})
	return err
}

// Import copies the snapshot of srcRoot read from src under dstRoot and
// returns the number of nodes created.
func (d *DB) Import(ctx context.Context, src gateway.Driver, srcRoot, dstRoot string) (int, error) {
	nodes, err := src.ReadDirectory(ctx, srcRoot)
	if err != nil {
		return 0, err
	}
	if len(nodes) == 0 {
		return 0, nil
	}
	if err := d.MkdirAll(ctx, dstRoot); err != nil {
		return 0, err
	}

	top := nodes[0]
	base := pathutil.Canonical(top.Path)
	created := 0
	var walkErr error
	tree.Walk(top, func(n *tree.Node, _ int) bool {
		if walkErr != nil {
			return false
		}
		if n == top {
			return true
		}
		rel := strings.TrimPrefix(pathutil.Canonical(n.Path), base)
		dst := pathutil.Join(dstRoot, rel)
		if _, err := d.Create(ctx, dst, n.IsFolder, n.Size, n.ModTime); err != nil {
			walkErr = fmt.Errorf("import %s: %w", n.Path, err)
			return false
		}
		created++
		return true
	})
	debug.Log(debug.STORE, "import %q from %s into %q: %d nodes", srcRoot, src.Name(), dstRoot, created)
	return created, walkErr
}
