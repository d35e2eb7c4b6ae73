package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/justyntemme/filespanel/internal/gateway"
	"github.com/justyntemme/filespanel/internal/tree"
)

func TestSkipped(t *testing.T) {
	l := NewLocal(".git", "node_modules")

	testCases := []struct {
		rel      string
		expected bool
	}{
		{".git", true},
		{".git/HEAD", true},
		{"web/node_modules/react", true},
		{"src/main.go", false},
		{".gitignore", false},
		{"", false},
	}

	for _, tc := range testCases {
		result := l.skipped(tc.rel)
		if result != tc.expected {
			t.Errorf("skipped(%q): expected %v, got %v", tc.rel, tc.expected, result)
		}
	}
}

func mkTree(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()

	dirs := []string{"dir1", "dir1/sub", "dir2", ".hidden_dir"}
	files := []string{"file1.txt", "file2.go", ".hidden_file", "dir1/nested.txt", "dir1/sub/deep.txt"}

	for _, d := range dirs {
		if err := os.Mkdir(filepath.Join(tmpDir, d), 0755); err != nil {
			t.Fatalf("failed to create dir %s: %v", d, err)
		}
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(tmpDir, f), []byte("test content"), 0644); err != nil {
			t.Fatalf("failed to create file %s: %v", f, err)
		}
	}
	return tmpDir
}

func TestReadDirectory(t *testing.T) {
	tmpDir := mkTree(t)
	root := toCanonical(tmpDir)

	nodes, err := NewLocal().ReadDirectory(context.Background(), root)
	if err != nil {
		t.Fatalf("ReadDirectory returned error: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("expected 1 root node, got %d", len(nodes))
	}

	top := nodes[0]
	if top.Path != root || !top.IsFolder || !top.Expanded {
		t.Errorf("unexpected root: %+v", top)
	}

	// 4 dirs + 5 files + root
	if got := tree.Count(top); got != 10 {
		t.Errorf("expected 10 nodes, got %d", got)
	}

	deep := tree.Find(top, root+"/dir1/sub/deep.txt")
	if deep == nil {
		t.Fatal("missing deep.txt")
	}
	if deep.Size != int64(len("test content")) {
		t.Errorf("deep.txt size: expected %d, got %d", len("test content"), deep.Size)
	}
	if parent := tree.Parent(top, deep.Key); parent == nil || parent.Path != root+"/dir1/sub" {
		t.Errorf("deep.txt has wrong parent: %+v", parent)
	}

	// Folders first, then case-insensitive names
	var names []string
	for _, c := range top.Children {
		names = append(names, c.Name)
	}
	expected := []string{".hidden_dir", "dir1", "dir2", ".hidden_file", "file1.txt", "file2.go"}
	if len(names) != len(expected) {
		t.Fatalf("expected children %v, got %v", expected, names)
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("child %d: expected %q, got %q", i, expected[i], names[i])
		}
	}
}

func TestReadDirectory_Ignore(t *testing.T) {
	tmpDir := mkTree(t)
	root := toCanonical(tmpDir)

	nodes, err := NewLocal("dir1").ReadDirectory(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if tree.Find(nodes[0], root+"/dir1") != nil || tree.Find(nodes[0], root+"/dir1/nested.txt") != nil {
		t.Error("ignored directory should not be reported")
	}
}

func TestReadDirectory_NonExistent(t *testing.T) {
	_, err := NewLocal().ReadDirectory(context.Background(), "/nonexistent/path/that/does/not/exist")
	if err == nil {
		t.Error("expected error for nonexistent path")
	}
}

func TestReadDirectory_NotADirectory(t *testing.T) {
	tmpDir := mkTree(t)
	_, err := NewLocal().ReadDirectory(context.Background(), toCanonical(filepath.Join(tmpDir, "file1.txt")))
	if err == nil {
		t.Error("expected error for a file root")
	}
}

func TestReadDirectory_SymlinkHandling(t *testing.T) {
	tmpDir := t.TempDir()

	realDir := filepath.Join(tmpDir, "realdir")
	if err := os.Mkdir(realDir, 0755); err != nil {
		t.Fatal(err)
	}
	realFile := filepath.Join(tmpDir, "realfile.txt")
	if err := os.WriteFile(realFile, []byte("real content"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(realFile, filepath.Join(tmpDir, "linkfile.txt")); err != nil {
		t.Skipf("cannot create symlinks: %v", err)
	}
	if err := os.Symlink(filepath.Join(tmpDir, "missing"), filepath.Join(tmpDir, "broken")); err != nil {
		t.Fatal(err)
	}

	root := toCanonical(tmpDir)
	nodes, err := NewLocal().ReadDirectory(context.Background(), root)
	if err != nil {
		t.Fatalf("ReadDirectory returned error: %v", err)
	}

	if n := tree.Find(nodes[0], root+"/linkfile.txt"); n == nil || n.IsFolder {
		t.Error("symlink to file should appear as a file")
	}
	if n := tree.Find(nodes[0], root+"/broken"); n == nil {
		t.Error("broken symlink should still be listed")
	}
}

func TestMove(t *testing.T) {
	tmpDir := mkTree(t)
	root := toCanonical(tmpDir)
	l := NewLocal()
	ctx := context.Background()

	from := tree.Item{Key: root + "/file1.txt", Path: root + "/file1.txt", Name: "file1.txt"}
	if err := l.Move(ctx, from, gateway.MoveSpec{Path: root + "/dir2/file1.txt"}); err != nil {
		t.Fatalf("Move returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "dir2", "file1.txt")); err != nil {
		t.Errorf("moved file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "file1.txt")); !os.IsNotExist(err) {
		t.Error("source should be gone")
	}

	// Folder rename carries its contents
	dir := tree.Item{Key: root + "/dir1", Path: root + "/dir1", Name: "dir1", IsFolder: true}
	if err := l.Move(ctx, dir, gateway.MoveSpec{Path: root + "/renamed"}); err != nil {
		t.Fatalf("folder Move returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "renamed", "sub", "deep.txt")); err != nil {
		t.Errorf("folder contents missing after rename: %v", err)
	}
}

func TestMove_RefusesExistingDestination(t *testing.T) {
	tmpDir := mkTree(t)
	root := toCanonical(tmpDir)

	from := tree.Item{Path: root + "/file1.txt"}
	err := NewLocal().Move(context.Background(), from, gateway.MoveSpec{Path: root + "/file2.go"})
	if !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(tmpDir, "file2.go"))
	if string(data) != "test content" {
		t.Error("destination was modified")
	}
}

func TestMove_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewLocal().Move(ctx, tree.Item{Path: "/a"}, gateway.MoveSpec{Path: "/b"}); err == nil {
		t.Error("expected context error")
	}
}
