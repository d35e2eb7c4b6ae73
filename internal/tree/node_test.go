package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Node {
	return NewFolder("/proj",
		NewFile("/proj/a.txt"),
		NewFolder("/proj/b",
			NewFile("/proj/b/x.go"),
			NewFolder("/proj/b/c",
				NewFile("/proj/b/c/y.go"),
			),
		),
		NewFile("/proj/z.md"),
	)
}

func TestNewNodesAreCanonical(t *testing.T) {
	n := NewFolder("/proj/b/")
	assert.Equal(t, "/proj/b", n.Path)
	assert.Equal(t, "/proj/b", n.Key)
	assert.Equal(t, "b", n.Name)
	assert.True(t, n.IsFolder)
}

func TestFindAndIndex(t *testing.T) {
	root := sample()

	n := Find(root, "/proj/b/c/y.go")
	require.NotNil(t, n)
	assert.Equal(t, "y.go", n.Name)
	assert.Nil(t, Find(root, "/nope"))

	idx := Index(root)
	assert.Len(t, idx, 7)
	assert.Same(t, n, idx["/proj/b/c/y.go"])
	assert.Equal(t, 7, Count(root))

	assert.Same(t, n, FindByPath(root, "/proj/b/c/y.go/"))
	assert.Nil(t, FindByPath(root, "/proj/bb"))
}

func TestParentAndContains(t *testing.T) {
	root := sample()
	b := Find(root, "/proj/b")
	c := Find(root, "/proj/b/c")

	assert.Same(t, b, Parent(root, "/proj/b/c"))
	assert.Same(t, root, Parent(root, "/proj/a.txt"))
	assert.Nil(t, Parent(root, "/proj"))

	assert.True(t, Contains(b, c))
	assert.True(t, Contains(b, b))
	assert.False(t, Contains(c, b))
}

func TestDetachAndInsert(t *testing.T) {
	root := sample()
	a := Detach(root, "/proj/a.txt")
	require.NotNil(t, a)
	assert.Len(t, root.Children, 2)

	z := Find(root, "/proj/z.md")
	require.True(t, InsertBefore(root, z, a))
	assert.Equal(t, []string{"b", "a.txt", "z.md"}, names(root.Children))

	x := Detach(root, "/proj/b/x.go")
	require.True(t, InsertAfter(root, z, x))
	assert.Equal(t, []string{"b", "a.txt", "z.md", "x.go"}, names(root.Children))

	assert.False(t, InsertAfter(root, root, a), "root has no siblings")
	assert.Nil(t, Detach(root, "/proj"))
}

func TestRebase(t *testing.T) {
	root := sample()
	b := Find(root, "/proj/b")

	Rebase(b, "/proj/d")

	assert.Equal(t, "/proj/d", b.Path)
	assert.Equal(t, "d", b.Name)
	assert.Equal(t, "/proj/d/x.go", Find(root, "/proj/b/x.go").Path)
	assert.Equal(t, "/proj/d/c/y.go", Find(root, "/proj/b/c/y.go").Path)
	assert.Equal(t, "/proj/b", b.Key, "keys survive a rebase")
}

func TestHitModes(t *testing.T) {
	assert.True(t, AllHitModes.Has(Over))
	assert.True(t, SiblingHitModes.Has(Before))
	assert.False(t, SiblingHitModes.Has(Over))
	assert.False(t, HitModes(Over).Has(0))
	assert.Equal(t, "{before,after}", SiblingHitModes.String())

	m, ok := ParseHitMode("Into")
	assert.True(t, ok)
	assert.Equal(t, Over, m)
	_, ok = ParseHitMode("sideways")
	assert.False(t, ok)
}

func names(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}
