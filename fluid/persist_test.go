package fluid

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree(t *testing.T) *Tree {
	tree := New(WithSeed(99))
	for i := 0; i < 3; i++ {
		kid, err := tree.CreateChild(0)
		require.NoError(t, err)
		for j := 0; j < 2; j++ {
			_, err := tree.CreateChild(kid)
			require.NoError(t, err)
		}
	}
	_, err := tree.CreateNode(2) // detached
	require.NoError(t, err)
	for i := 0; i < 40; i++ {
		leaf, err := tree.SelectLeaf(0, 1)
		require.NoError(t, err)
		require.NoError(t, tree.Backpropagate(leaf, float64(i%3)/2, 0.2))
	}
	return tree
}

func TestTree_SaveLoad(t *testing.T) {
	tree := sampleTree(t)
	filename := filepath.Join(t.TempDir(), "tree.flux")
	require.NoError(t, tree.Save(filename))

	tmps, err := filepath.Glob(filename + ".*.tmp")
	require.NoError(t, err)
	assert.Empty(t, tmps, "no temporary file is left behind")

	loaded := New()
	require.NoError(t, loaded.Load(filename))
	if diff := cmp.Diff(tree.Snapshot(), loaded.Snapshot()); diff != "" {
		t.Errorf("loaded tree differs (-saved +loaded):\n%s", diff)
	}

	// a loaded tree keeps growing from where the saved one stopped
	id, err := loaded.CreateNode(0)
	require.NoError(t, err)
	assert.Equal(t, NodeID(tree.Len()), id)
}

func TestTree_SaveOverwrites(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "tree.flux")
	require.NoError(t, sampleTree(t).Save(filename))

	small := New()
	require.NoError(t, small.Save(filename))

	loaded := sampleTree(t)
	require.NoError(t, loaded.Load(filename))
	assert.Equal(t, 1, loaded.Len())
}

func TestTree_SaveConcurrent(t *testing.T) {
	tree := New()
	for i := 0; i < 20000; i++ {
		_, err := tree.CreateChild(NodeID(i / 4))
		require.NoError(t, err)
	}
	dir := t.TempDir()
	filename := filepath.Join(dir, "tree.flux")

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < cap(errs); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- tree.Save(filename)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	loaded := New()
	require.NoError(t, loaded.Load(filename))
	assert.Equal(t, tree.Len(), loaded.Len())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "only the saved tree is left")
}

func TestTree_SaveFailure(t *testing.T) {
	tree := New()
	err := tree.Save(filepath.Join(t.TempDir(), "no", "such", "dir", "tree.flux"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIO), "%v", err)
	assert.False(t, errors.Is(err, ErrLoad))

	var perr *PersistError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "save", perr.Op)
}

func TestTree_LoadFailures(t *testing.T) {
	dir := t.TempDir()

	var good bytes.Buffer
	_, err := sampleTree(t).WriteTo(&good)
	require.NoError(t, err)
	data := good.Bytes()

	write := func(name string, b []byte) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, b, 0644))
		return p
	}

	cases := []struct {
		name string
		path string
		is   error
	}{
		{"missing", filepath.Join(dir, "missing.flux"), nil},
		{"empty", write("empty.flux", nil), ErrBadMagic},
		{"bad magic", write("magic.flux", append([]byte("XLUF"), data[4:]...)), ErrBadMagic},
		{"truncated header", write("header.flux", data[:6]), ErrCorrupt},
		{"truncated body", write("body.flux", data[:len(data)-3]), ErrCorrupt},
		{"zero nodes", write("zero.flux", []byte("FLUX\x00\x00\x00\x00")), ErrCorrupt},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tree := New()
			kid, _ := tree.CreateChild(0)
			require.NoError(t, tree.Backpropagate(kid, 1, 0.5))
			before := tree.Snapshot()

			err := tree.Load(c.path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrLoad), "%v", err)
			if c.is != nil {
				assert.True(t, errors.Is(err, c.is), "%v", err)
			}
			if diff := cmp.Diff(before, tree.Snapshot()); diff != "" {
				t.Errorf("failed load changed the tree:\n%s", diff)
			}
		})
	}
}

func TestDecodeInconsistent(t *testing.T) {
	cases := map[string][]Node{
		"id mismatch":    {{ID: 0, Parent: None}, {ID: 5, Parent: 0}},
		"parent range":   {{ID: 0, Parent: None}, {ID: 1, Parent: 7}},
		"negative visit": {{ID: 0, Parent: None, Visits: -1}},
		"child range":    {{ID: 0, Parent: None, Children: []NodeID{3}}},
		"rootless":       {{ID: 0, Parent: 1}, {ID: 1, Parent: None}},
	}
	for name, nodes := range cases {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			_, err := Encode(&buf, nodes)
			require.NoError(t, err)
			_, err = Decode(&buf)
			assert.True(t, errors.Is(err, ErrCorrupt), "%v", err)
		})
	}
}

// layoutNodes and layoutBytes are the same store, as values and as the bytes
// written field by field.
var layoutNodes = []Node{
	{ID: 0, Visits: 7, Conductivity: 0.625, Parent: None, Children: []NodeID{1, 2}},
	{ID: 1, Visits: 5, Conductivity: 0.75, Parent: 0},
	{ID: 2, Visits: 2, Conductivity: 0.125, Parent: 0, Children: []NodeID{1}},
}

func layoutBytes() []byte {
	b := []byte("FLUX")
	b = binary.NativeEndian.AppendUint32(b, 3)
	for _, n := range []struct {
		id, visits int32
		cond       float64
		parent     int32
		kids       []int32
	}{
		{0, 7, 0.625, -1, []int32{1, 2}},
		{1, 5, 0.75, 0, nil},
		{2, 2, 0.125, 0, []int32{1}},
	} {
		b = binary.NativeEndian.AppendUint32(b, uint32(n.id))
		b = binary.NativeEndian.AppendUint32(b, uint32(n.visits))
		b = binary.NativeEndian.AppendUint64(b, math.Float64bits(n.cond))
		b = binary.NativeEndian.AppendUint32(b, uint32(n.parent))
		b = binary.NativeEndian.AppendUint32(b, uint32(len(n.kids)))
		for _, kid := range n.kids {
			b = binary.NativeEndian.AppendUint32(b, uint32(kid))
		}
	}
	return b
}

func TestEncodeLayout(t *testing.T) {
	var buf bytes.Buffer
	n, err := Encode(&buf, layoutNodes)
	require.NoError(t, err)
	want := layoutBytes()
	assert.Equal(t, int64(len(want)), n)
	assert.Equal(t, want, buf.Bytes())
}

func TestDecodeLayout(t *testing.T) {
	nodes, err := Decode(bytes.NewReader(layoutBytes()))
	require.NoError(t, err)
	if diff := cmp.Diff(layoutNodes, nodes); diff != "" {
		t.Errorf("decoded nodes differ (-want +got):\n%s", diff)
	}
}

func TestTree_LoadVerified(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "tree.flux")
	require.NoError(t, os.WriteFile(filename, layoutBytes(), 0644))

	tree := New()
	kid, err := tree.CreateChild(0)
	require.NoError(t, err)
	before := tree.Snapshot()

	refuse := errors.New("refused")
	var seen int
	err = tree.LoadVerified(filename, func(nodes []Node) error {
		seen = len(nodes)
		return refuse
	})
	assert.Equal(t, 3, seen)
	assert.True(t, errors.Is(err, ErrLoad), "%v", err)
	assert.True(t, errors.Is(err, refuse), "%v", err)
	if diff := cmp.Diff(before, tree.Snapshot()); diff != "" {
		t.Errorf("refused load changed the tree:\n%s", diff)
	}

	require.NoError(t, tree.LoadVerified(filename, func([]Node) error { return nil }))
	assert.Equal(t, 3, tree.Len())
	assert.Equal(t, int32(5), tree.Visits(kid))
}

func TestTree_LoadClosed(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "tree.flux")
	require.NoError(t, New().Save(filename))

	tree := New()
	require.NoError(t, tree.Close())
	err := tree.Load(filename)
	assert.True(t, errors.Is(err, ErrLoad))
	assert.True(t, errors.Is(err, ErrClosed))
	assert.True(t, errors.Is(tree.Save(filename), ErrClosed))
}
