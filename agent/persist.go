package agent

import (
	"bytes"
	"os"
	"slices"

	"github.com/gorgonia/fluxzero/fluid"
	"github.com/gorgonia/fluxzero/game"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const metaVersion = 1

// ErrMeta is returned when the metadata saved next to a tree is unreadable or
// does not fit the tree.
var ErrMeta = errors.New("bad agent metadata")

// meta is what the agent knows beyond the tree itself: which node is the root
// of which position, and which move each child stands for.
type meta struct {
	Version int                          `yaml:"version"`
	Roots   map[string]fluid.NodeID      `yaml:"roots"`
	Moves   map[fluid.NodeID]game.Single `yaml:"moves"`
}

// MetaPath is where Save puts the metadata of a tree saved to filename.
func MetaPath(filename string) string { return filename + ".meta" }

// Save writes the tree to filename and the agent's metadata to MetaPath(filename).
func (a *Agent) Save(filename string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.tree.Save(filename); err != nil {
		return err
	}

	m := meta{
		Version: metaVersion,
		Roots:   make(map[string]fluid.NodeID, a.index.Len()),
		Moves:   a.moves,
	}
	a.index.Scan(func(key string, root fluid.NodeID) bool {
		m.Roots[key] = root
		return true
	})
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return errors.Wrap(err, "encode agent metadata")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(err, "encode agent metadata")
	}

	path := MetaPath(filename)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return errors.Wrapf(err, "write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "rename %s", tmp)
	}
	a.log.Info().Str("path", filename).Int("positions", len(m.Roots)).Int("nodes", a.tree.Len()).Msg("agent saved")
	return nil
}

// Load replaces the tree with the one saved in filename, and the metadata with
// the one in MetaPath(filename).
//
// A missing metadata file is not an error: the tree is loaded and every
// position will get a fresh root. Metadata that is unreadable, or does not fit
// the saved tree, fails the load with ErrMeta before the tree is touched.
func (a *Agent) Load(filename string) error {
	m, err := readMeta(MetaPath(filename))
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	var verify func([]fluid.Node) error
	if m != nil {
		verify = m.fits
	}
	if err := a.tree.LoadVerified(filename, verify); err != nil {
		return err
	}
	a.index.Clear()
	a.moves = make(map[fluid.NodeID]game.Single)
	if m == nil {
		a.log.Warn().Str("path", MetaPath(filename)).Msg("no agent metadata; positions will be searched from scratch")
		return nil
	}
	for key, root := range m.Roots {
		a.index.Set(key, root)
	}
	for kid, move := range m.Moves {
		a.moves[kid] = move
	}
	a.log.Info().Str("path", filename).Int("positions", a.index.Len()).Int("nodes", a.tree.Len()).Msg("agent loaded")
	return nil
}

// fits checks m against the nodes of a saved tree: every position root is a
// root, and every node with a move is a child of one of them.
func (m *meta) fits(nodes []fluid.Node) error {
	n := fluid.NodeID(len(nodes))
	roots := make(map[fluid.NodeID]bool, len(m.Roots))
	for key, root := range m.Roots {
		switch {
		case root < 0 || root >= n:
			return errors.Wrapf(ErrMeta, "root %d of %q out of range (%d nodes)", root, key, n)
		case nodes[root].Parent != fluid.None:
			return errors.Wrapf(ErrMeta, "root %d of %q has parent %d", root, key, nodes[root].Parent)
		}
		roots[root] = true
	}
	for kid := range m.Moves {
		if kid < 0 || kid >= n {
			return errors.Wrapf(ErrMeta, "move of node %d out of range (%d nodes)", kid, n)
		}
		if parent := nodes[kid].Parent; !roots[parent] || !slices.Contains(nodes[parent].Children, kid) {
			return errors.Wrapf(ErrMeta, "node %d with a move is not the child of a position root", kid)
		}
	}
	return nil
}

// readMeta returns nil, nil if there is no file at path.
func readMeta(path string) (*meta, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(ErrMeta, "open %s: %v", path, err)
	}
	defer f.Close()

	var m meta
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, errors.Wrapf(ErrMeta, "decode %s: %v", path, err)
	}
	if m.Version != metaVersion {
		return nil, errors.Wrapf(ErrMeta, "%s has version %d, want %d", path, m.Version, metaVersion)
	}
	return &m, nil
}
