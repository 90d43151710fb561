package fluid

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// The on-disk layout is fixed-width and uses the native byte order:
//
//	magic        "FLUX"
//	node_count   int32
//	node_count times:
//		id            int32
//		visits        int32
//		conductivity  float64
//		parent        int32 (-1 for a root)
//		child_count   int32
//		children      child_count × int32
const (
	magic          = "FLUX"
	headerSize     = 8
	nodeHeaderSize = 24
)

var order = binary.NativeEndian

// Encode writes nodes in the fluid tree format. It returns the number of bytes
// written.
func Encode(w io.Writer, nodes []Node) (int64, error) {
	bw := bufio.NewWriter(w)
	var written int64
	write := func(p []byte) error {
		n, err := bw.Write(p)
		written += int64(n)
		return err
	}

	header := make([]byte, headerSize)
	copy(header, magic)
	order.PutUint32(header[4:], uint32(len(nodes)))
	if err := write(header); err != nil {
		return written, errors.Wrap(err, "write header")
	}

	buf := make([]byte, nodeHeaderSize, 256)
	for i := range nodes {
		n := &nodes[i]
		buf = buf[:nodeHeaderSize]
		order.PutUint32(buf[0:], uint32(n.ID))
		order.PutUint32(buf[4:], uint32(n.Visits))
		order.PutUint64(buf[8:], math.Float64bits(n.Conductivity))
		order.PutUint32(buf[16:], uint32(n.Parent))
		order.PutUint32(buf[20:], uint32(len(n.Children)))
		for _, kid := range n.Children {
			buf = order.AppendUint32(buf, uint32(kid))
		}
		if err := write(buf); err != nil {
			return written, errors.Wrapf(err, "write node %d", n.ID)
		}
	}
	if err := bw.Flush(); err != nil {
		return written, errors.Wrap(err, "flush")
	}
	return written, nil
}

// Decode reads a whole node store in the fluid tree format and checks that it
// is consistent: ids match positions, every parent and child refers to a node
// in the store, and node 0 is a root. Nothing is returned unless all of it is.
func Decode(r io.Reader) ([]Node, error) {
	br := bufio.NewReader(r)
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(br, header); err != nil {
		if string(header[:4]) != magic {
			return nil, errors.WithStack(ErrBadMagic)
		}
		return nil, errors.Wrap(ErrCorrupt, "truncated header")
	}
	if string(header[:4]) != magic {
		return nil, errors.Wrapf(ErrBadMagic, "got %q", header[:4])
	}
	count := int32(order.Uint32(header[4:]))
	if count < 1 {
		return nil, errors.Wrapf(ErrCorrupt, "node count %d", count)
	}

	nodes := make([]Node, 0, min(int(count), 1<<16))
	buf := make([]byte, nodeHeaderSize)
	for i := int32(0); i < count; i++ {
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, errors.Wrapf(ErrCorrupt, "truncated at node %d of %d", i, count)
		}
		n := Node{
			ID:           NodeID(int32(order.Uint32(buf[0:]))),
			Visits:       int32(order.Uint32(buf[4:])),
			Conductivity: math.Float64frombits(order.Uint64(buf[8:])),
			Parent:       NodeID(int32(order.Uint32(buf[16:]))),
		}
		kids := int32(order.Uint32(buf[20:]))

		switch {
		case n.ID != NodeID(i):
			return nil, errors.Wrapf(ErrCorrupt, "node at position %d has id %d", i, n.ID)
		case n.Visits < 0:
			return nil, errors.Wrapf(ErrCorrupt, "node %d has %d visits", i, n.Visits)
		case n.Parent < None || int32(n.Parent) >= count:
			return nil, errors.Wrapf(ErrCorrupt, "node %d has parent %d", i, n.Parent)
		case kids < 0:
			return nil, errors.Wrapf(ErrCorrupt, "node %d has %d children", i, kids)
		case i == 0 && n.Parent != None:
			return nil, errors.Wrapf(ErrCorrupt, "node 0 has parent %d", n.Parent)
		}

		if kids > 0 {
			n.Children = make([]NodeID, 0, min(int(kids), 1024))
		}
		for j := int32(0); j < kids; j++ {
			if _, err := io.ReadFull(br, buf[:4]); err != nil {
				return nil, errors.Wrapf(ErrCorrupt, "truncated in children of node %d", i)
			}
			kid := NodeID(int32(order.Uint32(buf[:4])))
			if kid < 0 || int32(kid) >= count {
				return nil, errors.Wrapf(ErrCorrupt, "node %d has child %d", i, kid)
			}
			n.Children = append(n.Children, kid)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// WriteTo writes the tree in the fluid tree format. It implements io.WriterTo.
func (t *Tree) WriteTo(w io.Writer) (int64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if err := t.checkOpen(); err != nil {
		return 0, err
	}
	return Encode(w, t.nodes)
}

// Restore replaces the whole node store with one decoded from r. On error the
// tree is left untouched.
func (t *Tree) Restore(r io.Reader) error {
	nodes, err := Decode(r)
	if err != nil {
		return err
	}
	return t.replace(nodes)
}

func (t *Tree) replace(nodes []Node) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpen(); err != nil {
		return err
	}
	t.nodes = nodes
	return nil
}

// Save writes the tree to filename. The data goes to a temporary file next to
// filename which is then renamed over it, so a failed save never leaves a
// half-written tree behind. Save holds the tree's lock throughout, so saves
// never interleave with each other or with any other operation. Errors match
// ErrIO.
func (t *Tree) Save(filename string) (err error) {
	defer func() { t.metrics.Persisted("save", err) }()
	t.mu.Lock()
	defer t.mu.Unlock()
	if err = t.checkOpen(); err != nil {
		return err
	}

	f, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".*.tmp")
	if err != nil {
		return &PersistError{Op: "save", Path: filename, Err: errors.WithStack(err)}
	}
	tmp := f.Name()
	if _, err = Encode(f, t.nodes); err != nil {
		f.Close()
		os.Remove(tmp)
		return &PersistError{Op: "save", Path: filename, Err: err}
	}
	if err = f.Chmod(0644); err != nil {
		f.Close()
		os.Remove(tmp)
		return &PersistError{Op: "save", Path: filename, Err: errors.WithStack(err)}
	}
	if err = f.Close(); err != nil {
		os.Remove(tmp)
		return &PersistError{Op: "save", Path: filename, Err: errors.WithStack(err)}
	}
	if err = os.Rename(tmp, filename); err != nil {
		os.Remove(tmp)
		return &PersistError{Op: "save", Path: filename, Err: errors.WithStack(err)}
	}
	t.log.Debug().Str("path", filename).Int("nodes", len(t.nodes)).Msg("tree saved")
	return nil
}

// Load replaces the tree with the one stored in filename. A missing file, bad
// magic, or inconsistent contents are all errors that match ErrLoad, and leave
// the tree untouched.
func (t *Tree) Load(filename string) error { return t.LoadVerified(filename, nil) }

// LoadVerified is Load with an extra check: verify is handed the decoded nodes
// before they replace the tree, and an error from it fails the load, wrapped
// to match ErrLoad, with the tree untouched.
func (t *Tree) LoadVerified(filename string, verify func(nodes []Node) error) (err error) {
	defer func() { t.metrics.Persisted("load", err) }()
	f, err := os.Open(filename)
	if err != nil {
		return &PersistError{Op: "load", Path: filename, Err: err}
	}
	defer f.Close()

	nodes, err := Decode(f)
	if err == nil && verify != nil {
		err = verify(nodes)
	}
	if err == nil {
		err = t.replace(nodes)
	}
	if err != nil {
		return &PersistError{Op: "load", Path: filename, Err: err}
	}
	t.log.Debug().Str("path", filename).Int("nodes", len(nodes)).Msg("tree loaded")
	return nil
}
