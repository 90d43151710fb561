package fluid

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidParent is returned when a parent id is outside the node store.
	ErrInvalidParent = errors.New("invalid parent")
	// ErrInvalidChild is returned when a child id is outside the node store.
	ErrInvalidChild = errors.New("invalid child")
	// ErrInvalidNode is returned when any other id is outside the node store.
	ErrInvalidNode = errors.New("invalid node")

	// ErrIO is matched by every failed Save.
	ErrIO = errors.New("tree i/o failed")
	// ErrLoad is matched by every failed Load. The tree is left as it was.
	ErrLoad = errors.New("tree load failed")
	// ErrBadMagic means the data does not start with "FLUX".
	ErrBadMagic = errors.New("bad magic")
	// ErrCorrupt means the data is truncated or describes an inconsistent store.
	ErrCorrupt = errors.New("corrupt tree data")

	// ErrCycle is returned when a descent or an ascent visits more nodes than the
	// store holds.
	ErrCycle = errors.New("cycle in tree")
	// ErrPolicy is returned when the selection policy breaks its contract.
	ErrPolicy = errors.New("selection policy failed")
	// ErrClosed is returned by every operation on a closed tree.
	ErrClosed = errors.New("tree is closed")
)

// PersistError records a failed Save or Load along with the path involved.
type PersistError struct {
	Op   string // "save" or "load"
	Path string
	Err  error
}

func (e *PersistError) Error() string { return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err) }

func (e *PersistError) Unwrap() error { return e.Err }

// Is makes a failed save match ErrIO and a failed load match ErrLoad.
func (e *PersistError) Is(target error) bool {
	switch e.Op {
	case "save":
		return target == ErrIO
	case "load":
		return target == ErrLoad
	}
	return false
}
