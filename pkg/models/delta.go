package models

import (
	"fmt"

	"github.com/samber/lo"
)

// DeltaOp is a producer list operation
type DeltaOp int

const (
	// DeltaAppend adds a producer to the tail of the list
	DeltaAppend DeltaOp = iota
	// DeltaRemove removes every occurrence of a producer
	DeltaRemove
	// DeltaReplace swaps a producer in place
	DeltaReplace
)

// String returns the operation name
func (o DeltaOp) String() string {
	switch o {
	case DeltaAppend:
		return "append"
	case DeltaRemove:
		return "remove"
	case DeltaReplace:
		return "replace"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Delta is one edit of a scope's producer list
type Delta struct {
	Op DeltaOp
	// Target is the producer removed or replaced
	Target Node
	// Producer is the producer appended or inserted
	Producer Node
}

// Append adds p to the tail of the list
func Append(p Node) Delta {
	return Delta{Op: DeltaAppend, Producer: p}
}

// Remove removes every occurrence of p
func Remove(p Node) Delta {
	return Delta{Op: DeltaRemove, Target: p}
}

// Replace puts replacement where old was; if old is absent the replacement is appended
func Replace(old, replacement Node) Delta {
	return Delta{Op: DeltaReplace, Target: old, Producer: replacement}
}

// Validate checks the delta carries the nodes its operation needs
func (d Delta) Validate() error {
	switch d.Op {
	case DeltaAppend:
		if d.Producer == nil {
			return fmt.Errorf("%w: append without producer", ErrInvalidDelta)
		}
	case DeltaRemove:
		if d.Target == nil {
			return fmt.Errorf("%w: remove without target", ErrInvalidDelta)
		}
	case DeltaReplace:
		if d.Target == nil || d.Producer == nil {
			return fmt.Errorf("%w: replace needs target and producer", ErrInvalidDelta)
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidDelta, d.Op)
	}

	return nil
}

// Nodes returns the nodes referenced by the delta
func (d Delta) Nodes() []Node {
	return lo.Filter([]Node{d.Target, d.Producer}, func(n Node, _ int) bool { return n != nil })
}

// String describes the delta for logs and diagnostics
func (d Delta) String() string {
	switch d.Op {
	case DeltaAppend:
		return fmt.Sprintf("append %s", d.Producer.ID())
	case DeltaRemove:
		return fmt.Sprintf("remove %s", d.Target.ID())
	case DeltaReplace:
		return fmt.Sprintf("replace %s with %s", d.Target.ID(), d.Producer.ID())
	default:
		return d.Op.String()
	}
}

// ApplyDeltas applies deltas in order to a copy of base. Removing or replacing a producer
// that is not in the list is not an error; each such miss is returned as an
// ErrUnknownShiftTarget warning and a replace falls back to appending.
func ApplyDeltas(base []Node, deltas []Delta) ([]Node, []error) {
	list := append([]Node(nil), base...)

	var warnings []error
	for _, d := range deltas {
		switch d.Op {
		case DeltaAppend:
			list = append(list, d.Producer)
		case DeltaRemove:
			if indexOf(list, d.Target.ID()) < 0 {
				warnings = append(warnings, fmt.Errorf("%w: %s", ErrUnknownShiftTarget, d))
				continue
			}
			list = removeAll(list, d.Target.ID())
		case DeltaReplace:
			idx := indexOf(list, d.Target.ID())
			if idx < 0 {
				warnings = append(warnings, fmt.Errorf("%w: %s, appending instead", ErrUnknownShiftTarget, d))
				list = append(list, d.Producer)
				continue
			}
			list = removeAll(list, d.Target.ID())
			list = append(list[:idx], append([]Node{d.Producer}, list[idx:]...)...)
		}
	}

	return list, warnings
}

func indexOf(list []Node, id string) int {
	_, idx, found := lo.FindIndexOf(list, func(n Node) bool { return n.ID() == id })
	if !found {
		return -1
	}

	return idx
}

func removeAll(list []Node, id string) []Node {
	return lo.Reject(list, func(n Node, _ int) bool { return n.ID() == id })
}
