package ir

import (
	"github.com/mooselang/moose/types"
	"golang.org/x/exp/slices"
)

// Computation is a mapping from operation name to operation, plus the
// placement table those operations are bound into (spec.md §3).
type Computation struct {
	Operations map[string]Op
	Placements map[string]types.Placement
}

// New returns an empty computation.
func New() *Computation {
	return &Computation{
		Operations: make(map[string]Op),
		Placements: make(map[string]types.Placement),
	}
}

// AddPlacement registers a placement under its own name. It fails if the
// name already exists.
func (c *Computation) AddPlacement(p types.Placement) error {
	if _, ok := c.Placements[p.Name()]; ok {
		return &DuplicateName{Name: p.Name()}
	}
	c.Placements[p.Name()] = p
	return nil
}

// AddOperation registers op under op.Name(). It fails if the name
// already exists.
func (c *Computation) AddOperation(op Op) error {
	if _, ok := c.Operations[op.Name()]; ok {
		return &DuplicateName{Name: op.Name()}
	}
	c.Operations[op.Name()] = op
	return nil
}

// Operation returns the operation registered under name, or nil.
func (c *Computation) Operation(name string) Op {
	return c.Operations[name]
}

// Placement returns the placement registered under name, or nil.
func (c *Computation) Placement(name string) types.Placement {
	return c.Placements[name]
}

// RemoveOperation deletes the operation registered under name. It is a
// no-op if the name is not present; passes are responsible for not
// leaving dangling references.
func (c *Computation) RemoveOperation(name string) {
	delete(c.Operations, name)
}

// ReplaceOperation overwrites the operation registered under name with
// replacement, preserving replacement's own Name() as the registered
// key — callers that want to keep the old name in the map must first
// call replacement.SetName(name).
func (c *Computation) ReplaceOperation(name string, replacement Op) {
	delete(c.Operations, name)
	c.Operations[replacement.Name()] = replacement
}

// Clone returns a deep copy of the computation: every operation is
// cloned, and the placement table entries (immutable value types) are
// copied by reference.
func (c *Computation) Clone() *Computation {
	c2 := New()
	for name, p := range c.Placements {
		c2.Placements[name] = p
	}
	for name, op := range c.Operations {
		c2.Operations[name] = op.Clone()
	}
	return c2
}

// Validate checks the invariants spec.md §3 requires at pass
// boundaries: every placement_name resolves, every input resolves to
// another operation in the computation, the graph is acyclic, and
// (trivially, by virtue of being a map key) operation names are unique.
//
// Grounded on original_source/moose/computation/utils.py's validation
// pass, which runs these same checks once per compiler invocation
// rather than after every rewrite.
func (c *Computation) Validate() error {
	for name, op := range c.Operations {
		if _, ok := c.Placements[op.Placement()]; !ok {
			return &UnknownPlacementRef{Op: name, Placement: op.Placement()}
		}
		for _, slot := range op.Inputs() {
			if _, ok := c.Operations[slot.Producer]; !ok {
				return &MissingInput{Op: name, Slot: slot.Label}
			}
		}
	}
	if _, err := c.TopologicalSort(); err != nil {
		return err
	}
	return nil
}

// TopologicalSort returns operation names in a dataflow-respecting
// order. It is a depth-first post-order walk that visits operations,
// and each operation's inputs, in operation-name order, so the result
// is deterministic (spec.md §4.1).
func (c *Computation) TopologicalSort() ([]string, error) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(c.Operations))
	order := make([]string, 0, len(c.Operations))

	names := make([]string, 0, len(c.Operations))
	for name := range c.Operations {
		names = append(names, name)
	}
	slices.Sort(names)

	var visit func(name string) error
	visit = func(name string) error {
		switch color[name] {
		case black:
			return nil
		case gray:
			return &CycleDetected{Op: name}
		}
		color[name] = gray
		op := c.Operations[name]
		deps := make([]string, len(op.Inputs()))
		for i, s := range op.Inputs() {
			deps[i] = s.Producer
		}
		slices.Sort(deps)
		for _, d := range deps {
			if err := visit(d); err != nil {
				return err
			}
		}
		color[name] = black
		order = append(order, name)
		return nil
	}

	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// Consumers returns the names of every operation that references name
// in one of its input slots, ordered deterministically.
func (c *Computation) Consumers(name string) []string {
	var out []string
	for opName, op := range c.Operations {
		for _, s := range op.Inputs() {
			if s.Producer == name {
				out = append(out, opName)
				break
			}
		}
	}
	slices.Sort(out)
	return out
}
