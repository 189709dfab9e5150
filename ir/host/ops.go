// Package host holds operations that only ever run on a single Host
// placement: storage access and the escape hatch to foreign processes
// (spec.md §4.4, §9's "opaque foreign kernel" guidance).
package host

import (
	"github.com/mooselang/moose/ir"
	"github.com/mooselang/moose/types"
)

// Load reads a value from the party-local storage collaborator keyed by
// Key (spec.md §6).
type Load struct {
	ir.Base
	Key    string
	Output types.ValueType
}

func (l *Load) OutputType() types.ValueType { return l.Output }
func (l *Load) Kind() string                { return "host.LoadOperation" }
func (l *Load) Clone() ir.Op {
	l2 := *l
	l2.Base = l.Base.CloneBase()
	return &l2
}

// Save writes its single input to party-local storage keyed by Key and
// produces Unit.
type Save struct {
	ir.Base
	Key string
}

func (s *Save) OutputType() types.ValueType { return types.Unit{} }
func (s *Save) Kind() string                { return "host.SaveOperation" }
func (s *Save) Clone() ir.Op {
	s2 := *s
	s2.Base = s.Base.CloneBase()
	return &s2
}

// RunProgram launches an external process with the given arguments,
// feeding it its inputs and capturing its outputs as an opaque
// bytes-to-bytes transform (spec.md §9).
type RunProgram struct {
	ir.Base
	Path   string
	Args   []string
	Output types.ValueType
}

func (r *RunProgram) OutputType() types.ValueType { return r.Output }
func (r *RunProgram) Kind() string                { return "host.RunProgramOperation" }
func (r *RunProgram) Clone() ir.Op {
	r2 := *r
	r2.Base = r.Base.CloneBase()
	r2.Args = append([]string(nil), r.Args...)
	return &r2
}

// CallPythonFn invokes an opaque pickled callable. moose never
// interprets PickledFn as source; it is handed verbatim to the kernel,
// which treats it as a []byte -> []byte transform (spec.md §9).
type CallPythonFn struct {
	ir.Base
	PickledFn []byte
	Output    types.ValueType
}

func (c *CallPythonFn) OutputType() types.ValueType { return c.Output }
func (c *CallPythonFn) Kind() string                { return "host.CallPythonFnOperation" }
func (c *CallPythonFn) Clone() ir.Op {
	c2 := *c
	c2.Base = c.Base.CloneBase()
	c2.PickledFn = append([]byte(nil), c.PickledFn...)
	return &c2
}

// Send posts its single input to the channel manager under
// (Sender, Receiver, RendezvousKey) and produces Unit.
type Send struct {
	ir.Base
	Sender        string
	Receiver      string
	RendezvousKey string
}

func (s *Send) OutputType() types.ValueType { return types.Unit{} }
func (s *Send) Kind() string                { return "host.SendOperation" }
func (s *Send) Clone() ir.Op {
	s2 := *s
	s2.Base = s.Base.CloneBase()
	return &s2
}

// Receive blocks on the channel manager for (Sender, Receiver,
// RendezvousKey) and produces the delivered value.
type Receive struct {
	ir.Base
	Sender        string
	Receiver      string
	RendezvousKey string
	Output        types.ValueType
}

func (r *Receive) OutputType() types.ValueType { return r.Output }
func (r *Receive) Kind() string                { return "host.ReceiveOperation" }
func (r *Receive) Clone() ir.Op {
	r2 := *r
	r2.Base = r.Base.CloneBase()
	return &r2
}
