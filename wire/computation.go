package wire

import (
	"fmt"

	"github.com/SnellerInc/sneller/ion"
	"github.com/mooselang/moose/ir"
	"golang.org/x/exp/slices"
)

// EncodeComputation serializes c into a self-contained ion byte stream:
// a binary version marker, a symbol table, and a single top-level
// struct carrying the placement and operation tables. Round-tripping
// through DecodeComputation reproduces c's operations and placements
// field-for-field (spec.md §6).
func EncodeComputation(c *ir.Computation) ([]byte, error) {
	var body, framed ion.Buffer
	var st ion.Symtab

	body.BeginStruct(-1)
	body.BeginField(st.Intern("placements"))
	body.BeginList(-1)
	for _, name := range sortedKeys(placementNames(c)) {
		encodePlacement(&body, &st, c.Placement(name))
	}
	body.EndList()

	body.BeginField(st.Intern("operations"))
	body.BeginList(-1)
	for _, name := range sortedKeys(operationNames(c)) {
		if err := EncodeOp(&body, &st, c.Operation(name)); err != nil {
			return nil, err
		}
	}
	body.EndList()
	body.EndStruct()

	st.Marshal(&framed, true)
	framed.UnsafeAppend(body.Bytes())
	return framed.Bytes(), nil
}

// DecodeComputation parses a byte stream produced by EncodeComputation.
func DecodeComputation(buf []byte) (*ir.Computation, error) {
	var st ion.Symtab
	rest, err := st.Unmarshal(buf)
	if err != nil {
		return nil, fmt.Errorf("wire: reading symbol table: %w", err)
	}
	d, _, err := ion.ReadDatum(&st, rest)
	if err != nil {
		return nil, fmt.Errorf("wire: reading computation record: %w", err)
	}

	c := ir.New()

	placements, ok := d.Field("placements").List()
	if !ok {
		return nil, fmt.Errorf("wire: computation record missing \"placements\"")
	}
	placements.Each(func(item ion.Datum) bool {
		p, derr := decodePlacement(item)
		if derr != nil {
			err = derr
			return false
		}
		if derr = c.AddPlacement(p); derr != nil {
			err = derr
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	operations, ok := d.Field("operations").List()
	if !ok {
		return nil, fmt.Errorf("wire: computation record missing \"operations\"")
	}
	operations.Each(func(item ion.Datum) bool {
		op, derr := DecodeOp(item)
		if derr != nil {
			err = derr
			return false
		}
		if derr = c.AddOperation(op); derr != nil {
			err = derr
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func placementNames(c *ir.Computation) []string {
	names := make([]string, 0, len(c.Placements))
	for name := range c.Placements {
		names = append(names, name)
	}
	return names
}

func operationNames(c *ir.Computation) []string {
	names := make([]string, 0, len(c.Operations))
	for name := range c.Operations {
		names = append(names, name)
	}
	return names
}

// sortedKeys returns names sorted so that encoding is deterministic:
// two calls to EncodeComputation on an equal *ir.Computation produce
// byte-identical output, which the spec's round-trip property (§6)
// otherwise leaves unspecified.
func sortedKeys(names []string) []string {
	out := append([]string(nil), names...)
	slices.Sort(out)
	return out
}
