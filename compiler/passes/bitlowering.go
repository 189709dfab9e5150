package passes

import (
	"github.com/mooselang/moose/ir"
	"github.com/mooselang/moose/ir/bit"
)

// BitLoweringPass is a peephole cleanup over the bit dialect: it
// eliminates double negation (BitNot(BitNot(x)) -> x) left behind by
// RingLoweringPass's truncation carry chain. Grounded on the teacher's
// plan/optimize.go "simplify" pass, which runs a fixed set of local
// identity-elimination rewrites rather than a general term rewriter.
func BitLoweringPass(c *ir.Computation, ctx *ir.Context) (*ir.Computation, error) {
	out := c.Clone()
	for name, op := range c.Operations {
		outer, ok := op.(*bit.BitNot)
		if !ok {
			continue
		}
		innerName, ok := ir.Input(outer, "value")
		if !ok {
			continue
		}
		inner, ok := c.Operation(innerName).(*bit.BitNot)
		if !ok {
			continue
		}
		original, ok := ir.Input(inner, "value")
		if !ok {
			continue
		}

		rewireConsumersTo(out, c.Consumers(name), name, original)
		out.RemoveOperation(name)
		if len(c.Consumers(innerName)) == 1 {
			out.RemoveOperation(innerName)
		}
	}
	return out, nil
}
