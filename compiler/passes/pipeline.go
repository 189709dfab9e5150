package passes

import "github.com/mooselang/moose/compiler"

// DefaultPipeline returns the canonical lowering pipeline: 16-bit
// default fractional precision, with TruncPr inserted after every
// multiplicative op to keep precision from growing unboundedly
// (spec.md §9's open question, resolved in DESIGN.md).
//
// These constructors live in this package rather than in compiler
// itself because they must reference the concrete passes below, which
// in turn import compiler for Pass/SubgraphReplace — defining them
// alongside compiler.Compiler would create an import cycle.
func DefaultPipeline() *compiler.Compiler {
	return compiler.New(
		HostEncodingPass,
		ReplicatedEncodingPass(DefaultPrecision, true),
		ReplicatedLoweringPass,
		RingLoweringPass,
		BitLoweringPass,
		NetworkMaterializationPass,
	)
}

// DeprecatedPipeline returns the legacy lowering pipeline: 27-bit
// default fractional precision, with no TruncPr insertion, matching
// the older compiler variant original_source/moose/compiler described
// as "deprecated" (spec.md §4.3, §9).
func DeprecatedPipeline() *compiler.Compiler {
	return compiler.New(
		HostEncodingPass,
		ReplicatedEncodingPass(DeprecatedPrecision, false),
		ReplicatedLoweringPass,
		RingLoweringPass,
		BitLoweringPass,
		NetworkMaterializationPass,
	)
}
