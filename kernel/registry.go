package kernel

// DefaultRegistry returns a Registry with every dialect's kernels
// installed, suitable for executing a computation that has been run
// through passes.DefaultPipeline (or DeprecatedPipeline).
func DefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterStandard(r)
	RegisterFixedpoint(r)
	RegisterReplicated(r)
	RegisterRing(r)
	RegisterBit(r)
	RegisterPrimitive(r)
	RegisterHost(r)
	return r
}
