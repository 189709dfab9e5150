package ir

import (
	"fmt"
	"sync/atomic"
)

// Context is threaded through every pass in a Compiler run. It owns the
// monotone fresh-name counter (spec.md §4.1) and must be constructed
// once per pipeline, never per pass — passes must not keep their own
// counters (spec.md §9: "the pass context... must be an explicit value
// passed into each pass, not global module state").
type Context struct {
	counter uint64
}

// NewContext returns a Context whose counter starts at zero.
func NewContext() *Context {
	return &Context{}
}

// FreshName returns a name of the form "<prefix>_<n>" that has never
// been returned before by this Context, where n increases strictly
// monotonically across the entire pipeline.
func (ctx *Context) FreshName(prefix string) string {
	n := atomic.AddUint64(&ctx.counter, 1)
	return fmt.Sprintf("%s_%d", prefix, n)
}
