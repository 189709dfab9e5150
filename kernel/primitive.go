package kernel

import (
	"context"
	"crypto/rand"
	"crypto/sha512"
	"fmt"
	"io"

	"github.com/mooselang/moose/ir"
	"github.com/mooselang/moose/ir/primitive"
	"github.com/mooselang/moose/value"
	"golang.org/x/crypto/hkdf"
)

const seedSize = 32

// RegisterPrimitive installs the key-material kernels: SampleKey draws
// fresh local randomness, DeriveSeed turns a key plus a nonce into a
// deterministic seed two parties holding the same key can reproduce
// without communicating (spec.md §4.3's re-sharing randomness).
func RegisterPrimitive(r *Registry) {
	r.Register((&primitive.SampleKey{}).Kind(), sampleKeyKernel)
	r.Register((&primitive.DeriveSeed{}).Kind(), deriveSeedKernel)
}

func sampleKeyKernel(ctx context.Context, sess *Session, op ir.Op, inputs map[string]any) (any, error) {
	key := make([]byte, seedSize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("kernel: %s: sampling key material: %w", op.Name(), err)
	}
	return value.PRFKey(key), nil
}

// deriveSeedKernel expands a PRFKey into a Seed via HKDF-SHA512 keyed
// by the key, with no salt and the op's Nonce as the HKDF info input,
// grounded on the teacher's
// mapping-cache key derivation (elasticproxy/proxy_http/mapping_cache.go:
// hkdf.New(sha512.New, secret, nil, nil)) — here the Nonce plays the
// role that cache's per-entry discriminator does, so distinct Mul
// operations never reuse the same mask stream even when both parties
// start from the same sampled key.
func deriveSeedKernel(ctx context.Context, sess *Session, op ir.Op, inputs map[string]any) (any, error) {
	d := op.(*primitive.DeriveSeed)
	key, ok := inputs["key"].(value.PRFKey)
	if !ok {
		return nil, fmt.Errorf("kernel: %s: key input is not a PRFKey", op.Name())
	}
	reader := hkdf.New(sha512.New, key, nil, d.Nonce)
	seed := make([]byte, seedSize)
	if _, err := io.ReadFull(reader, seed); err != nil {
		return nil, fmt.Errorf("kernel: %s: deriving seed: %w", op.Name(), err)
	}
	return value.Seed(seed), nil
}
