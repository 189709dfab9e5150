package kernel

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os/exec"

	"github.com/mooselang/moose/ir"
	"github.com/mooselang/moose/ir/host"
	"github.com/mooselang/moose/value"
)

// RegisterHost installs kernels for ops that only ever run on a single
// Host placement: storage access, channel rendezvous, and the escape
// hatch to foreign processes.
func RegisterHost(r *Registry) {
	r.Register((&host.Load{}).Kind(), loadKernel)
	r.Register((&host.Save{}).Kind(), saveKernel)
	r.Register((&host.RunProgram{}).Kind(), runProgramKernel)
	r.Register((&host.CallPythonFn{}).Kind(), callPythonFnKernel)
	r.Register((&host.Send{}).Kind(), sendKernel)
	r.Register((&host.Receive{}).Kind(), receiveKernel)
}

func loadKernel(ctx context.Context, sess *Session, op ir.Op, inputs map[string]any) (any, error) {
	l := op.(*host.Load)
	raw, err := sess.Storage.Load(ctx, l.Key)
	if err != nil {
		return nil, err
	}
	return value.Unmarshal(raw)
}

func saveKernel(ctx context.Context, sess *Session, op ir.Op, inputs map[string]any) (any, error) {
	s := op.(*host.Save)
	v, ok := inputs["value"]
	if !ok {
		return nil, &ir.MissingInput{Op: op.Name(), Slot: "value"}
	}
	raw, err := value.Marshal(v)
	if err != nil {
		return nil, err
	}
	if err := sess.Storage.Save(ctx, s.Key, raw); err != nil {
		return nil, err
	}
	return value.Unit{}, nil
}

// runProgramKernel marshals every ordered input, frames each as a
// length-prefixed blob on the child's stdin, runs Path with Args, and
// unmarshals its single length-prefixed stdout blob as the result
// (spec.md §9's "opaque foreign kernel" escape hatch).
func runProgramKernel(ctx context.Context, sess *Session, op ir.Op, inputs map[string]any) (any, error) {
	r := op.(*host.RunProgram)
	stdin, err := frameInputs(op, inputs)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, r.Path, r.Args...)
	cmd.Stdin = bytes.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return nil, &ForeignProcessFailure{Path: r.Path, ExitCode: exitCode, Stderr: stderr.String()}
	}

	blob, err := readFrame(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("kernel: %s: reading child output: %w", op.Name(), err)
	}
	return value.Unmarshal(blob)
}

const pythonBootstrap = `
import pickle, struct, sys

def _read_frame(f):
    n = struct.unpack(">I", f.read(4))[0]
    return f.read(n)

fn = pickle.loads(_read_frame(sys.stdin.buffer))
arg = _read_frame(sys.stdin.buffer)
result = fn(arg)
sys.stdout.buffer.write(struct.pack(">I", len(result)))
sys.stdout.buffer.write(result)
`

// callPythonFnKernel hands PickledFn and its single input to an
// embedded Python bootstrap over stdin/stdout, never interpreting
// PickledFn itself (spec.md §9: "moose never interprets PickledFn as
// source").
func callPythonFnKernel(ctx context.Context, sess *Session, op ir.Op, inputs map[string]any) (any, error) {
	c := op.(*host.CallPythonFn)
	in, ok := inputs["value"]
	if !ok {
		return nil, &ir.MissingInput{Op: op.Name(), Slot: "value"}
	}
	arg, err := value.Marshal(in)
	if err != nil {
		return nil, err
	}

	var stdin bytes.Buffer
	writeFrame(&stdin, c.PickledFn)
	writeFrame(&stdin, arg)

	cmd := exec.CommandContext(ctx, "python3", "-c", pythonBootstrap)
	cmd.Stdin = &stdin
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return nil, &ForeignProcessFailure{Path: "python3", ExitCode: exitCode, Stderr: stderr.String()}
	}

	blob, err := readFrame(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("kernel: %s: reading python output: %w", op.Name(), err)
	}
	return value.Unmarshal(blob)
}

func frameInputs(op ir.Op, inputs map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	for _, slot := range op.Inputs() {
		v, ok := inputs[slot.Label]
		if !ok {
			return nil, &ir.MissingInput{Op: op.Name(), Slot: slot.Label}
		}
		raw, err := value.Marshal(v)
		if err != nil {
			return nil, err
		}
		writeFrame(&buf, raw)
	}
	return buf.Bytes(), nil
}

func writeFrame(buf *bytes.Buffer, p []byte) {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(p)))
	buf.Write(length[:])
	buf.Write(p)
}

func readFrame(p []byte) ([]byte, error) {
	if len(p) < 4 {
		return nil, fmt.Errorf("kernel: truncated frame header")
	}
	n := binary.BigEndian.Uint32(p[:4])
	if uint32(len(p)-4) < n {
		return nil, fmt.Errorf("kernel: truncated frame body")
	}
	return p[4 : 4+n], nil
}

func sendKernel(ctx context.Context, sess *Session, op ir.Op, inputs map[string]any) (any, error) {
	s := op.(*host.Send)
	v, ok := inputs["value"]
	if !ok {
		return nil, &ir.MissingInput{Op: op.Name(), Slot: "value"}
	}
	raw, err := value.Marshal(v)
	if err != nil {
		return nil, err
	}
	if err := sess.Channel.Send(ctx, sess.ID, s.Sender, s.Receiver, s.RendezvousKey, raw); err != nil {
		return nil, err
	}
	return value.Unit{}, nil
}

func receiveKernel(ctx context.Context, sess *Session, op ir.Op, inputs map[string]any) (any, error) {
	r := op.(*host.Receive)
	raw, err := sess.Channel.Receive(ctx, sess.ID, r.Sender, r.Receiver, r.RendezvousKey)
	if err != nil {
		return nil, err
	}
	return value.Unmarshal(raw)
}
