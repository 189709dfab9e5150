package value

import (
	"reflect"
	"testing"

	"github.com/SnellerInc/sneller/ion"
)

func roundTrip(t *testing.T, v any) any {
	t.Helper()
	raw, err := Marshal(v)
	if err != nil {
		t.Fatalf("Marshal(%v): %v", v, err)
	}
	got, err := Unmarshal(raw)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	return got
}

func TestCodecRoundTripEveryVariant(t *testing.T) {
	cases := []any{
		Tensor{Shape: []int{2, 2}, Data: []float64{1.5, -2.25, 0, 3.125}},
		Ring{Shape: []int{3}, Data: []uint64{0, 1, ^uint64(0)}},
		Bit{Shape: []int{4}, Data: []uint8{0, 1, 1, 0}},
		ReplicatedRing{
			Own:  Ring{Shape: []int{2}, Data: []uint64{1, 2}},
			Next: Ring{Shape: []int{2}, Data: []uint64{3, 4}},
		},
		ReplicatedBit{
			Own:  Bit{Shape: []int{2}, Data: []uint8{1, 0}},
			Next: Bit{Shape: []int{2}, Data: []uint8{0, 1}},
		},
		Shape{Dims: []int{4, 5, 6}},
		Seed([]byte{0xde, 0xad, 0xbe, 0xef}),
		PRFKey([]byte{1, 2, 3, 4, 5}),
		Unit{},
	}

	for _, want := range cases {
		got := roundTrip(t, want)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("round trip mismatch: got %#v, want %#v", got, want)
		}
	}
}

func TestUnmarshalIsRepeatable(t *testing.T) {
	raw, err := Marshal(Tensor{Shape: []int{2}, Data: []float64{1, 2}})
	if err != nil {
		t.Fatal(err)
	}
	first, err := Unmarshal(raw)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Unmarshal(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Unmarshal is not stable across repeated calls on the same buffer")
	}
}

func TestUnmarshalUnknownKind(t *testing.T) {
	if _, err := decode(mustStructDatum(t, "bogus")); err == nil {
		t.Fatal("expected an error for an unrecognized kind discriminator")
	}
}

func mustStructDatum(t *testing.T, kind string) ion.Datum {
	t.Helper()
	var buf ion.Buffer
	var st ion.Symtab
	buf.BeginStruct(-1)
	buf.BeginField(st.Intern("kind"))
	buf.WriteString(kind)
	buf.EndStruct()
	var framed ion.Buffer
	st.Marshal(&framed, true)
	framed.UnsafeAppend(buf.Bytes())
	var st2 ion.Symtab
	rest, err := st2.Unmarshal(framed.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	d, _, err := ion.ReadDatum(&st2, rest)
	if err != nil {
		t.Fatal(err)
	}
	return d
}
