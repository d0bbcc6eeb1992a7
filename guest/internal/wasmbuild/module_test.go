package wasmbuild

import (
	"bytes"
	"testing"
)

func TestEncode_Empty(t *testing.T) {
	got := New().Encode()
	want := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("Encode() = % x, want % x", got, want)
	}
}

func TestEncode_ConstFunction(t *testing.T) {
	m := New()
	fn := m.Func(nil, []ValType{I32}, nil, Body().I32Const(42))
	m.Export("f", fn)

	want := []byte{
		0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00,
		0x01, 0x05, 0x01, 0x60, 0x00, 0x01, 0x7F, // type: () -> i32
		0x03, 0x02, 0x01, 0x00, // function: type 0
		0x07, 0x05, 0x01, 0x01, 'f', 0x00, 0x00, // export "f" func 0
		0x0A, 0x06, 0x01, 0x04, 0x00, 0x41, 0x2A, 0x0B, // code: i32.const 42
	}
	if got := m.Encode(); !bytes.Equal(got, want) {
		t.Errorf("Encode() =\n% x\nwant\n% x", got, want)
	}
}

func TestImportIndices(t *testing.T) {
	m := New()
	a := m.Import("env", "a", []ValType{I32}, nil)
	b := m.Import("env", "b", []ValType{I32}, nil)
	f := m.Func(nil, nil, nil, nil)

	if a != 0 || b != 1 || f != 2 {
		t.Errorf("indices = %d, %d, %d; want 0, 1, 2", a, b, f)
	}
	if len(m.types) != 2 {
		t.Errorf("types = %d, want 2 (shared signature deduplicated)", len(m.types))
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic for Import after Func")
		}
	}()
	m.Import("env", "c", nil, nil)
}

func TestLEB(t *testing.T) {
	tests := []struct {
		name string
		fn   func(w *writer)
		want []byte
	}{
		{"u32 zero", func(w *writer) { w.u32(0) }, []byte{0x00}},
		{"u32 624485", func(w *writer) { w.u32(624485) }, []byte{0xE5, 0x8E, 0x26}},
		{"s64 -1", func(w *writer) { w.s64(-1) }, []byte{0x7F}},
		{"s64 64", func(w *writer) { w.s64(64) }, []byte{0xC0, 0x00}},
		{"s64 -123456", func(w *writer) { w.s64(-123456) }, []byte{0xC0, 0xBB, 0x78}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &writer{}
			tt.fn(w)
			if !bytes.Equal(w.bytes(), tt.want) {
				t.Errorf("got % x, want % x", w.bytes(), tt.want)
			}
		})
	}
}

func TestLocalsGrouping(t *testing.T) {
	w := &writer{}
	writeLocals(w, []ValType{I32, I32, I64, I32})
	want := []byte{0x03, 0x02, 0x7F, 0x01, 0x7E, 0x01, 0x7F}
	if !bytes.Equal(w.bytes(), want) {
		t.Errorf("got % x, want % x", w.bytes(), want)
	}
}
