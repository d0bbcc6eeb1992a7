package handle

import (
	"errors"
	"sync"
	"testing"
)

func TestTable_Basic(t *testing.T) {
	tbl := NewTable[string]()

	h, err := tbl.Insert("req")
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if h == 0 {
		t.Fatal("Expected non-zero handle")
	}

	v, ok := tbl.Get(h)
	if !ok || v != "req" {
		t.Fatalf("Get = %q, %v", v, ok)
	}
	if tbl.Len() != 1 {
		t.Fatalf("Len = %d, want 1", tbl.Len())
	}

	v, ok = tbl.Remove(h)
	if !ok || v != "req" {
		t.Fatalf("Remove = %q, %v", v, ok)
	}
	if _, ok := tbl.Get(h); ok {
		t.Fatal("Expected Get to fail after Remove")
	}
	if _, ok := tbl.Remove(h); ok {
		t.Fatal("Expected second Remove to fail")
	}
	if tbl.Len() != 0 {
		t.Fatalf("Len = %d, want 0", tbl.Len())
	}
}

func TestTable_InvalidHandles(t *testing.T) {
	tbl := NewTable[int]()

	for _, h := range []Handle{0, 1, 99} {
		if _, ok := tbl.Get(h); ok {
			t.Errorf("Get(%d) succeeded on empty table", h)
		}
		if _, ok := tbl.Remove(h); ok {
			t.Errorf("Remove(%d) succeeded on empty table", h)
		}
	}
}

func TestTable_Reuse(t *testing.T) {
	tbl := NewTable[int]()

	h1, _ := tbl.Insert(1)
	h2, _ := tbl.Insert(2)
	tbl.Remove(h1)

	h3, _ := tbl.Insert(3)
	if h3 != h1 {
		t.Errorf("Expected freed handle %d to be reused, got %d", h1, h3)
	}
	if v, _ := tbl.Get(h2); v != 2 {
		t.Errorf("Get(h2) = %d, want 2", v)
	}
	if v, _ := tbl.Get(h3); v != 3 {
		t.Errorf("Get(h3) = %d, want 3", v)
	}
}

func TestTable_Close(t *testing.T) {
	tbl := NewTable[int]()
	h, _ := tbl.Insert(1)

	if err := tbl.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := tbl.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if _, ok := tbl.Get(h); ok {
		t.Error("Expected Get to fail after Close")
	}
	if _, err := tbl.Insert(2); !errors.Is(err, ErrClosed) {
		t.Errorf("Insert after Close: got %v, want ErrClosed", err)
	}
}

func TestTable_Concurrent(t *testing.T) {
	tbl := NewTable[int]()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h, err := tbl.Insert(i)
				if err != nil {
					t.Errorf("Insert: %v", err)
					return
				}
				if v, ok := tbl.Get(h); !ok || v != i {
					t.Errorf("Get(%d) = %d, %v; want %d", h, v, ok, i)
				}
				tbl.Remove(h)
			}
		}(i)
	}
	wg.Wait()

	if tbl.Len() != 0 {
		t.Errorf("Len = %d after concurrent churn, want 0", tbl.Len())
	}
}
