package solver

import (
	"testing"

	"tsume/pkg/shogi"
)

// TestTableCapacity verifies the table never exceeds its memory budget.
func TestTableCapacity(t *testing.T) {
	for _, mb := range []int{1, 3, 16} {
		tt := newTable(mb)
		if tt.bytes() > mb<<20 {
			t.Fatalf("%d MB: table uses %d bytes", mb, tt.bytes())
		}
		if tt.bytes()*2 <= mb<<20 {
			t.Fatalf("%d MB: table uses only %d bytes", mb, tt.bytes())
		}
		for key := uint64(1); key <= uint64(tt.capacity())*2; key++ {
			tt.store(entry{key: key * 0x9e3779b97f4a7c15, pn: 1, dn: 1, amount: 1})
		}
		if tt.used() > tt.capacity() {
			t.Fatalf("%d MB: %d entries used, capacity %d", mb, tt.used(), tt.capacity())
		}
		tt.clear()
		if tt.used() != 0 {
			t.Fatalf("%d MB: clear left %d entries", mb, tt.used())
		}
	}
}

// TestTableReplacement verifies same-key overwrite and least-work eviction.
func TestTableReplacement(t *testing.T) {
	tt := newTable(1)
	stride := tt.mask + 1
	for i, amount := range []uint32{5, 1, 7, 9} {
		tt.store(entry{key: uint64(i) * stride, pn: 1, dn: 1, amount: amount})
	}
	tt.store(entry{key: 2 * stride, pn: 0, dn: inf, amount: 8})
	if e := tt.lookup(2 * stride); e == nil || e.pn != 0 || e.amount != 8 {
		t.Fatalf("same key was not overwritten: %+v", e)
	}
	tt.store(entry{key: 4 * stride, pn: 1, dn: 1, amount: 3})
	if tt.lookup(1*stride) != nil {
		t.Fatal("least-work entry should have been evicted")
	}
	for _, key := range []uint64{0, 2 * stride, 3 * stride, 4 * stride} {
		if tt.lookup(key) == nil {
			t.Fatalf("key %d missing", key)
		}
	}
	tt.remove(0)
	if tt.lookup(0) != nil {
		t.Fatal("removed key still present")
	}
}

// TestDFPNTableBound verifies a search keeps the table within its budget.
func TestDFPNTableBound(t *testing.T) {
	st, err := shogi.NewStateFromSFEN("9/9/4k4/9/4P4/9/9/9/K8 b 3G2r2bg4s4n4l17p 1", shogi.DefaultStateConfig())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	d := NewDFPN(DFPNConfig{MemoryMB: 1})
	capacity := d.table.capacity()
	if m := d.Solve(st, 0, 0, false); m.IsNone() {
		t.Fatal("mate not found")
	}
	if d.table.capacity() != capacity || d.table.used() > capacity {
		t.Fatalf("table grew: used %d capacity %d", d.table.used(), d.table.capacity())
	}
}

// TestPawnDropMateNotStored verifies a mate delivered by a pawn drop is
// returned as a path-local disproof and kept out of the table, while a
// regular mate is stored.
func TestPawnDropMateNotStored(t *testing.T) {
	st, err := shogi.NewStateFromSFEN("kn7/9/1G7/9/9/9/9/9/4K4 b P 1", shogi.DefaultStateConfig())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	d := NewDFPN(DFPNConfig{MemoryMB: 1})
	d.st, d.attacker = st, shogi.Black
	st.DoMove(shogi.NewDropMove(shogi.MakeSquare(8, 1), shogi.Pawn))
	r := d.andNode(inf, inf, 1)
	if r.pn != inf || r.dn != 0 || !r.local {
		t.Fatalf("pawn drop mate: got %+v", r)
	}
	if d.table.lookup(st.Hash()) != nil {
		t.Fatal("pawn drop mate was stored")
	}
	st.UndoMove()

	st, err = shogi.NewStateFromSFEN("4k4/9/4P4/9/9/9/9/9/K8 b G2r2b3g4s4n4l17p 1", shogi.DefaultStateConfig())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	d.st = st
	st.DoMove(shogi.NewDropMove(shogi.MakeSquare(4, 1), shogi.Gold))
	if r := d.andNode(inf, inf, 1); r.pn != 0 {
		t.Fatalf("gold drop mate: got %+v", r)
	}
	if e := d.table.lookup(st.Hash()); e == nil || e.pn != 0 {
		t.Fatalf("gold drop mate not stored: %+v", e)
	}
}
