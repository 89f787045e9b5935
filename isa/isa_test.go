package isa_test

import (
	"testing"

	"github.com/arnegrim/tc162/inst"
	"github.com/arnegrim/tc162/isa"
)

// Every op the table allocates a descriptor for must resolve back through
// Lookup using its own Op1/Op2 — the allocator in table.go's init only
// guards against op1 collisions, not against a member being unreachable.
func TestEveryDescriptorResolves(t *testing.T) {
	for _, d := range isa.Descs {
		got, ok := isa.Lookup(d.Op1, d.Op2)
		if !ok {
			t.Errorf("op %v: Lookup(%#02x, %d) failed", d.Op, d.Op1, d.Op2)
			continue
		}
		if got.Op != d.Op {
			t.Errorf("op %v: Lookup(%#02x, %d) resolved to %v instead", d.Op, d.Op1, d.Op2, got.Op)
		}
	}
}

// Narrow (non-shared-op1) formats must each own a distinct op1 byte.
func TestNarrowOp1sAreUnique(t *testing.T) {
	seen := map[byte]bool{}
	for _, d := range isa.Descs {
		if isa.IsWideOp1(d.Op1) {
			continue
		}
		if seen[d.Op1] {
			t.Errorf("op1 %#02x reused across narrow-format descriptors", d.Op1)
		}
		seen[d.Op1] = true
	}
}

// 16-bit and 32-bit encodings must never share an op1 byte: decoder.Decode
// reads exactly one word and dispatches on format width via the low bit of
// raw, so a collision there would make one encoding unreachable.
func TestWidthParityNeverCollides(t *testing.T) {
	for _, d := range isa.Descs {
		wantOdd := d.Format.Width() == 4
		isOdd := d.Op1%2 == 1
		if wantOdd != isOdd {
			t.Errorf("op %v: op1 %#02x parity %v doesn't match format width %d",
				d.Op, d.Op1, isOdd, d.Format.Width())
		}
	}
}

func TestPinnedBytesKeptTheirAssignment(t *testing.T) {
	tests := []struct {
		op1 byte
		op2 uint32
	}{
		{0x82, 0}, // mov d, #const
		{0xBB, 0}, // movi
		{0x85, 0}, // ld.w absolute
	}
	for _, tc := range tests {
		if _, ok := isa.Lookup(tc.op1, tc.op2); !ok {
			t.Errorf("pinned op1 %#02x/op2 %d not resolvable", tc.op1, tc.op2)
		}
	}
}

// FormatBRC no longer shares one op1 byte across its members (disp15's full
// width leaves no room for an op2 selector alongside two register/const
// fields), so each member must resolve through its own distinct op1 instead.
func TestBRCFamilyMembersGetDistinctOp1s(t *testing.T) {
	seen := map[byte]inst.Op{}
	for _, op := range []inst.Op{inst.Jeq, inst.Jne, inst.Jge, inst.JgeU, inst.Jlt, inst.JltU,
		inst.JeqImm, inst.JneImm, inst.JgeImm, inst.JgeUImm, inst.JltImm, inst.JltUImm} {
		ds := isa.ByOp[op]
		if len(ds) == 0 {
			t.Fatalf("no encoding registered for %v", op)
		}
		op1 := ds[0].Op1
		if other, dup := seen[op1]; dup {
			t.Errorf("op1 %#02x reused by both %v and %v", op1, other, op)
		}
		seen[op1] = op
	}
}
