package layout

import "testing"

func TestBitsForEnum(t *testing.T) {
	cases := []struct {
		variants int
		want     uint
	}{
		{0, 0},
		{1, 1},
		{2, 1},
		{3, 2},
		{4, 2},
		{5, 3},
		{7, 3},
		{8, 3},
		{9, 4},
	}
	for _, c := range cases {
		if got := BitsForEnum(c.variants); got != c.want {
			t.Errorf("BitsForEnum(%d) = %d, want %d", c.variants, got, c.want)
		}
	}
}

func TestPrimitiveWidths(t *testing.T) {
	cases := []struct {
		kind Kind
		want uint
	}{
		{KindBool, 1},
		{KindU8, 8},
		{KindI8, 8},
		{KindU16, 16},
		{KindI16, 16},
		{KindU32, 32},
		{KindI32, 32},
		{KindU64, 64},
		{KindI64, 64},
	}
	for _, c := range cases {
		f := Field[struct{}]{Kind: c.kind}
		got, ok := Width(f, nil)
		if !ok || got != c.want {
			t.Errorf("Width(%v) = %d,%v want %d", c.kind, got, ok, c.want)
		}
	}
}
