package column

import (
	"testing"
)

func TestTypeMarkers(t *testing.T) {
	tests := []struct {
		ctype  Type
		marker byte
	}{
		{TypeU32, '4'},
		{TypeU64, '8'},
		{TypeString, 'S'},
	}
	for _, tc := range tests {
		if got := tc.ctype.Marker(); got != tc.marker {
			t.Errorf("expected marker %q for %v, got %q", tc.marker, tc.ctype, got)
		}
		back, ok := TypeFromMarker(tc.marker)
		if !ok || back != tc.ctype {
			t.Errorf("marker %q did not round-trip, got (%v, %v)", tc.marker, back, ok)
		}
	}
	if _, ok := TypeFromMarker('x'); ok {
		t.Error("unknown marker must not resolve to a type")
	}
}

func TestValueEquality(t *testing.T) {
	tests := []struct {
		l, r  Value
		equal bool
	}{
		{U32(4), U32(4), true},
		{U32(4), U32(5), false},
		// cross-width comparison widens u32 to u64
		{U32(4), U64(4), true},
		{U64(4), U32(4), true},
		{U64(1 << 40), U32(0), false},
		{String("a"), String("a"), true},
		{String("a"), String("b"), false},
		// NULL compares only to itself
		{Null(), Null(), true},
		{Null(), U32(0), false},
		{String(""), Null(), false},
		// string vs numeric is always false
		{String("4"), U32(4), false},
	}
	for _, tc := range tests {
		if got := tc.l.Equal(tc.r); got != tc.equal {
			t.Errorf("%v == %v: expected %v, got %v", tc.l, tc.r, tc.equal, got)
		}
	}
}

func TestValueCompatibility(t *testing.T) {
	tests := []struct {
		v          Value
		ctype      Type
		compatible bool
	}{
		{U32(1), TypeU32, true},
		{U32(1), TypeU64, false},
		{U64(1), TypeU64, true},
		{String("x"), TypeString, true},
		{String("x"), TypeU32, false},
		{Null(), TypeU32, true},
		{Null(), TypeString, true},
	}
	for _, tc := range tests {
		if got := tc.v.Compatible(tc.ctype); got != tc.compatible {
			t.Errorf("%v compatible with %v: expected %v, got %v", tc.v, tc.ctype, tc.compatible, got)
		}
	}
}

func TestSchemaLocateColumn(t *testing.T) {
	s := Schema{
		{Name: "a", Type: TypeU32},
		{Name: "b", Type: TypeU64},
		{Name: "a", Type: TypeString}, // duplicate name, first match wins
	}
	idx, ok := s.LocateColumn("a")
	if !ok || idx != 0 {
		t.Errorf("expected to find 'a' at 0, got (%v, %v)", idx, ok)
	}
	if _, ok := s.LocateColumn("missing"); ok {
		t.Error("found a column that does not exist")
	}
}

func TestSchemaEqualIgnoresNullability(t *testing.T) {
	s1 := Schema{{Name: "a", Type: TypeU32, Nullable: false}}
	s2 := Schema{{Name: "a", Type: TypeU32, Nullable: true}}
	if !s1.Equal(s2) {
		t.Error("nullability must not participate in schema equality")
	}
	s3 := Schema{{Name: "a", Type: TypeU64}}
	if s1.Equal(s3) {
		t.Error("differing types must not compare equal")
	}
}

func TestParseSchemaRoundtrip(t *testing.T) {
	tests := []struct {
		spec string
		err  bool
	}{
		{"a:u32,b:u64,c:string", false},
		{"a:u32:null", false},
		{"a:int", true},
		{"a", true},
		{"a:u32:maybe", true},
		{"", true},
	}
	for _, tc := range tests {
		s, err := ParseSchema(tc.spec)
		if tc.err {
			if err == nil {
				t.Errorf("expected %q to fail to parse", tc.spec)
			}
			continue
		}
		if err != nil {
			t.Errorf("parsing %q: %v", tc.spec, err)
			continue
		}
		if s.String() != tc.spec {
			t.Errorf("round-trip of %q yielded %q", tc.spec, s.String())
		}
	}
}
