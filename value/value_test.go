package value

import "testing"

func TestCompatible(t *testing.T) {
	cases := []struct {
		name     string
		from, to DataType
		want     bool
	}{
		{"equal", Float, Float, true},
		{"any-from", Any, Float, true},
		{"any-to", Float, Any, true},
		{"int-to-float", Int, Float, true},
		{"float-to-int", Float, Int, true},
		{"float-to-vec3", Float, Vec3, true},
		{"vec3-to-float", Vec3, Float, false},
		{"vec2-to-vec4", Vec2, Vec4, true},
		{"vec4-to-vec2", Vec4, Vec2, true},
		{"color-to-vec4", Color, Vec4, true},
		{"color-to-vec3", Color, Vec3, true},
		{"color-to-float", Color, Float, false},
		{"bool-to-string", Bool, String, false},
		{"texture-to-float", Texture, Float, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Compatible(tc.from, tc.to); got != tc.want {
				t.Errorf("Compatible(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestCarriedType(t *testing.T) {
	if ct := CarriedType(Float, Vec3); ct != Vec3 {
		t.Errorf("want input side to win, got %s", ct)
	}
	if ct := CarriedType(Color, Vec4); ct != Color {
		t.Errorf("want color to win, got %s", ct)
	}
	if ct := CarriedType(Any, Any); ct != Float {
		t.Errorf("want float default for any/any, got %s", ct)
	}
}

func TestCoerceFloatToVec3(t *testing.T) {
	out, err := Coerce(Number(2), Float, Vec3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	comps, err := out.AsVecN(3)
	if err != nil {
		t.Fatalf("AsVecN: %v", err)
	}
	for _, c := range comps {
		if c != 2 {
			t.Errorf("want broadcast 2, got %v", comps)
		}
	}
}

func TestCoerceVec3ToColor(t *testing.T) {
	out, err := Coerce(Array(Number(1), Number(0.5), Number(0.25)), Vec3, Color)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	comps, _ := out.AsVecN(4)
	if comps[3] != 1 {
		t.Errorf("want alpha defaulted to 1, got %v", comps)
	}
}

func TestZeroValue(t *testing.T) {
	zv := ZeroValue(Vec2)
	comps, err := zv.AsVecN(2)
	if err != nil || comps[0] != 0 || comps[1] != 0 {
		t.Errorf("want [0 0], got %v (err=%v)", comps, err)
	}
}

func TestEqual(t *testing.T) {
	a := Array(Number(1), String("x"))
	b := Array(Number(1), String("x"))
	c := Array(Number(1), String("y"))
	if !Equal(a, b) {
		t.Error("expected a == b")
	}
	if Equal(a, c) {
		t.Error("expected a != c")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	v := Object(map[string]Value{
		"n": Number(3.5),
		"s": String("hi"),
		"a": Array(Bool(true), Null()),
	})
	data, err := v.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Value
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !Equal(v, back) {
		t.Errorf("round trip mismatch: %v vs %v", v, back)
	}
}
