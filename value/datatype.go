package value

import "fmt"

// DataType enumerates the socket/parameter data types.
type DataType string

const (
	Float   DataType = "float"
	Int     DataType = "int"
	Bool    DataType = "bool"
	Vec2    DataType = "vec2"
	Vec3    DataType = "vec3"
	Vec4    DataType = "vec4"
	Color   DataType = "color"
	Texture DataType = "texture"
	String  DataType = "string"
	Any     DataType = "any"
)

// Valid reports whether d is one of the recognized data types.
func (d DataType) Valid() bool {
	switch d {
	case Float, Int, Bool, Vec2, Vec3, Vec4, Color, Texture, String, Any:
		return true
	default:
		return false
	}
}

func vecLen(d DataType) (int, bool) {
	switch d {
	case Vec2:
		return 2, true
	case Vec3:
		return 3, true
	case Vec4:
		return 4, true
	default:
		return 0, false
	}
}

// Compatible reports the connection-compatibility rule: two data types may
// be wired together iff they are equal, one is Any, or they fall into the
// scalar-promotion / vector-swizzle / color set.
func Compatible(from, to DataType) bool {
	if from == to {
		return true
	}
	if from == Any || to == Any {
		return true
	}
	switch {
	case from == Int && to == Float, from == Float && to == Int:
		return true
	case from == Float:
		if _, ok := vecLen(to); ok {
			return true
		}
	case to == Float:
		if _, ok := vecLen(from); ok {
			// Only scalar->vec is broadcast; vec->float is not allowed.
			return false
		}
	}
	if _, fromIsVec := vecLen(from); fromIsVec {
		if _, toIsVec := vecLen(to); toIsVec {
			return true
		}
	}
	if from == Color && to == Vec4 || from == Vec4 && to == Color {
		return true
	}
	if from == Color && to == Vec3 || from == Vec3 && to == Color {
		return true
	}
	return false
}

// CarriedType resolves the data type of a satisfied connection: if either
// side is Color the carried type is Color, otherwise the input side wins.
// If both sides are Any, it defaults to Float.
func CarriedType(outputType, inputType DataType) DataType {
	if outputType == Color || inputType == Color {
		return Color
	}
	if outputType == Any && inputType == Any {
		return Float
	}
	return inputType
}

// ZeroValue returns the zero-equivalent value for a data type, used when an
// optional input has neither a wire nor a default.
func ZeroValue(d DataType) Value {
	switch d {
	case Float, Int:
		return Number(0)
	case Bool:
		return Bool(false)
	case Vec2:
		return Array(Number(0), Number(0))
	case Vec3:
		return Array(Number(0), Number(0), Number(0))
	case Vec4, Color:
		return Array(Number(0), Number(0), Number(0), Number(0))
	case String:
		return String("")
	case Texture:
		return Null()
	case Any:
		return Number(0)
	default:
		return Null()
	}
}

// Coerce converts v, understood to be of data type `from`, into the shape
// expected by data type `to`, applying the scalar/vector/color rules above.
// It returns an error if `from`/`to` are not Compatible.
func Coerce(v Value, from, to DataType) (Value, error) {
	if from == to || to == Any || from == Any {
		return v, nil
	}
	if !Compatible(from, to) {
		return Value{}, fmt.Errorf("value: %s is not compatible with %s", from, to)
	}
	switch {
	case (from == Int && to == Float) || (from == Float && to == Int):
		f, err := v.AsFloat()
		if err != nil {
			return Value{}, err
		}
		return Number(f), nil
	case from == Float:
		if n, ok := vecLen(to); ok {
			f, err := v.AsFloat()
			if err != nil {
				return Value{}, err
			}
			comps := make([]Value, n)
			for i := range comps {
				comps[i] = Number(f)
			}
			return Array(comps...), nil
		}
	}
	if toN, toIsVec := vecLen(to); toIsVec {
		if _, fromIsVec := vecLen(from); fromIsVec || from == Color {
			comps, err := v.AsVecN(toN)
			if err != nil {
				return Value{}, err
			}
			out := make([]Value, toN)
			for i, c := range comps {
				out[i] = Number(c)
			}
			return Array(out...), nil
		}
	}
	if to == Color {
		comps, err := v.AsVecN(4)
		if err != nil {
			return Value{}, err
		}
		if from == Vec3 {
			comps[3] = 1
		}
		return Array(Number(comps[0]), Number(comps[1]), Number(comps[2]), Number(comps[3])), nil
	}
	return Value{}, fmt.Errorf("value: unsupported coercion %s -> %s", from, to)
}
