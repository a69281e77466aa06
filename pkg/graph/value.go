package graph

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

// ValueType represents the type of an attribute value
type ValueType uint8

const (
	TypeString ValueType = iota
	TypeInt
	TypeFloat
	TypeBool
)

// String returns the name of the value type
func (t ValueType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Value represents a typed attribute value
type Value struct {
	Type ValueType
	Data []byte
}

// Helper functions to create typed values
func StringValue(s string) Value {
	return Value{Type: TypeString, Data: []byte(s)}
}

func IntValue(i int64) Value {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, uint64(i))
	return Value{Type: TypeInt, Data: data}
}

func FloatValue(f float64) Value {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, math.Float64bits(f))
	return Value{Type: TypeFloat, Data: data}
}

func BoolValue(b bool) Value {
	data := []byte{0}
	if b {
		data[0] = 1
	}
	return Value{Type: TypeBool, Data: data}
}

// Decode methods
func (v Value) AsString() (string, error) {
	if v.Type != TypeString {
		return "", fmt.Errorf("value is not a string")
	}
	return string(v.Data), nil
}

func (v Value) AsInt() (int64, error) {
	if v.Type != TypeInt || len(v.Data) != 8 {
		return 0, fmt.Errorf("value is not an int")
	}
	return int64(binary.LittleEndian.Uint64(v.Data)), nil
}

func (v Value) AsFloat() (float64, error) {
	if v.Type != TypeFloat || len(v.Data) != 8 {
		return 0, fmt.Errorf("value is not a float")
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(v.Data)), nil
}

func (v Value) AsBool() (bool, error) {
	if v.Type != TypeBool || len(v.Data) != 1 {
		return false, fmt.Errorf("value is not a bool")
	}
	return v.Data[0] == 1, nil
}

// Key returns a canonical string for the value. Two values have the same
// key exactly when they have the same type and the same encoded data, so
// the key can be used wherever a comparable identity is needed.
func (v Value) Key() string {
	return strconv.Itoa(int(v.Type)) + ":" + string(v.Data)
}

// Equal reports whether two values carry the same type and data
func (v Value) Equal(other Value) bool {
	return v.Key() == other.Key()
}

// String renders the decoded value for logs and CLI output
func (v Value) String() string {
	switch v.Type {
	case TypeString:
		return string(v.Data)
	case TypeInt:
		if i, err := v.AsInt(); err == nil {
			return strconv.FormatInt(i, 10)
		}
	case TypeFloat:
		if f, err := v.AsFloat(); err == nil {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
	case TypeBool:
		if b, err := v.AsBool(); err == nil {
			return strconv.FormatBool(b)
		}
	}
	return fmt.Sprintf("<%s %x>", v.Type, v.Data)
}

// ValueOf converts a decoded YAML/JSON scalar into a Value
func ValueOf(raw any) (Value, error) {
	switch x := raw.(type) {
	case string:
		return StringValue(x), nil
	case int:
		return IntValue(int64(x)), nil
	case int64:
		return IntValue(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return Value{}, fmt.Errorf("integer %d overflows int64", x)
		}
		return IntValue(int64(x)), nil
	case float64:
		return FloatValue(x), nil
	case float32:
		return FloatValue(float64(x)), nil
	case bool:
		return BoolValue(x), nil
	default:
		return Value{}, fmt.Errorf("unsupported attribute type %T", raw)
	}
}
