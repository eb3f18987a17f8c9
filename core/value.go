package core

// ValueKind tags the concrete type held by a Value.
type ValueKind int

const (
	StringValue ValueKind = iota
	Int64Value
	Float64Value
	BoolValue
	ObjectValue
	ArrayValue
)

// Value is a closed tagged union. Nesting via ObjectValue/ArrayValue is
// permitted; constructing a cycle is a programming error the caller must
// avoid, same as building a cyclic map/slice in plain Go.
type Value struct {
	kind    ValueKind
	str     string
	i64     int64
	f64     float64
	boolean bool
	obj     map[string]Value
	arr     []Value
}

func String(v string) Value  { return Value{kind: StringValue, str: v} }
func Int64(v int64) Value    { return Value{kind: Int64Value, i64: v} }
func Float64(v float64) Value { return Value{kind: Float64Value, f64: v} }
func Bool(v bool) Value      { return Value{kind: BoolValue, boolean: v} }

func Object(v map[string]Value) Value {
	cp := make(map[string]Value, len(v))
	for k, val := range v {
		cp[k] = val
	}
	return Value{kind: ObjectValue, obj: cp}
}

func Array(v []Value) Value {
	cp := make([]Value, len(v))
	copy(cp, v)
	return Value{kind: ArrayValue, arr: cp}
}

// Kind reports which alternative of the union is populated.
func (v Value) Kind() ValueKind { return v.kind }

func (v Value) AsString() (string, bool) {
	if v.kind != StringValue {
		return "", false
	}
	return v.str, true
}

func (v Value) AsInt64() (int64, bool) {
	if v.kind != Int64Value {
		return 0, false
	}
	return v.i64, true
}

func (v Value) AsFloat64() (float64, bool) {
	if v.kind != Float64Value {
		return 0, false
	}
	return v.f64, true
}

func (v Value) AsBool() (bool, bool) {
	if v.kind != BoolValue {
		return false, false
	}
	return v.boolean, true
}

func (v Value) AsObject() (map[string]Value, bool) {
	if v.kind != ObjectValue {
		return nil, false
	}
	return v.obj, true
}

func (v Value) AsArray() ([]Value, bool) {
	if v.kind != ArrayValue {
		return nil, false
	}
	return v.arr, true
}

// Interface converts the Value into its closest plain Go representation,
// recursively. Useful for target implementations that serialize to JSON
// or another wire format.
func (v Value) Interface() any {
	switch v.kind {
	case StringValue:
		return v.str
	case Int64Value:
		return v.i64
	case Float64Value:
		return v.f64
	case BoolValue:
		return v.boolean
	case ObjectValue:
		out := make(map[string]any, len(v.obj))
		for k, val := range v.obj {
			out[k] = val.Interface()
		}
		return out
	case ArrayValue:
		out := make([]any, len(v.arr))
		for i, val := range v.arr {
			out[i] = val.Interface()
		}
		return out
	default:
		return nil
	}
}
