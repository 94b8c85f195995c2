package expr

import (
	"fmt"
	"reflect"
)

func asInt(v any) (int64, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), nil
	default:
		return 0, fmt.Errorf("expr: value %v (%T) is not numeric", v, v)
	}
}

func asBool(v any) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	i, err := asInt(v)
	if err != nil {
		return false, fmt.Errorf("expr: value %v (%T) is not boolean", v, v)
	}
	return i != 0, nil
}

// EvalBool parses and evaluates s as a boolean expression against scope.
func EvalBool(s string, scope map[string]any) (bool, error) {
	n, err := Parse(s)
	if err != nil {
		return false, err
	}
	v, err := n.eval(scope)
	if err != nil {
		return false, err
	}
	return asBool(v)
}

// EvalInt parses and evaluates s as an integer expression against scope.
func EvalInt(s string, scope map[string]any) (int64, error) {
	n, err := Parse(s)
	if err != nil {
		return 0, err
	}
	v, err := n.eval(scope)
	if err != nil {
		return 0, err
	}
	return asInt(v)
}

// EvalAny parses and evaluates s against scope without a type constraint,
// used for map/default/update expressions whose result type depends on
// the field it feeds.
func EvalAny(s string, scope map[string]any) (any, error) {
	n, err := Parse(s)
	if err != nil {
		return nil, err
	}
	return n.eval(scope)
}
