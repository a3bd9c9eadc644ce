package conf

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// coerceScalar converts a scalar leaf into the target type. Coercion is
// deliberately narrow: numeric parse, bool parse of {"true","false","1","0"},
// and string representation - anything else is a TypeMismatchError.
func coerceScalar(n *node, target reflect.Type, path string) (reflect.Value, error) {
	mismatch := func() (reflect.Value, error) {
		return reflect.Value{}, TypeMismatchError{
			Path:     path,
			Expected: target.String(),
			Found:    n.found(),
		}
	}

	if n.scalar == nil {
		return mismatch()
	}

	out := reflect.New(target).Elem()

	switch target.Kind() {
	case reflect.String:
		switch raw := n.scalar.(type) {
		case string:
			out.SetString(raw)
		default:
			out.SetString(fmt.Sprintf("%v", raw))
		}
		return out, nil

	case reflect.Bool:
		switch raw := n.scalar.(type) {
		case bool:
			out.SetBool(raw)
		case string:
			switch strings.ToLower(raw) {
			case "true", "1":
				out.SetBool(true)
			case "false", "0":
				out.SetBool(false)
			default:
				return mismatch()
			}
		case int64:
			switch raw {
			case 1:
				out.SetBool(true)
			case 0:
				out.SetBool(false)
			default:
				return mismatch()
			}
		default:
			return mismatch()
		}
		return out, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, ok := scalarToInt(n.scalar)
		if !ok || out.OverflowInt(i) {
			return mismatch()
		}
		out.SetInt(i)
		return out, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		i, ok := scalarToInt(n.scalar)
		if !ok || i < 0 || out.OverflowUint(uint64(i)) {
			return mismatch()
		}
		out.SetUint(uint64(i))
		return out, nil

	case reflect.Float32, reflect.Float64:
		f, ok := scalarToFloat(n.scalar)
		if !ok || out.OverflowFloat(f) {
			return mismatch()
		}
		out.SetFloat(f)
		return out, nil

	default:
		return mismatch()
	}
}

func scalarToInt(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int64:
		return v, true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func scalarToFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Non-generic typed accessors, the shape most call sites want.

func (t *Tree) GetString(path string) (string, error) {
	return Get[string](t, path)
}

func (t *Tree) GetInt(path string) (int64, error) {
	return Get[int64](t, path)
}

func (t *Tree) GetBool(path string) (bool, error) {
	return Get[bool](t, path)
}

func (t *Tree) GetFloat(path string) (float64, error) {
	return Get[float64](t, path)
}
