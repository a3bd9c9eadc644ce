package conf

import (
	"fmt"
	"reflect"
	"strings"
)

// Get resolves the dot-separated path and converts the value into T.
// Scalar leaves go through typed coercion; map and list nodes are bound
// structurally, so Get into a struct behaves like Bind.
func Get[T any](t *Tree, path string) (T, error) {
	var zero T

	n, ok := t.lookup(path)
	if !ok {
		return zero, KeyNotFoundError{Path: path}
	}

	out := reflect.New(reflect.TypeFor[T]()).Elem()
	if err := bindNode(n, out, path); err != nil {
		return zero, err
	}
	return out.Interface().(T), nil
}

// GetOr resolves the path and falls back on any error. Convenience for
// call sites that treat absence and coercion failure alike.
func GetOr[T any](t *Tree, path string, fallback T) T {
	v, err := Get[T](t, path)
	if err != nil {
		return fallback
	}
	return v
}

// Bind extracts the subtree at path and structurally binds it into T's
// declared fields, recursing into nested maps for nested struct fields and
// lists for slice fields.
//
// Field keys come from the `conf:"name"` tag, defaulting to the
// lower-cased field name; `conf:"-"` skips a field. A missing key is
// filled from the `default:"value"` tag when present; fields of pointer,
// slice, map, or interface type are optional and stay zero. Any other
// field without a value is required, and all such fields aggregate into a
// single BindingError. Unknown extra keys are ignored.
func Bind[T any](t *Tree, path string) (T, error) {
	return Get[T](t, path)
}

var anyType = reflect.TypeOf((*any)(nil)).Elem()

func bindNode(n *node, v reflect.Value, path string) error {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		return bindNode(n, v.Elem(), path)
	}

	if v.Type() == anyType {
		if raw := export(n); raw != nil {
			v.Set(reflect.ValueOf(raw))
		}
		return nil
	}

	switch v.Kind() {
	case reflect.Struct:
		return bindStruct(n, v, path)

	case reflect.Slice:
		if n.kind != KindList {
			return TypeMismatchError{Path: path, Expected: v.Type().String(), Found: n.found()}
		}
		out := reflect.MakeSlice(v.Type(), len(n.list), len(n.list))
		for i, item := range n.list {
			if err := bindNode(item, out.Index(i), fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		v.Set(out)
		return nil

	case reflect.Map:
		if n.kind != KindMap {
			return TypeMismatchError{Path: path, Expected: v.Type().String(), Found: n.found()}
		}
		if v.Type().Key().Kind() != reflect.String {
			return TypeMismatchError{Path: path, Expected: v.Type().String(), Found: n.found()}
		}
		out := reflect.MakeMapWithSize(v.Type(), len(n.fields))
		for _, k := range n.keys {
			elem := reflect.New(v.Type().Elem()).Elem()
			if err := bindNode(n.fields[k], elem, path+"."+k); err != nil {
				return err
			}
			out.SetMapIndex(reflect.ValueOf(k).Convert(v.Type().Key()), elem)
		}
		v.Set(out)
		return nil

	default:
		if n.kind != KindScalar {
			return TypeMismatchError{Path: path, Expected: v.Type().String(), Found: n.found()}
		}
		coerced, err := coerceScalar(n, v.Type(), path)
		if err != nil {
			return err
		}
		v.Set(coerced)
		return nil
	}
}

func bindStruct(n *node, v reflect.Value, path string) error {
	if n.kind != KindMap {
		return TypeMismatchError{Path: path, Expected: v.Type().String(), Found: n.found()}
	}

	var missing []string
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		if field.Anonymous {
			// Embedded structs bind flat against the same section.
			if err := bindNode(n, v.Field(i), path); err != nil {
				return err
			}
			continue
		}

		key := strings.ToLower(field.Name)
		if tag, ok := field.Tag.Lookup("conf"); ok {
			if tag == "-" {
				continue
			}
			key = tag
		}

		fieldPath := key
		if path != "" {
			fieldPath = path + "." + key
		}

		child, ok := n.fields[key]
		if ok {
			if err := bindNode(child, v.Field(i), fieldPath); err != nil {
				return err
			}
			continue
		}

		if def, ok := field.Tag.Lookup("default"); ok {
			defNode := &node{kind: KindScalar, scalar: def}
			if err := bindNode(defNode, v.Field(i), fieldPath); err != nil {
				return err
			}
			continue
		}

		switch field.Type.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
			// Optional by shape; stays zero.
		default:
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return BindingError{Path: path, MissingFields: missing}
	}
	return nil
}
