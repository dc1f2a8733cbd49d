package character

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrInvalidPatch is returned when a patch names an unknown field or carries a
// value of the wrong shape. The wrapped message holds the dotted path.
var ErrInvalidPatch = errors.New("invalid patch")

// Update returns a copy of c with patch deep-merged in. Objects in the patch
// recurse into sections and keyed maps; any other value replaces the target
// outright, so lists are replaced rather than appended. c is never modified.
func Update(c *Character, patch map[string]any) (*Character, error) {
	out, err := c.Clone()
	if err != nil {
		return nil, err
	}
	if err := mergeValue(reflect.ValueOf(out).Elem(), patch, ""); err != nil {
		return nil, err
	}
	return out, nil
}

// AppendToList returns a copy of c with values appended to the list at the
// dotted path (e.g. "equipment.weapons", "attacks").
func AppendToList(c *Character, path string, values []any) (*Character, error) {
	out, err := c.Clone()
	if err != nil {
		return nil, err
	}

	target, commit, err := lookupPath(reflect.ValueOf(out).Elem(), path)
	if err != nil {
		return nil, err
	}
	if target.Kind() != reflect.Slice {
		return nil, fmt.Errorf("%w: %s is not a list", ErrInvalidPatch, path)
	}

	for i, v := range values {
		elem := reflect.New(target.Type().Elem()).Elem()
		if err := decodeInto(elem, v); err != nil {
			return nil, fmt.Errorf("%w: %s[%d]: %v", ErrInvalidPatch, path, i, err)
		}
		target.Set(reflect.Append(target, elem))
	}
	commit()
	return out, nil
}

func mergeValue(dst reflect.Value, patch any, path string) error {
	obj, isObject := patch.(map[string]any)
	if !isObject {
		if err := decodeInto(dst, patch); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidPatch, displayPath(path), err)
		}
		return nil
	}

	switch dst.Kind() {
	case reflect.Struct:
		for key, val := range obj {
			field, ok := fieldByJSONName(dst, key)
			if !ok {
				return fmt.Errorf("%w: unknown field %s", ErrInvalidPatch, joinPath(path, key))
			}
			if err := mergeValue(field, val, joinPath(path, key)); err != nil {
				return err
			}
		}
		return nil

	case reflect.Map:
		if dst.Type().Key().Kind() != reflect.String {
			break
		}
		if dst.IsNil() {
			dst.Set(reflect.MakeMap(dst.Type()))
		}
		for key, val := range obj {
			k := reflect.ValueOf(key).Convert(dst.Type().Key())
			elem := reflect.New(dst.Type().Elem()).Elem()
			if existing := dst.MapIndex(k); existing.IsValid() {
				elem.Set(existing)
			}
			if err := mergeValue(elem, val, joinPath(path, key)); err != nil {
				return err
			}
			dst.SetMapIndex(k, elem)
		}
		return nil

	case reflect.Pointer:
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return mergeValue(dst.Elem(), patch, path)

	case reflect.Interface:
		if current, ok := dst.Interface().(map[string]any); ok {
			merged := make(map[string]any, len(current)+len(obj))
			for k, v := range current {
				merged[k] = v
			}
			mv := reflect.ValueOf(merged)
			for key, val := range obj {
				elem := reflect.New(mv.Type().Elem()).Elem()
				if existing, ok := merged[key]; ok && existing != nil {
					elem.Set(reflect.ValueOf(existing))
				}
				if err := mergeValue(elem, val, joinPath(path, key)); err != nil {
					return err
				}
				merged[key] = elem.Interface()
			}
			dst.Set(mv)
			return nil
		}
	}

	if err := decodeInto(dst, patch); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPatch, displayPath(path), err)
	}
	return nil
}

// decodeInto replaces dst with v, converted through JSON into dst's type.
func decodeInto(dst reflect.Value, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	fresh := reflect.New(dst.Type())
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(fresh.Interface()); err != nil {
		return err
	}
	dst.Set(fresh.Elem())
	return nil
}

// lookupPath resolves a dotted path to a settable value. Map entries are not
// addressable, so a path ending in a map key resolves to a copy and commit
// stores it back.
func lookupPath(v reflect.Value, path string) (reflect.Value, func(), error) {
	noop := func() {}
	if strings.TrimSpace(path) == "" {
		return reflect.Value{}, noop, fmt.Errorf("%w: empty path", ErrInvalidPatch)
	}
	parts := strings.Split(path, ".")
	var walked string
	for i, part := range parts {
		walked = joinPath(walked, part)
		for v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		switch v.Kind() {
		case reflect.Struct:
			f, ok := fieldByJSONName(v, part)
			if !ok {
				return reflect.Value{}, noop, fmt.Errorf("%w: unknown field %s", ErrInvalidPatch, walked)
			}
			v = f
		case reflect.Map:
			if v.Type().Key().Kind() != reflect.String || i != len(parts)-1 {
				return reflect.Value{}, noop, fmt.Errorf("%w: cannot descend into %s", ErrInvalidPatch, walked)
			}
			if v.IsNil() {
				v.Set(reflect.MakeMap(v.Type()))
			}
			m := v
			k := reflect.ValueOf(part).Convert(m.Type().Key())
			holder := reflect.New(m.Type().Elem()).Elem()
			if existing := m.MapIndex(k); existing.IsValid() {
				holder.Set(existing)
			}
			return holder, func() { m.SetMapIndex(k, holder) }, nil
		default:
			return reflect.Value{}, noop, fmt.Errorf("%w: cannot descend into %s", ErrInvalidPatch, walked)
		}
	}
	return v, noop, nil
}

func fieldByJSONName(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		tagName, _, _ := strings.Cut(tag, ",")
		if tagName == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func joinPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}

func displayPath(path string) string {
	if path == "" {
		return "(root)"
	}
	return path
}
