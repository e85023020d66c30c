package filterexpr

import (
	"fmt"
	"math"
	"reflect"
	"slices"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

func (p predicate) assign(dest reflect.Value, rule FilterField) error {
	name := rule.Ops[p.op]
	field, err := settableField(dest, name)
	if err != nil {
		return err
	}
	if rule.Setter != nil {
		if field.Kind() == reflect.Ptr && field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		if err := rule.Setter(field, p.value); err != nil {
			return fmt.Errorf("setter for field %q failed: %w", name, err)
		}
		return nil
	}
	if err := assignValue(field, p.value); err != nil {
		return fmt.Errorf("failed to assign field %q: %w", name, err)
	}
	return nil
}

func settableField(dest reflect.Value, name string) (reflect.Value, error) {
	field := dest.FieldByName(name)
	if !field.IsValid() {
		return reflect.Value{}, fmt.Errorf("params struct %s has no field named %q", dest.Type(), name)
	}
	if !field.CanSet() {
		return reflect.Value{}, fmt.Errorf("cannot set field %q on params struct", name)
	}
	return field, nil
}

// assignValue stores a parsed literal, allocating pointer fields as needed.
func assignValue(field reflect.Value, value any) error {
	for field.Kind() == reflect.Ptr {
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		field = field.Elem()
	}
	if field.Kind() == reflect.Interface {
		field.Set(reflect.ValueOf(value))
		return nil
	}

	switch v := value.(type) {
	case float64:
		return assignNumber(field, v)
	case string:
		if field.Kind() != reflect.String {
			return fmt.Errorf("expected string-compatible destination, got %s", field.Kind())
		}
		field.SetString(v)
	case []string:
		if field.Kind() != reflect.Slice || field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("expected slice of strings destination, got %s", field.Type())
		}
		field.Set(reflect.ValueOf(slices.Clone(v)).Convert(field.Type()))
	case time.Time:
		if field.Type() != timeType {
			return fmt.Errorf("expected time.Time destination, got %s", field.Type())
		}
		field.Set(reflect.ValueOf(v))
	default:
		return fmt.Errorf("unsupported literal type %T", value)
	}
	return nil
}

func assignNumber(field reflect.Value, v float64) error {
	switch field.Kind() {
	case reflect.Float32, reflect.Float64:
		if field.OverflowFloat(v) {
			return fmt.Errorf("value %v overflows float field", v)
		}
		field.SetFloat(v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if math.Trunc(v) != v {
			return fmt.Errorf("cannot assign non-integer value %v to integer field", v)
		}
		if v < math.MinInt64 || v >= math.MaxInt64 || field.OverflowInt(int64(v)) {
			return fmt.Errorf("value %v overflows integer field", v)
		}
		field.SetInt(int64(v))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if math.Trunc(v) != v {
			return fmt.Errorf("cannot assign non-integer value %v to unsigned integer field", v)
		}
		if v < 0 {
			return fmt.Errorf("cannot assign negative value %v to unsigned integer field", v)
		}
		if v >= math.MaxUint64 || field.OverflowUint(uint64(v)) {
			return fmt.Errorf("value %v overflows unsigned integer field", v)
		}
		field.SetUint(uint64(v))
	default:
		return fmt.Errorf("numeric assignment requires integer or float field, got %s", field.Kind())
	}
	return nil
}

// setConverted stores v into the named field, converting to the field type or
// its pointer element type.
func setConverted(dest reflect.Value, name string, v reflect.Value) error {
	field, err := settableField(dest, name)
	if err != nil {
		return err
	}
	switch field.Kind() {
	case reflect.Interface:
		field.Set(v)
		return nil
	case reflect.Ptr:
		elem := field.Type().Elem()
		if !v.Type().ConvertibleTo(elem) {
			return fmt.Errorf("field %q must be %s-compatible, got %s", name, elem, v.Type())
		}
		if field.IsNil() {
			field.Set(reflect.New(elem))
		}
		field.Elem().Set(v.Convert(elem))
		return nil
	default:
		if !v.Type().ConvertibleTo(field.Type()) {
			return fmt.Errorf("field %q must be %s-compatible, got %s", name, field.Type(), v.Type())
		}
		field.Set(v.Convert(field.Type()))
		return nil
	}
}
