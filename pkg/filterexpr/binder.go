// Package filterexpr binds list request filter and order_by strings onto query
// parameter structs. Filters are parsed as CEL and restricted to AND-joined
// comparisons between a whitelisted field and a literal.
package filterexpr

import (
	"errors"
	"fmt"
	"reflect"
)

// Msg is any request exposing raw filter and order_by inputs.
type Msg interface {
	GetFilter() string
	GetOrderBy() string
}

// ValueKind is the literal type a filter field accepts.
type ValueKind string

const (
	KindString    ValueKind = "string"
	KindNumber    ValueKind = "number"
	KindTimestamp ValueKind = "timestamp"
)

// Op is a supported comparison.
type Op string

const (
	OpEQ  Op = "=="
	OpGTE Op = ">="
	OpLTE Op = "<="
	OpSW  Op = "startsWith"
	OpIN  Op = "in"
)

// SetterFunc assigns a literal to a params field in place of the default conversion.
type SetterFunc func(field reflect.Value, value any) error

// FilterField whitelists a filter identifier. Ops maps each allowed operator to
// the params struct field receiving the literal.
type FilterField struct {
	Kind   ValueKind
	Ops    map[Op]string
	Setter SetterFunc
}

// OrderField marks a key as orderable. The caller maps the key to its column.
type OrderField struct{}

// OrderSchema lists the orderable keys, the default primary key and the
// tie-break key appended when the request names only one.
type OrderSchema struct {
	DefaultPrimary     string
	DefaultPrimaryDesc bool
	FallbackKey        string
	FallbackDesc       bool
	Fields             map[string]OrderField
}

// ResourceSchema holds the filter and order rules of one listable resource.
type ResourceSchema struct {
	Filter map[string]FilterField
	Order  OrderSchema
}

// Bind validates msg against schema and writes the result into binding. Filter
// literals land in the fields named by FilterField.Ops; ordering lands in the
// PrimaryKey, PrimaryDesc, SecondaryKey and SecondaryDesc fields.
func Bind[M Msg, P any](msg M, binding *P, schema ResourceSchema) error {
	if binding == nil {
		return errors.New("binding must not be nil")
	}
	dest, err := structOf(binding)
	if err != nil {
		return err
	}

	preds, err := parseFilter(msg.GetFilter(), schema.Filter)
	if err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	for _, p := range preds {
		if err := p.assign(dest, schema.Filter[p.field]); err != nil {
			return fmt.Errorf("filter: %w", err)
		}
	}

	ord, err := parseOrderBy(msg.GetOrderBy(), schema.Order)
	if err != nil {
		return fmt.Errorf("order_by: %w", err)
	}
	return ord.assign(dest)
}

func structOf(binding any) (reflect.Value, error) {
	rv := reflect.ValueOf(binding)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return reflect.Value{}, errors.New("binding must be a non-nil pointer")
	}
	if rv.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, errors.New("binding must point to a struct")
	}
	return rv.Elem(), nil
}
