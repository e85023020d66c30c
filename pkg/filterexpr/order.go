package filterexpr

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

type orderParams struct {
	PrimaryKey    string
	PrimaryDesc   bool
	SecondaryKey  string
	SecondaryDesc bool
}

type orderKey struct {
	name string
	desc bool
}

// parseOrderBy accepts up to two comma separated `key [asc|desc]` segments. A
// missing second key becomes the schema's tie-break key.
func parseOrderBy(raw string, schema OrderSchema) (orderParams, error) {
	if err := schema.validate(); err != nil {
		return orderParams{}, err
	}

	var keys []orderKey
	for _, seg := range strings.Split(raw, ",") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		k, err := parseOrderKey(seg, schema.Fields)
		if err != nil {
			return orderParams{}, err
		}
		for _, prev := range keys {
			if prev.name == k.name {
				return orderParams{}, fmt.Errorf("duplicate order key %q", k.name)
			}
		}
		keys = append(keys, k)
	}

	ord := orderParams{PrimaryKey: schema.DefaultPrimary, PrimaryDesc: schema.DefaultPrimaryDesc}
	switch len(keys) {
	case 0:
	case 1:
		ord.PrimaryKey, ord.PrimaryDesc = keys[0].name, keys[0].desc
	case 2:
		ord.PrimaryKey, ord.PrimaryDesc = keys[0].name, keys[0].desc
		ord.SecondaryKey, ord.SecondaryDesc = keys[1].name, keys[1].desc
		return ord, nil
	default:
		return orderParams{}, errors.New("order_by supports at most two keys")
	}

	ord.SecondaryKey, ord.SecondaryDesc = schema.tieBreak(ord.PrimaryKey)
	if ord.SecondaryKey == "" {
		return orderParams{}, errors.New("order schema requires at least two distinct keys for stable ordering")
	}
	return ord, nil
}

func parseOrderKey(seg string, fields map[string]OrderField) (orderKey, error) {
	parts := strings.Fields(seg)
	if _, ok := fields[parts[0]]; !ok {
		return orderKey{}, fmt.Errorf("field %q cannot be used for ordering", parts[0])
	}
	k := orderKey{name: parts[0]}
	switch len(parts) {
	case 1:
	case 2:
		switch strings.ToLower(parts[1]) {
		case "asc":
		case "desc":
			k.desc = true
		default:
			return orderKey{}, fmt.Errorf("invalid direction %q for field %q", parts[1], k.name)
		}
	default:
		return orderKey{}, fmt.Errorf("invalid order segment %q", seg)
	}
	return k, nil
}

func (s OrderSchema) validate() error {
	if s.DefaultPrimary == "" {
		return errors.New("order schema default primary key required")
	}
	if s.FallbackKey == "" {
		return errors.New("order schema fallback key required")
	}
	if _, ok := s.Fields[s.DefaultPrimary]; !ok {
		return fmt.Errorf("order key %q missing from schema fields", s.DefaultPrimary)
	}
	if _, ok := s.Fields[s.FallbackKey]; !ok {
		return fmt.Errorf("fallback order key %q missing from schema fields", s.FallbackKey)
	}
	return nil
}

// tieBreak returns the fallback key, or the first other key by name when the
// fallback is the primary itself.
func (s OrderSchema) tieBreak(primary string) (string, bool) {
	if s.FallbackKey != primary {
		return s.FallbackKey, s.FallbackDesc
	}
	others := make([]string, 0, len(s.Fields))
	for key := range s.Fields {
		if key != primary {
			others = append(others, key)
		}
	}
	if len(others) == 0 {
		return "", false
	}
	sort.Strings(others)
	return others[0], false
}

func (o orderParams) assign(dest reflect.Value) error {
	for _, f := range []struct {
		name  string
		value any
	}{
		{"PrimaryKey", o.PrimaryKey},
		{"PrimaryDesc", o.PrimaryDesc},
		{"SecondaryKey", o.SecondaryKey},
		{"SecondaryDesc", o.SecondaryDesc},
	} {
		if err := setConverted(dest, f.name, reflect.ValueOf(f.value)); err != nil {
			return err
		}
	}
	return nil
}
