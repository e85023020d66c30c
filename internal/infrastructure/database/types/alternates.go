package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Alternates stores accepted alternate spellings as a JSON array column.
type Alternates []string

// Scan implements sql.Scanner
func (a *Alternates) Scan(src any) error {
	if src == nil {
		*a = nil
		return nil
	}
	switch data := src.(type) {
	case []byte:
		if len(data) == 0 {
			*a = nil
			return nil
		}
		return json.Unmarshal(data, a)
	case string:
		if data == "" {
			*a = nil
			return nil
		}
		return json.Unmarshal([]byte(data), a)
	default:
		return fmt.Errorf("Alternates: unsupported src type %T", src)
	}
}

// Value implements driver.Valuer
func (a Alternates) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
