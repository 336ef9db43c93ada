package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ShoppingCategory is one labelled bucket of raw mention strings
type ShoppingCategory struct {
	Label string
	Items []string
}

// ShoppingList is an ordered mapping from category label to mentions.
// It encodes as a JSON object whose keys keep the slice order, and is
// stored as that JSON text in a single column.
type ShoppingList []ShoppingCategory

// Items returns the mentions under label, or nil.
func (l ShoppingList) Items(label string) []string {
	for _, c := range l {
		if c.Label == label {
			return c.Items
		}
	}
	return nil
}

// Labels returns the category labels in order
func (l ShoppingList) Labels() []string {
	labels := make([]string, 0, len(l))
	for _, c := range l {
		labels = append(labels, c.Label)
	}
	return labels
}

// Count returns the total number of lines across categories.
func (l ShoppingList) Count() int {
	n := 0
	for _, c := range l {
		n += len(c.Items)
	}
	return n
}

func (l ShoppingList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalUnescaped(c.Label)
		if err != nil {
			return nil, err
		}
		items := c.Items
		if items == nil {
			items = []string{}
		}
		val, err := marshalUnescaped(items)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalUnescaped(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (l *ShoppingList) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("shopping list: %w", err)
	}
	if tok == nil {
		*l = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("shopping list: expected object, got %v", tok)
	}

	var out ShoppingList
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("shopping list: %w", err)
		}
		label, ok := tok.(string)
		if !ok {
			return fmt.Errorf("shopping list: unexpected key %v", tok)
		}
		var items []string
		if err := dec.Decode(&items); err != nil {
			return fmt.Errorf("shopping list category %q: %w", label, err)
		}
		out = append(out, ShoppingCategory{Label: label, Items: items})
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("shopping list: %w", err)
	}

	*l = out
	return nil
}

// GormDataType keeps gorm from treating the slice as an association.
func (ShoppingList) GormDataType() string {
	return "text"
}

func (l ShoppingList) Value() (driver.Value, error) {
	b, err := l.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *ShoppingList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		if len(v) == 0 {
			*l = nil
			return nil
		}
		return l.UnmarshalJSON(v)
	case string:
		if v == "" {
			*l = nil
			return nil
		}
		return l.UnmarshalJSON([]byte(v))
	}
	return fmt.Errorf("shopping list: cannot scan %T", src)
}
