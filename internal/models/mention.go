package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedMention marks an ingredient entry that is neither a string nor
// a {name, items} group.
var ErrMalformedMention = errors.New("malformed ingredient mention")

// MentionKind tags an IngredientMention
type MentionKind int

const (
	MentionFlat MentionKind = iota + 1
	MentionGrouped
)

// IngredientMention is either Flat(text) or Grouped(label, items).
// Group labels are display-only.
type IngredientMention struct {
	Kind  MentionKind
	Text  string
	Label string
	Items []string
}

func Flat(text string) IngredientMention {
	return IngredientMention{Kind: MentionFlat, Text: text}
}

func Grouped(label string, items ...string) IngredientMention {
	return IngredientMention{Kind: MentionGrouped, Label: label, Items: items}
}

// Texts returns the raw mention texts carried by m, in order.
func (m IngredientMention) Texts() []string {
	switch m.Kind {
	case MentionFlat:
		return []string{m.Text}
	case MentionGrouped:
		return m.Items
	}
	return nil
}

// ParseMentions resolves a meal's stored ingredient JSON into typed mentions.
// Entries that cannot be resolved are reported as errors wrapping
// ErrMalformedMention and left out; the rest are still returned.
func ParseMentions(raw []byte) ([]IngredientMention, []error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, []error{fmt.Errorf("%w: ingredients are not a list: %v", ErrMalformedMention, err)}
	}

	var mentions []IngredientMention
	var errs []error
	for i, el := range elems {
		m, itemErrs, err := parseMention(el)
		for _, e := range itemErrs {
			errs = append(errs, fmt.Errorf("%w: entry %d: %v", ErrMalformedMention, i, e))
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: entry %d: %v", ErrMalformedMention, i, err))
			continue
		}
		mentions = append(mentions, m)
	}
	return mentions, errs
}

func parseMention(el json.RawMessage) (IngredientMention, []error, error) {
	var text string
	if err := json.Unmarshal(el, &text); err == nil {
		return Flat(text), nil, nil
	}

	var obj struct {
		Name  *string           `json:"name"`
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(el, &obj); err != nil {
		return IngredientMention{}, nil, fmt.Errorf("unsupported value %s", preview(el))
	}

	if obj.Items != nil {
		label := ""
		if obj.Name != nil {
			label = *obj.Name
		}
		var items []string
		var errs []error
		for j, it := range obj.Items {
			var s string
			if err := json.Unmarshal(it, &s); err != nil {
				errs = append(errs, fmt.Errorf("group %q item %d: unsupported value %s", label, j, preview(it)))
				continue
			}
			items = append(items, s)
		}
		return Grouped(label, items...), errs, nil
	}

	if obj.Name != nil {
		return Flat(*obj.Name), nil, nil
	}
	return IngredientMention{}, nil, fmt.Errorf("object without name or items: %s", preview(el))
}

func preview(raw []byte) string {
	const limit = 64
	if len(raw) > limit {
		return string(raw[:limit]) + "..."
	}
	return string(raw)
}
