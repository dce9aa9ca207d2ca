package xmlcodec

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ContentKey holds non-blank text of an element that also has children.
const ContentKey = "__content__"

// element is the backend-neutral document tree both decode backends build.
type element struct {
	name     string
	typeHint string
	isNil    bool
	text     strings.Builder
	children []*element
}

// documentValue converts a root element into the decoded document.
func documentValue(root *element, opts ParserOptions) (Value, error) {
	v, err := root.value(opts.disallowed())
	if err != nil {
		return nil, err
	}
	return NewMap(Pair(root.name, v)), nil
}

func (el *element) value(deny map[string]struct{}) (Value, error) {
	if el.typeHint != "" {
		if _, refused := deny[el.typeHint]; refused {
			return nil, &DisallowedTypeError{Type: el.typeHint, Element: el.name}
		}
	}

	if el.isNil {
		return ScalarOf(nil), nil
	}

	if el.typeHint == "array" {
		list := make(List, 0, len(el.children))
		for _, child := range el.children {
			v, err := child.value(deny)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	}

	if len(el.children) == 0 {
		return typecast(el.name, el.typeHint, el.text.String())
	}

	groups := make(map[string]*entryGroup, len(el.children))
	var order []*entryGroup
	for _, child := range el.children {
		v, err := child.value(deny)
		if err != nil {
			return nil, err
		}
		g, ok := groups[child.name]
		if !ok {
			g = &entryGroup{key: child.name}
			groups[child.name] = g
			order = append(order, g)
		}
		g.values = append(g.values, v)
	}

	m := &Map{}
	for _, g := range order {
		if len(g.values) == 1 {
			m.Set(g.key, g.values[0])
		} else {
			m.Set(g.key, List(g.values))
		}
	}
	if text := strings.TrimSpace(el.text.String()); text != "" {
		m.Set(ContentKey, Text(text))
	}
	return m, nil
}

// typecast converts leaf text according to its type hint. Unknown hints
// leave the text untouched.
func typecast(name, hint, text string) (Value, error) {
	fail := func(err error) (Value, error) {
		return nil, fmt.Errorf("%w: <%s type=%q>: %w", ErrTypeCast, name, hint, err)
	}

	trimmed := strings.TrimSpace(text)
	switch hint {
	case "integer":
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return fail(err)
		}
		return ScalarOf(n), nil
	case "float", "double", "decimal":
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return fail(err)
		}
		return ScalarOf(f), nil
	case "boolean":
		return ScalarOf(trimmed == "true" || trimmed == "1"), nil
	case "date":
		t, err := time.Parse(time.DateOnly, trimmed)
		if err != nil {
			return fail(err)
		}
		return ScalarOf(t), nil
	case "datetime", "dateTime":
		t, err := time.Parse(time.RFC3339, trimmed)
		if err != nil {
			return fail(err)
		}
		return ScalarOf(t), nil
	case "base64Binary":
		b, err := base64.StdEncoding.DecodeString(trimmed)
		if err != nil {
			return fail(err)
		}
		return ScalarOf(b), nil
	case "yaml":
		var doc any
		if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
			return fail(err)
		}
		v, err := FromInterface(doc)
		if err != nil {
			return fail(err)
		}
		return v, nil
	default:
		return Text(text), nil
	}
}
