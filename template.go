package agent

import (
	"fmt"
	"reflect"
	"strings"
)

// RenderTemplate substitutes {{key}} placeholders with the stringified value
// from vars (empty for nil or missing keys) in a single pass, so substituted
// values are never rescanned for further placeholders.
//
// {{#key}}...{{/key}} marks a conditional section: the block is rendered,
// with inner substitution, only when the key holds a truthy value. The
// section markers themselves never appear in the output.
func RenderTemplate(template string, vars map[string]any) string {
	var b strings.Builder
	b.Grow(len(template))
	renderInto(&b, template, vars)
	return b.String()
}

func renderInto(b *strings.Builder, tpl string, vars map[string]any) {
	for {
		open := strings.Index(tpl, "{{")
		if open < 0 {
			b.WriteString(tpl)
			return
		}
		b.WriteString(tpl[:open])

		closing := strings.Index(tpl[open+2:], "}}")
		if closing < 0 {
			b.WriteString(tpl[open:])
			return
		}
		key := tpl[open+2 : open+2+closing]
		rest := tpl[open+2+closing+2:]

		switch {
		case strings.HasPrefix(key, "#"):
			name := key[1:]
			endMarker := "{{/" + name + "}}"
			endIdx := strings.Index(rest, endMarker)
			if endIdx < 0 {
				// Unterminated section: drop the opener and carry on.
				tpl = rest
				continue
			}
			if truthy(vars[name]) {
				renderInto(b, rest[:endIdx], vars)
			}
			tpl = rest[endIdx+len(endMarker):]

		case strings.HasPrefix(key, "/"):
			// Stray closing marker, swallow it.
			tpl = rest

		default:
			b.WriteString(stringify(vars[key]))
			tpl = rest
		}
	}
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return strings.TrimSpace(t) != ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}
