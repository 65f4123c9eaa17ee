// Package formula implements the placeholder substitution used to preview
// generated device SKUs and descriptions. A formula is a plain string with
// `{property}` placeholders; substitution is a single left-to-right scan
// with no nesting and no escape syntax. Placeholders that have no value
// are left in the output verbatim so the preview shows what is missing.
package formula

import "strings"

// Substitute replaces every `{name}` placeholder in template with
// values[name]. Unknown placeholders and unterminated braces are copied
// through unchanged.
func Substitute(template string, values map[string]string) string {
	var b strings.Builder
	b.Grow(len(template))

	for i := 0; i < len(template); {
		open := strings.IndexByte(template[i:], '{')
		if open < 0 {
			b.WriteString(template[i:])
			break
		}
		open += i
		b.WriteString(template[i:open])

		close := strings.IndexByte(template[open:], '}')
		if close < 0 {
			// Unterminated placeholder, keep the rest as-is.
			b.WriteString(template[open:])
			break
		}
		close += open

		name := template[open+1 : close]
		if inner := strings.IndexByte(name, '{'); inner >= 0 {
			// A stray '{' before the '}': emit up to the inner brace and rescan from it.
			b.WriteString(template[open : open+1+inner])
			i = open + 1 + inner
			continue
		}

		if v, ok := values[name]; ok {
			b.WriteString(v)
		} else {
			b.WriteString(template[open : close+1])
		}
		i = close + 1
	}

	return b.String()
}

// Placeholders returns the distinct placeholder names in template, in
// first-appearance order.
func Placeholders(template string) []string {
	seen := make(map[string]bool)
	var names []string

	for i := 0; i < len(template); {
		open := strings.IndexByte(template[i:], '{')
		if open < 0 {
			break
		}
		open += i
		close := strings.IndexByte(template[open:], '}')
		if close < 0 {
			break
		}
		close += open

		name := template[open+1 : close]
		if inner := strings.IndexByte(name, '{'); inner >= 0 {
			i = open + 1 + inner
			continue
		}
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		i = close + 1
	}

	return names
}
