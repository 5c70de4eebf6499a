package prompts

import "strings"

// Substitute replaces every {identifier} token in body with vars[identifier].
// "{{" and "}}" render as literal braces, and braces that do not enclose an
// identifier are copied as-is. Unused vars are ignored. The first token with
// no value yields a *MissingPlaceholderError.
func Substitute(body string, vars map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(body))

	for i := 0; i < len(body); {
		c := body[i]
		switch {
		case c == '{' && i+1 < len(body) && body[i+1] == '{':
			b.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(body) && body[i+1] == '}':
			b.WriteByte('}')
			i += 2
		case c == '{':
			name, end, ok := placeholderAt(body, i)
			if !ok {
				b.WriteByte(c)
				i++
				continue
			}
			value, found := vars[name]
			if !found {
				return "", &MissingPlaceholderError{Name: name}
			}
			b.WriteString(value)
			i = end
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), nil
}

// Placeholders returns the distinct placeholder names in body, in order of first use
func Placeholders(body string) []string {
	var names []string
	seen := make(map[string]bool)

	for i := 0; i < len(body); {
		if i+1 < len(body) && (body[i] == '{' && body[i+1] == '{' || body[i] == '}' && body[i+1] == '}') {
			i += 2
			continue
		}
		if body[i] == '{' {
			if name, end, ok := placeholderAt(body, i); ok {
				if !seen[name] {
					seen[name] = true
					names = append(names, name)
				}
				i = end
				continue
			}
		}
		i++
	}
	return names
}

// placeholderAt parses "{identifier}" starting at body[start].
// end is the index just past the closing brace.
func placeholderAt(body string, start int) (name string, end int, ok bool) {
	closing := strings.IndexByte(body[start+1:], '}')
	if closing < 0 {
		return "", 0, false
	}
	name = body[start+1 : start+1+closing]
	if !isIdentifier(name) {
		return "", 0, false
	}
	return name, start + closing + 2, true
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
