package analysis

import "strings"

// Collapse erases the argument lists from a demangled name so that all
// instantiations of one template land on one key: the contents of each
// top-level <...> or (...) become "$". A name without any '<' is returned
// unchanged, as are names containing "operator" (telling op< or op>> apart
// from template brackets is not attempted).
func Collapse(name string) string {
	if !strings.ContainsRune(name, '<') {
		return name
	}

	if strings.Contains(name, "operator") {
		return name
	}

	var sb strings.Builder

	sb.Grow(len(name))

	depth := 0

	for i := 0; i < len(name); i++ {
		c := name[i]
		switch c {
		case '<', '(':
			depth++
			if depth == 1 {
				sb.WriteByte(c)
				sb.WriteByte('$')
			}
		case '>', ')':
			if depth > 0 {
				depth--
				if depth == 0 {
					sb.WriteByte(c)
				}
			} else {
				sb.WriteByte(c)
			}
		default:
			if depth == 0 {
				sb.WriteByte(c)
			}
		}
	}

	return sb.String()
}
