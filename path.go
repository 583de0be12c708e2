package schema

import (
	"strconv"
	"strings"
)

// Pointer renders a field path as a JSON Pointer ("/" for the root). Path
// elements are escaped per RFC 6901.
func Pointer(path []string) string {
	if len(path) == 0 {
		return "/"
	}
	b := &strings.Builder{}
	for _, p := range path {
		b.WriteByte('/')
		// escape '~' -> '~0', '/' -> '~1'
		b.WriteString(strings.ReplaceAll(strings.ReplaceAll(p, "~", "~0"), "/", "~1"))
	}
	return b.String()
}

// childPath returns path extended by name without aliasing path's backing
// array.
func childPath(path []string, name string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, name)
}

func indexPath(path []string, i int) []string {
	return childPath(path, strconv.Itoa(i))
}
