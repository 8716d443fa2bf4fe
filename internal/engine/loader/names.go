package loader

import (
	"strconv"
	"strings"
	"unicode"
)

// SanitizeName makes a glTF name usable as a node name: whitespace becomes
// '_' and the path separators "[].:/" are removed, so Blender's
// "NurbsPath.001" becomes "NurbsPath001".
func SanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case unicode.IsSpace(r):
			b.WriteByte('_')
		case strings.ContainsRune("[].:/", r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// nameRegistry hands out unique sanitized names per document. The first use
// of a name keeps it; later uses get "_1", "_2", ... appended.
type nameRegistry map[string]int

func (nr nameRegistry) unique(name string) string {
	s := SanitizeName(name)
	n, used := nr[s]
	if !used {
		nr[s] = 0
		return s
	}
	n++
	nr[s] = n
	return s + "_" + strconv.Itoa(n)
}
