package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// HexColor is a 0xRRGGBB color written in YAML as "#rrggbb" or "0xrrggbb".
type HexColor uint32

// UnmarshalYAML accepts "#rrggbb", "0xrrggbb" and plain integers.
func (h *HexColor) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: color must be a scalar", node.Line)
	}
	v, err := ParseHexColor(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*h = v
	return nil
}

// MarshalYAML writes the color as "#rrggbb".
func (h HexColor) MarshalYAML() (interface{}, error) {
	return h.String(), nil
}

// String returns the "#rrggbb" form.
func (h HexColor) String() string {
	return fmt.Sprintf("#%06x", uint32(h))
}

// ParseHexColor parses "#rrggbb", "0xrrggbb" or a decimal integer.
func ParseHexColor(s string) (HexColor, error) {
	s = strings.TrimSpace(s)
	var (
		v   uint64
		err error
	)
	switch {
	case strings.HasPrefix(s, "#"):
		v, err = strconv.ParseUint(s[1:], 16, 32)
	default:
		v, err = strconv.ParseUint(s, 0, 32)
	}
	if err != nil {
		return 0, fmt.Errorf("parsing color %q: %w", s, err)
	}
	if v > 0xffffff {
		return 0, fmt.Errorf("color %q out of range", s)
	}
	return HexColor(v), nil
}
