package ids

import "fmt"

// base63 alphabet used for compact, URL-safe id encoding: A-Z a-z 0-9 _.
const base63 = 63

func valueToChar(val uint64) byte {
	switch {
	case val < 26:
		return byte('A' + val)
	case val < 52:
		return byte('a' + (val - 26))
	case val < 62:
		return byte('0' + (val - 52))
	default:
		return '_'
	}
}

func charToValue(c byte) (uint64, error) {
	switch {
	case c >= 'A' && c <= 'Z':
		return uint64(c - 'A'), nil
	case c >= 'a' && c <= 'z':
		return uint64(c-'a') + 26, nil
	case c >= '0' && c <= '9':
		return uint64(c-'0') + 52, nil
	case c == '_':
		return 62, nil
	default:
		return 0, fmt.Errorf("ids: invalid character %q in compact id", c)
	}
}

// EncodeCompact renders a raw numeric id as a compact base-63 string
// suitable for external APIs (MCP responses, search result payloads).
func EncodeCompact(v uint64) string {
	if v == 0 {
		return ""
	}
	var buf []byte
	for v > 0 {
		buf = append(buf, valueToChar(v%base63))
		v /= base63
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

// DecodeCompact parses a string produced by EncodeCompact back to its
// numeric value.
func DecodeCompact(s string) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("ids: empty compact id")
	}
	var v uint64
	for i := 0; i < len(s); i++ {
		d, err := charToValue(s[i])
		if err != nil {
			return 0, err
		}
		v = v*base63 + d
	}
	return v, nil
}

// Compact returns the compact external representation of a SymbolId.
func (s SymbolId) Compact() string { return EncodeCompact(uint64(s)) }

// ParseSymbolId decodes a compact string into a SymbolId.
func ParseSymbolId(s string) (SymbolId, error) {
	v, err := DecodeCompact(s)
	if err != nil {
		return 0, err
	}
	return SymbolId(v), nil
}
