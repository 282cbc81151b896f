package importer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// parseIntValue parses the decimal value clang writes for integer
// literals and constant expressions. Unsigned values above the signed
// range are kept as two's complement bits.
func parseIntValue(s string) (uint64, error) {
	if strings.HasPrefix(s, "-") {
		v, err := strconv.ParseInt(s, 10, 64)
		return uint64(v), err
	}
	return strconv.ParseUint(s, 10, 64)
}

// parseFloatValue parses the value clang writes for floating literals.
func parseFloatValue(s string) (float64, error) {
	switch strings.ToLower(s) {
	case "inf", "+inf":
		return strconv.ParseFloat("+Inf", 64)
	case "-inf":
		return strconv.ParseFloat("-Inf", 64)
	}
	return strconv.ParseFloat(s, 64)
}

// decodeString decodes a C string literal as clang prints it, including
// its encoding prefix, into code units. Wide is set for the L, u and U
// prefixes, whose units are code points rather than bytes.
func decodeString(lit string) (units []uint32, wide bool, err error) {
	switch {
	case strings.HasPrefix(lit, "u8\""):
		lit = lit[2:]
	case strings.HasPrefix(lit, "L\""), strings.HasPrefix(lit, "u\""), strings.HasPrefix(lit, "U\""):
		lit, wide = lit[1:], true
	}
	if len(lit) < 2 || lit[0] != '"' || lit[len(lit)-1] != '"' {
		return nil, false, fmt.Errorf("malformed string literal %s", lit)
	}
	s := lit[1 : len(lit)-1]
	for i := 0; i < len(s); {
		ch := s[i]
		if ch != '\\' {
			if wide {
				r, size := utf8.DecodeRuneInString(s[i:])
				units = append(units, uint32(r))
				i += size
				continue
			}
			units = append(units, uint32(ch))
			i++
			continue
		}
		i++
		if i >= len(s) {
			return nil, false, fmt.Errorf("trailing backslash in %s", lit)
		}
		esc := s[i]
		i++
		switch esc {
		case 'n':
			units = append(units, '\n')
		case 't':
			units = append(units, '\t')
		case 'r':
			units = append(units, '\r')
		case 'a':
			units = append(units, 7)
		case 'b':
			units = append(units, 8)
		case 'f':
			units = append(units, 12)
		case 'v':
			units = append(units, 11)
		case 'e':
			units = append(units, 27)
		case '\\', '\'', '"', '?':
			units = append(units, uint32(esc))
		case 'x':
			j := i
			for j < len(s) && isHex(s[j]) {
				j++
			}
			if j == i {
				return nil, false, fmt.Errorf("bad hex escape in %s", lit)
			}
			v, err := strconv.ParseUint(s[i:j], 16, 64)
			if err != nil {
				return nil, false, err
			}
			units = append(units, uint32(v))
			i = j
		case 'u', 'U':
			n := 4
			if esc == 'U' {
				n = 8
			}
			if i+n > len(s) {
				return nil, false, fmt.Errorf("bad universal character name in %s", lit)
			}
			v, err := strconv.ParseUint(s[i:i+n], 16, 32)
			if err != nil {
				return nil, false, err
			}
			i += n
			if wide {
				units = append(units, uint32(v))
				break
			}
			var buf [utf8.UTFMax]byte
			k := utf8.EncodeRune(buf[:], rune(v))
			for _, b := range buf[:k] {
				units = append(units, uint32(b))
			}
		default:
			if esc < '0' || esc > '7' {
				return nil, false, fmt.Errorf("unknown escape \\%c in %s", esc, lit)
			}
			v := uint32(esc - '0')
			for k := 0; k < 2 && i < len(s) && s[i] >= '0' && s[i] <= '7'; k++ {
				v = v*8 + uint32(s[i]-'0')
				i++
			}
			units = append(units, v)
		}
	}
	return units, wide, nil
}

// encodeUnits encodes code units little endian at the given width.
func encodeUnits(units []uint32, width int) string {
	var b strings.Builder
	b.Grow(len(units) * width)
	for _, u := range units {
		for k := 0; k < width; k++ {
			b.WriteByte(byte(u >> (8 * k)))
		}
	}
	return b.String()
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}
