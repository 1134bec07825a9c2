//go:build rp2040 || rp2350

package strconvx

// Integer conversions only; the firmware never formats floats on the MCU.

type numError string

func (e numError) Error() string { return "strconvx: " + string(e) }

const (
	errSyntax numError = "invalid syntax"
	errRange  numError = "value out of range"
)

const digits = "0123456789abcdefghijklmnopqrstuvwxyz"

func Itoa(i int) string { return FormatInt(int64(i), 10) }

func Atoi(s string) (int, error) {
	v, err := ParseInt(s, 10, 0)
	return int(v), err
}

func FormatInt(i int64, base int) string {
	if i >= 0 {
		return FormatUint(uint64(i), base)
	}
	return "-" + FormatUint(-uint64(i), base)
}

func FormatUint(u uint64, base int) string {
	if base < 2 || base > len(digits) {
		base = 10
	}
	var buf [64]byte
	i := len(buf)
	for {
		i--
		buf[i] = digits[u%uint64(base)]
		u /= uint64(base)
		if u == 0 {
			break
		}
	}
	return string(buf[i:])
}

// ParseInt accepts an optional sign. base 0 selects 0x/0o/0b prefixes.
func ParseInt(s string, base, bitSize int) (int64, error) {
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	u, err := ParseUint(s, base, 64)
	if err != nil {
		return 0, err
	}
	limit := uint64(1) << (bits(bitSize) - 1)
	if neg {
		if u > limit {
			return 0, errRange
		}
		return -int64(u), nil
	}
	if u >= limit {
		return 0, errRange
	}
	return int64(u), nil
}

func ParseUint(s string, base, bitSize int) (uint64, error) {
	if base == 0 {
		base, s = prefixBase(s)
	}
	if s == "" || base < 2 || base > len(digits) {
		return 0, errSyntax
	}
	max := ^uint64(0) >> (64 - bits(bitSize))
	var v uint64
	for i := 0; i < len(s); i++ {
		d := digitVal(s[i])
		if d >= base {
			return 0, errSyntax
		}
		if v > (max-uint64(d))/uint64(base) {
			return 0, errRange
		}
		v = v*uint64(base) + uint64(d)
	}
	return v, nil
}

func bits(bitSize int) uint {
	switch bitSize {
	case 8, 16, 32:
		return uint(bitSize)
	}
	return 64
}

func digitVal(c byte) int {
	switch {
	case '0' <= c && c <= '9':
		return int(c - '0')
	case 'a' <= c && c <= 'z':
		return int(c-'a') + 10
	case 'A' <= c && c <= 'Z':
		return int(c-'A') + 10
	}
	return len(digits)
}

func prefixBase(s string) (int, string) {
	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			return 16, s[2:]
		case 'o', 'O':
			return 8, s[2:]
		case 'b', 'B':
			return 2, s[2:]
		}
	}
	return 10, s
}
