//go:build rp2040 || rp2350

package fmtx

import (
	"io"

	"devicecode-water/x/strconvx"
)

// Verbs: %s %q %v %d %x %t %w %%, with precision on %s. Values implementing
// error or String() print through those methods.

type stringer interface{ String() string }

func Sprintf(format string, a ...any) string {
	var p printer
	p.printf(format, a)
	return string(p.buf)
}

func Fprintf(w io.Writer, format string, a ...any) (int, error) {
	var p printer
	p.printf(format, a)
	return w.Write(p.buf)
}

// Errorf supports a single %w; the result unwraps to that operand.
func Errorf(format string, a ...any) error {
	var p printer
	p.printf(format, a)
	return &wrapError{msg: string(p.buf), err: p.wrapped}
}

// Sprint adds spaces between operands when neither side is a string.
func Sprint(a ...any) string {
	var p printer
	for i, v := range a {
		if i > 0 && !isString(v) && !isString(a[i-1]) {
			p.buf = append(p.buf, ' ')
		}
		p.value(v)
	}
	return string(p.buf)
}

func Fprint(w io.Writer, a ...any) (int, error) {
	return io.WriteString(w, Sprint(a...))
}

type wrapError struct {
	msg string
	err error
}

func (e *wrapError) Error() string { return e.msg }
func (e *wrapError) Unwrap() error { return e.err }

type printer struct {
	buf     []byte
	wrapped error
}

func (p *printer) str(s string) { p.buf = append(p.buf, s...) }

func (p *printer) printf(format string, args []any) {
	n := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 == len(format) {
			p.buf = append(p.buf, c)
			continue
		}
		i++
		prec := -1
		if format[i] == '.' {
			prec = 0
			for i+1 < len(format) && format[i+1] >= '0' && format[i+1] <= '9' {
				i++
				prec = prec*10 + int(format[i]-'0')
			}
			i++
			if i == len(format) {
				return
			}
		}
		verb := format[i]
		if verb == '%' {
			p.buf = append(p.buf, '%')
			continue
		}
		if n >= len(args) {
			p.str("%!")
			p.buf = append(p.buf, verb)
			p.str("(MISSING)")
			continue
		}
		p.verb(verb, prec, args[n])
		n++
	}
}

func (p *printer) verb(verb byte, prec int, arg any) {
	switch verb {
	case 's', 'v':
		if verb == 's' && prec >= 0 {
			s := toString(arg)
			if prec < len(s) {
				s = s[:prec]
			}
			p.str(s)
			return
		}
		p.value(arg)
	case 'q':
		p.quote(toString(arg))
	case 'd':
		if i, ok := toInt(arg); ok {
			p.str(strconvx.FormatInt(i, 10))
		} else if u, ok := arg.(uint64); ok {
			p.str(strconvx.FormatUint(u, 10))
		} else {
			p.value(arg)
		}
	case 'x':
		if u, ok := arg.(uint64); ok {
			p.str(strconvx.FormatUint(u, 16))
		} else if i, ok := toInt(arg); ok {
			p.str(strconvx.FormatInt(i, 16))
		} else {
			p.value(arg)
		}
	case 't':
		p.value(arg)
	case 'w':
		if err, ok := arg.(error); ok && p.wrapped == nil {
			p.wrapped = err
		}
		p.value(arg)
	default:
		p.buf = append(p.buf, '%', verb)
	}
}

func (p *printer) value(v any) {
	switch x := v.(type) {
	case nil:
		p.str("<nil>")
	case string:
		p.str(x)
	case []byte:
		p.buf = append(p.buf, x...)
	case bool:
		if x {
			p.str("true")
		} else {
			p.str("false")
		}
	case error:
		p.str(x.Error())
	case stringer:
		p.str(x.String())
	case uint64:
		p.str(strconvx.FormatUint(x, 10))
	default:
		if i, ok := toInt(v); ok {
			p.str(strconvx.FormatInt(i, 10))
			return
		}
		p.str("?")
	}
}

func (p *printer) quote(s string) {
	p.buf = append(p.buf, '"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			p.buf = append(p.buf, '\\', c)
		case '\n':
			p.str(`\n`)
		case '\t':
			p.str(`\t`)
		default:
			p.buf = append(p.buf, c)
		}
	}
	p.buf = append(p.buf, '"')
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case error:
		return x.Error()
	case stringer:
		return x.String()
	}
	var p printer
	p.value(v)
	return string(p.buf)
}

func toInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	}
	return 0, false
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}
