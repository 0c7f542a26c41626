package vm

import (
	"fmt"
	"io"
	"strings"
)

// directive is one conversion in a format string.
type directive struct {
	spec string // flags, width and precision, without % and verb
	verb byte
}

// parseFormat splits a C-style format into literal text and directives.
// Supported verbs are %d %i %x %c %s %f %e %g and %%.
func parseFormat(format string) ([]any, error) {
	var parts []any
	var text strings.Builder
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			text.WriteByte(format[i])
			continue
		}
		j := i + 1
		for j < len(format) && strings.IndexByte("-+ #0123456789.", format[j]) >= 0 {
			j++
		}
		if j >= len(format) {
			return nil, fmt.Errorf("format %q ends inside a directive", format)
		}
		verb := format[j]
		if verb == '%' {
			text.WriteByte('%')
			i = j
			continue
		}
		if strings.IndexByte("dixcsfeg", verb) < 0 {
			return nil, fmt.Errorf("unsupported directive %%%c in format %q", verb, format)
		}
		if text.Len() > 0 {
			parts = append(parts, text.String())
			text.Reset()
		}
		parts = append(parts, directive{spec: format[i+1 : j], verb: verb})
		i = j
	}
	if text.Len() > 0 {
		parts = append(parts, text.String())
	}
	return parts, nil
}

// printf pops a format address, then one argument per directive. The
// arguments were pushed in directive order before the format.
func (m *Machine) printf() error {
	addr, err := m.popInt()
	if err != nil {
		return err
	}
	format, err := m.ReadString(int(addr))
	if err != nil {
		return err
	}
	parts, err := parseFormat(format)
	if err != nil {
		return err
	}

	var directives []directive
	for _, p := range parts {
		if d, ok := p.(directive); ok {
			directives = append(directives, d)
		}
	}
	args := make([]Value, len(directives))
	for i := len(args) - 1; i >= 0; i-- {
		if args[i], err = m.pop(); err != nil {
			return err
		}
	}

	var out strings.Builder
	next := 0
	for _, p := range parts {
		d, ok := p.(directive)
		if !ok {
			out.WriteString(p.(string))
			continue
		}
		s, err := m.convert(d, args[next])
		if err != nil {
			return err
		}
		out.WriteString(s)
		next++
	}
	_, err = io.WriteString(m.outputSink(), out.String())
	return err
}

func (m *Machine) convert(d directive, v Value) (string, error) {
	switch d.verb {
	case 'd', 'i', 'x', 'c':
		if v.Float {
			return "", fmt.Errorf("%w: %%%c needs an integer, got %s", ErrTypeMismatch, d.verb, v)
		}
		verb := d.verb
		if verb == 'i' {
			verb = 'd'
		}
		if verb == 'c' {
			return fmt.Sprintf("%"+d.spec+"c", rune(byte(v.I))), nil
		}
		return fmt.Sprintf("%"+d.spec+string(verb), v.I), nil
	case 's':
		if v.Float {
			return "", fmt.Errorf("%w: %%s needs an address, got %s", ErrTypeMismatch, v)
		}
		s, err := m.ReadString(int(v.I))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%"+d.spec+"s", s), nil
	}
	if !v.Float {
		return "", fmt.Errorf("%w: %%%c needs a float, got %s", ErrTypeMismatch, d.verb, v)
	}
	spec := d.spec
	// %g without a precision prints six significant digits.
	if d.verb == 'g' && !strings.Contains(spec, ".") {
		spec += ".6"
	}
	return fmt.Sprintf("%"+spec+string(d.verb), v.F), nil
}
