package asm

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse reads assembly text produced by Format. Blank lines and `;`
// comments are ignored.
func Parse(text string) ([]Instruction, error) {
	var code []Instruction
	for i, raw := range strings.Split(text, "\n") {
		in, ok, err := parseLine(raw, i+1)
		if err != nil {
			return nil, err
		}
		if ok {
			code = append(code, in)
		}
	}
	return code, nil
}

func parseLine(raw string, lineNo int) (Instruction, bool, error) {
	line, comment := stripComments(raw)
	line = strings.TrimSpace(line)
	if line == "" {
		return Instruction{}, false, nil
	}

	mnemonic, operand, _ := strings.Cut(line, " ")
	operand = strings.TrimSpace(operand)
	op, ok := Lookup(mnemonic)
	if !ok {
		return Instruction{}, false, fmt.Errorf("unknown instruction %q on line %d", mnemonic, lineNo)
	}

	in := Instruction{Op: op, Line: lineNo, Comment: comment}
	if op.Operand() == NoOperand {
		if operand != "" {
			return in, false, fmt.Errorf("%s takes no operand on line %d", op, lineNo)
		}
		return in, true, nil
	}
	if operand == "" {
		return in, false, fmt.Errorf("%s expects an operand on line %d", op, lineNo)
	}

	switch op.Operand() {
	case IntOperand:
		n, err := strconv.ParseInt(operand, 0, 32)
		if err != nil {
			return in, false, fmt.Errorf("invalid integer %q on line %d", operand, lineNo)
		}
		in.Int = int32(n)
	case FloatOperand:
		x, err := strconv.ParseFloat(operand, 64)
		if err != nil {
			return in, false, fmt.Errorf("invalid float %q on line %d", operand, lineNo)
		}
		in.Float = x
	case LabelOperand:
		if strings.ContainsAny(operand, " \t\"") {
			return in, false, fmt.Errorf("invalid label %q on line %d", operand, lineNo)
		}
		in.Label = operand
	case StringOperand:
		s, err := strconv.Unquote(operand)
		if err != nil {
			return in, false, fmt.Errorf("invalid string literal on line %d", lineNo)
		}
		in.Str = s
	}
	return in, true, nil
}

// stripComments splits off a trailing `;` comment, ignoring semicolons
// inside a quoted string operand.
func stripComments(line string) (string, string) {
	inString := false
	escaped := false
	for i, r := range line {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && inString:
			escaped = true
		case r == '"':
			inString = !inString
		case r == ';' && !inString:
			return line[:i], strings.TrimSpace(line[i+1:])
		}
	}
	return line, ""
}
