package asm

import (
	"strings"
)

const operandColumn = 12

// Format renders a program one instruction per line. Labels start in
// column one; everything else is indented.
func Format(code []Instruction) string {
	var sb strings.Builder
	for _, in := range code {
		writeLine(&sb, in)
	}
	return sb.String()
}

func writeLine(sb *strings.Builder, in Instruction) {
	if in.Op != Label && in.Op != DLabel {
		sb.WriteString("        ")
	}
	name := in.Op.String()
	sb.WriteString(name)
	if operand := in.Operand(); operand != "" {
		if pad := operandColumn - len(name); pad > 0 {
			sb.WriteString(strings.Repeat(" ", pad))
		} else {
			sb.WriteByte(' ')
		}
		sb.WriteString(operand)
	}
	if in.Comment != "" {
		sb.WriteString("    ; ")
		sb.WriteString(in.Comment)
	}
	sb.WriteByte('\n')
}
