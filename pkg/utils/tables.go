package utils

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"pikac/pkg/abi"
	"pikac/pkg/asm"
)

// ListingTable renders a program with its instruction index, the label in
// force and any generator comment.
func ListingTable(code []asm.Instruction) string {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("Listing (%d instructions)", len(code)))
	t.AppendHeader(table.Row{"#", "Label", "Op", "Operand", "Comment"})

	for i, in := range code {
		if in.Op == asm.Label || in.Op == asm.DLabel {
			t.AppendRow(table.Row{i, in.Label, "", "", in.Comment})
			continue
		}
		t.AppendRow(table.Row{i, "", in.Op.String(), in.Operand(), in.Comment})
	}
	return t.Render()
}

// OpcodeTable counts how often each opcode occurs, most frequent first.
func OpcodeTable(code []asm.Instruction) string {
	counts := map[asm.Opcode]int{}
	for _, in := range code {
		counts[in.Op]++
	}
	ops := make([]asm.Opcode, 0, len(counts))
	for op := range counts {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool {
		if counts[ops[i]] != counts[ops[j]] {
			return counts[ops[i]] > counts[ops[j]]
		}
		return ops[i] < ops[j]
	})

	t := table.NewWriter()
	t.SetTitle("Opcode Usage")
	t.AppendHeader(table.Row{"Op", "Count"})
	for _, op := range ops {
		t.AppendRow(table.Row{op.String(), counts[op]})
	}
	t.AppendFooter(table.Row{"total", len(code)})
	t.Style().Format.Footer = text.FormatDefault
	return t.Render()
}

// ScratchTable renders the fixed scratch memory map below abi.DataBase.
func ScratchTable() string {
	t := table.NewWriter()
	t.SetTitle("Scratch Memory")
	t.AppendHeader(table.Row{"Range", "Start", "End", "Bytes"})
	for _, r := range abi.ScratchRanges {
		t.AppendRow(table.Row{
			r.Name,
			fmt.Sprintf("0x%03X", r.Start),
			fmt.Sprintf("0x%03X", r.End),
			r.End - r.Start,
		})
	}
	t.AppendFooter(table.Row{"data", fmt.Sprintf("0x%03X", abi.DataBase), "", ""})
	// Hex addresses keep their lowercase prefix.
	t.Style().Format.Footer = text.FormatDefault
	return t.Render()
}
