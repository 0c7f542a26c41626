package vm

import (
	"encoding/binary"
	"fmt"
	"math"

	"pikac/pkg/abi"
	"pikac/pkg/asm"
)

// image is a program split into executable code and its data layout.
type image struct {
	code       []asm.Instruction
	codeLabels map[string]int
	dataLabels map[string]int
	data       []byte // laid out from abi.DataBase
}

// load resolves labels in two passes. Code labels name the index of the next
// executable instruction; data labels name the address of the next datum.
// Data is laid out in stream order starting at abi.DataBase.
func load(program []asm.Instruction) (*image, error) {
	img := &image{
		codeLabels: make(map[string]int),
		dataLabels: make(map[string]int),
	}
	type fixup struct {
		offset int
		label  string
		line   int
	}
	var fixups []fixup

	for _, in := range program {
		switch in.Op {
		case asm.Label:
			if _, dup := img.codeLabels[in.Label]; dup {
				return nil, &LoadError{Line: in.Line, Detail: fmt.Sprintf("duplicate label %q", in.Label)}
			}
			img.codeLabels[in.Label] = len(img.code)
		case asm.DLabel:
			if _, dup := img.dataLabels[in.Label]; dup {
				return nil, &LoadError{Line: in.Line, Detail: fmt.Sprintf("duplicate data label %q", in.Label)}
			}
			img.dataLabels[in.Label] = abi.DataBase + len(img.data)
		case asm.DataC:
			img.data = append(img.data, byte(in.Int))
		case asm.DataI:
			img.data = binary.LittleEndian.AppendUint32(img.data, uint32(in.Int))
		case asm.DataF:
			img.data = binary.LittleEndian.AppendUint64(img.data, math.Float64bits(in.Float))
		case asm.DataS:
			img.data = append(img.data, in.Str...)
			img.data = append(img.data, 0)
		case asm.DataZ:
			if in.Int < 0 {
				return nil, &LoadError{Line: in.Line, Detail: fmt.Sprintf("negative DataZ size %d", in.Int)}
			}
			img.data = append(img.data, make([]byte, in.Int)...)
		case asm.DataD:
			fixups = append(fixups, fixup{offset: len(img.data), label: in.Label, line: in.Line})
			img.data = append(img.data, 0, 0, 0, 0)
		default:
			img.code = append(img.code, in)
		}
	}

	for _, fx := range fixups {
		addr, ok := img.address(fx.label)
		if !ok {
			return nil, &LoadError{Line: fx.line, Detail: fmt.Sprintf("undefined label %q", fx.label)}
		}
		binary.LittleEndian.PutUint32(img.data[fx.offset:], uint32(addr))
	}
	for _, in := range img.code {
		if in.Op.Operand() != asm.LabelOperand {
			continue
		}
		if in.Op == asm.PushD {
			if _, ok := img.address(in.Label); !ok {
				return nil, &LoadError{Line: in.Line, Detail: fmt.Sprintf("undefined label %q", in.Label)}
			}
			continue
		}
		if _, ok := img.codeLabels[in.Label]; !ok {
			return nil, &LoadError{Line: in.Line, Detail: fmt.Sprintf("undefined code label %q", in.Label)}
		}
	}
	return img, nil
}

// address resolves a label for PushD and DataD: data labels first, then code
// labels, which yield an instruction index.
func (img *image) address(label string) (int, bool) {
	if addr, ok := img.dataLabels[label]; ok {
		return addr, true
	}
	addr, ok := img.codeLabels[label]
	return addr, ok
}
