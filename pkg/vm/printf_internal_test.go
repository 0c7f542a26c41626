package vm

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"pikac/pkg/asm"
)

var _ = Describe("Printf", func() {
	var (
		out bytes.Buffer
		m   *Machine
	)

	// run lays out one format string, pushes args, prints and halts.
	run := func(format string, args ...asm.Instruction) error {
		program := []asm.Instruction{
			{Op: asm.DLabel, Label: "format"},
			{Op: asm.DataS, Str: format},
			{Op: asm.DLabel, Label: "word"},
			{Op: asm.DataS, Str: "pika"},
		}
		program = append(program, args...)
		program = append(program,
			asm.Instruction{Op: asm.PushD, Label: "format"},
			asm.Instruction{Op: asm.Printf},
			asm.Instruction{Op: asm.Halt},
		)
		var err error
		m, err = New(program, Config{Output: &out})
		Expect(err).NotTo(HaveOccurred())
		return m.Run()
	}

	BeforeEach(func() {
		out.Reset()
	})

	It("should print literal text", func() {
		Expect(run("hello 100%%\n")).To(Succeed())
		Expect(out.String()).To(Equal("hello 100%\n"))
	})

	It("should print integers and characters", func() {
		Expect(run("%d:%c", asm.Instruction{Op: asm.PushI, Int: -12}, asm.Instruction{Op: asm.PushI, Int: 'x'})).To(Succeed())
		Expect(out.String()).To(Equal("-12:x"))
	})

	It("should print floats with six significant digits by default", func() {
		Expect(run("%g %g %g",
			asm.Instruction{Op: asm.PushF, Float: 2.5},
			asm.Instruction{Op: asm.PushF, Float: 1.0 / 3},
			asm.Instruction{Op: asm.PushF, Float: 1e6},
		)).To(Succeed())
		Expect(out.String()).To(Equal("2.5 0.333333 1e+06"))
	})

	It("should honour width and precision", func() {
		Expect(run("[%5.2f][%-3d]", asm.Instruction{Op: asm.PushF, Float: 3.14159}, asm.Instruction{Op: asm.PushI, Int: 7})).To(Succeed())
		Expect(out.String()).To(Equal("[ 3.14][7  ]"))
	})

	It("should print strings from memory", func() {
		Expect(run("<%s>", asm.Instruction{Op: asm.PushD, Label: "word"})).To(Succeed())
		Expect(out.String()).To(Equal("<pika>"))
	})

	It("should consume exactly its arguments", func() {
		Expect(run("%d", asm.Instruction{Op: asm.PushI, Int: 1}, asm.Instruction{Op: asm.PushI, Int: 2})).To(Succeed())
		Expect(out.String()).To(Equal("2"))
		Expect(m.Stack).To(Equal([]Value{{I: 1}}))
	})

	It("should reject a float for %d", func() {
		err := run("%d", asm.Instruction{Op: asm.PushF, Float: 1})
		Expect(err).To(MatchError(ContainSubstring("operand type mismatch")))
	})

	It("should reject unknown directives", func() {
		Expect(run("%q", asm.Instruction{Op: asm.PushI, Int: 1})).NotTo(Succeed())
	})

	It("should fail on a missing argument", func() {
		Expect(run("%d %d", asm.Instruction{Op: asm.PushI, Int: 1})).To(MatchError(ContainSubstring("underflow")))
	})
})

var _ = Describe("parseFormat", func() {
	It("should split text and directives", func() {
		parts, err := parseFormat("a%db%%c%.3g")
		Expect(err).NotTo(HaveOccurred())
		Expect(parts).To(Equal([]any{
			"a",
			directive{verb: 'd'},
			"b%c",
			directive{spec: ".3", verb: 'g'},
		}))
	})

	It("should reject a trailing percent", func() {
		_, err := parseFormat("50%")
		Expect(err).To(HaveOccurred())
	})
})
