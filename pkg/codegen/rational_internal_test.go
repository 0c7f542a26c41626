package codegen

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"pikac/pkg/abi"
	"pikac/pkg/ast"
	"pikac/pkg/types"
	"pikac/pkg/vm"
)

var _ = Describe("Rational", func() {
	// stored runs var r := e and returns the two words written to r.
	stored := func(e ast.Expr) (n, d int32) {
		gs := &globals{}
		decl, _ := gs.declare("r", types.Rational, e, false)
		code, err := Generate(program(gs.size, decl), Options{})
		Expect(err).NotTo(HaveOccurred())

		cfg := vm.DefaultConfig()
		cfg.MaxSteps = 100_000
		m, err := vm.New(code, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Run()).To(Succeed())

		base, ok := m.LabelAddress(abi.GlobalMemoryBlock)
		Expect(ok).To(BeTrue())
		n, err = m.Read32(base)
		Expect(err).NotTo(HaveOccurred())
		d, err = m.Read32(base + abi.RationalDenominatorOffset)
		Expect(err).NotTo(HaveOccurred())
		return n, d
	}

	printed := func(e ast.Expr) string {
		code, err := Generate(program(0, printOf(e)), Options{})
		Expect(err).NotTo(HaveOccurred())
		out, err := execute(code)
		Expect(err).NotTo(HaveOccurred())
		return out
	}

	DescribeTable("should keep values in lowest terms with a positive denominator",
		func(e ast.Expr, n, d int32) {
			gotN, gotD := stored(e)
			Expect(gotN).To(Equal(n))
			Expect(gotD).To(Equal(d))
		},
		Entry("already reduced", over(1, 2), int32(1), int32(2)),
		Entry("common factor", over(6, 4), int32(3), int32(2)),
		Entry("negative denominator", over(3, -9), int32(-1), int32(3)),
		Entry("both negative", over(-4, -8), int32(1), int32(2)),
		Entry("zero", over(0, 7), int32(0), int32(1)),
		Entry("sum", binary(ast.OpAdd, over(1, 6), over(1, 3), types.Rational), int32(1), int32(2)),
		Entry("difference to zero", binary(ast.OpSubtract, over(2, 3), over(4, 6), types.Rational), int32(0), int32(1)),
		Entry("promoted integer", intLit(-5), int32(-5), int32(1)),
		Entry("from float", typed(&ast.Cast{Target: types.Rational, Operand: floatLit(-1.25)}, types.Rational), int32(-5), int32(4)),
	)

	It("should reduce an already reduced value to itself", func() {
		n, d := stored(over(5, 3))
		again, againD := stored(over(n, d))
		Expect(again).To(Equal(n))
		Expect(againD).To(Equal(d))
	})

	DescribeTable("should print as whole part and remainder",
		func(e ast.Expr, want string) {
			Expect(printed(e)).To(Equal(want))
		},
		Entry("proper fraction", over(1, 2), "0_1/2"),
		Entry("negative mixed", over(-7, 2), "-3_1/2"),
		Entry("whole", over(4, 1), "4"),
		Entry("unreduced input", over(6, 4), "1_1/2"),
		Entry("zero", over(0, 3), "0"),
		Entry("negative whole", over(-8, 4), "-2"),
	)

	It("should reject a zero denominator at run time", func() {
		Expect(printed(over(3, 0))).To(Equal("Runtime error: rational divide by zero\n"))
	})
})
