package codegen

import (
	gomock "github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"pikac/pkg/abi"
	"pikac/pkg/asm"
	"pikac/pkg/ast"
	"pikac/pkg/types"
)

var _ = Describe("Binding", func() {
	var (
		mockCtrl    *gomock.Controller
		mockBinding *MockBinding
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		mockBinding = NewMockBinding(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	atGlobal := func(f *asm.Fragment) {
		f.AddLabel(asm.PushD, abi.GlobalMemoryBlock)
	}

	It("should be asked for its address once per use", func() {
		mockBinding.EXPECT().EmitAddress(gomock.Any()).Do(atGlobal).Times(3)

		id := func() *ast.Identifier { return ref("x", types.Integer, mockBinding) }
		p := program(4,
			&ast.Declaration{Name: id(), Init: intLit(5)},
			&ast.Assign{Target: id(), Value: binary(ast.OpAdd, id(), intLit(1), types.Integer)},
		)

		code, err := Generate(p, Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(code).NotTo(BeEmpty())
	})

	It("should load through the address the binding emits", func() {
		mockBinding.EXPECT().EmitAddress(gomock.Any()).Do(atGlobal).Times(2)

		p := program(4,
			&ast.Declaration{Name: ref("x", types.Integer, mockBinding), Init: intLit(41)},
			printOf(ref("x", types.Integer, mockBinding)),
		)
		code, err := Generate(p, Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(listing(code)).To(ContainSubstring(
			"PushD $global-memory-block\nLoadI\nPushD $print-format-integer\nPrintf"))

		out, err := execute(code)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("41"))
	})

	It("should not be asked for an address when a constant string is printed", func() {
		mockBinding.EXPECT().EmitAddress(gomock.Any()).Do(atGlobal).Times(1)

		p := program(4,
			&ast.Declaration{Name: ref("s", types.String, mockBinding), Init: strLit("pika"), Const: true},
			printOf(ref("s", types.String, mockBinding)),
		)
		code, err := Generate(p, Options{})
		Expect(err).NotTo(HaveOccurred())

		out, err := execute(code)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("pika"))
	})
})
