package codegen

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/you-not-fish/cmigrate/internal/ir"
	"github.com/you-not-fish/cmigrate/internal/types"
)

func TestExternDecls(t *testing.T) {
	i32 := Scalar{Go: "int32", C: "int32_t"}
	ptr := Scalar{Go: "*int8", C: "void*"}
	tests := []struct {
		name  string
		x     Extern
		proto string
		decl  string
	}{
		{
			name:  "function",
			x:     Extern{C: "abs", Name: "abs", Params: []Scalar{i32}, Result: i32},
			proto: `extern int32_t cm_abs(int32_t) __asm__(CM_SYM("abs"));`,
			decl:  "func abs(a0 int32) int32 {\n\treturn int32(C.cm_abs(C.int32_t(a0)))\n}\n",
		},
		{
			name:  "pointer result",
			x:     Extern{C: "getenv", Name: "getenv", Params: []Scalar{ptr}, Result: ptr},
			proto: `extern void* cm_getenv(void*) __asm__(CM_SYM("getenv"));`,
			decl:  "func getenv(a0 *int8) *int8 {\n\treturn (*int8)(C.cm_getenv(unsafe.Pointer(a0)))\n}\n",
		},
		{
			name:  "variadic",
			x:     Extern{C: "printf", Name: "printf", Variadic: true, Params: []Scalar{ptr}, Result: i32},
			proto: `extern int32_t cm_printf(void*, ...) __asm__(CM_SYM("printf"));`,
		},
		{
			name:  "unprototyped",
			x:     Extern{C: "old", Name: "old", NoProto: true, Result: i32},
			proto: `extern int32_t cm_old() __asm__(CM_SYM("old"));`,
			decl:  "func old() int32 {\n\treturn int32(C.cm_old())\n}\n",
		},
		{
			name: "stub",
			x:    Extern{C: "qsort", Name: "qsort", Stub: "takes int (*)(void const *, void const *)"},
			decl: "func qsort() {\n\tpanic(\"external function qsort takes int (*)(void const *, void const *)\")\n}\n",
		},
		{
			name:  "variable",
			x:     Extern{C: "errno_value", Name: "errno_value", Var: true, Type: "int32", Size: 4},
			proto: `extern char cm_errno_value __asm__(CM_SYM("errno_value"));`,
			decl:  "var errno_value int32\n\nfunc init() { errno_value = *(*int32)(unsafe.Pointer(&C.cm_errno_value)) }\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.proto, tt.x.Prototype())
			if diff := cmp.Diff(tt.decl, tt.x.GoDecl()); diff != "" {
				t.Errorf("GoDecl mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestShim(t *testing.T) {
	s := Shim{
		Name:   "printf_p_f64",
		Callee: "printf",
		Params: []Scalar{{Go: "*int8", C: "void*"}, {Go: "float64", C: "double"}},
		Result: Scalar{Go: "int32", C: "int32_t"},
	}
	assert.Equal(t, `static int32_t printf_p_f64(void* a0, double a1) { return cm_printf(a0, a1); }`, s.Prototype())
	assert.Equal(t, "func printf_p_f64(a0 *int8, a1 float64) int32 {\n\treturn int32(C.printf_p_f64(unsafe.Pointer(a0), C.double(a1)))\n}\n", s.GoDecl())

	void := Shim{Name: "log_i32", Callee: "log", Params: []Scalar{{Go: "int32", C: "int32_t"}}}
	assert.Equal(t, `static void log_i32(int32_t a0) { cm_log(a0); }`, void.Prototype())
}

func TestScalarCode(t *testing.T) {
	tests := []struct {
		s    Scalar
		want string
	}{
		{Scalar{C: "void*"}, "p"},
		{Scalar{C: "float"}, "f32"},
		{Scalar{C: "double"}, "f64"},
		{Scalar{C: "int32_t"}, "32"},
		{Scalar{C: "uint8_t"}, "u8"},
		{Scalar{C: "uint64_t"}, "u64"},
		{Scalar{C: "int64_t"}, "64"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.s.code(), tt.s.C)
	}
}

func TestExternFromUnit(t *testing.T) {
	b := newUnit(t)
	charp := b.g.NewPointer(b.charT, true)
	strlen := b.fn("strlen", b.g.Basic(types.ULong), []*ir.VarDecl{b.param("s", charp)})
	g := b.gen()
	g.externFunc(strlen, "strlen")
	xs := g.externList()
	if assert.Len(t, xs, 1) {
		assert.Empty(t, xs[0].Stub)
		assert.Equal(t, "func(*int8) uint64", xs[0].Sig())
		assert.Equal(t, `extern uint64_t cm_strlen(void*) __asm__(CM_SYM("strlen"));`, xs[0].Prototype())
	}
}
