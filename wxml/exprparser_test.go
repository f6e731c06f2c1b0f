package wxml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseExprSrc(t *testing.T, src string) (Expression, []Diagnostic) {
	t.Helper()
	c := newCursor("t.wxml", []byte(src))
	expr, ok := parseInterpolationExpression(c)
	require.True(t, ok, "expected %q to parse", src)
	return expr, c.diags
}

func TestNumberLiterals(t *testing.T) {
	cases := []struct {
		src      string
		wantInt  int64
		wantFlt  float64
		isFloat  bool
	}{
		{"0x1F", 31, 0, false},
		{"017", 15, 0, false},
		{"42", 42, 0, false},
		{"3.14", 0, 3.14, true},
		{"1e3", 0, 1000, true},
		{"1.5e-2", 0, 0.015, true},
	}
	for _, tc := range cases {
		expr, diags := parseExprSrc(t, tc.src)
		require.Empty(t, diags, tc.src)
		if tc.isFloat {
			lit, ok := expr.(LitFloat)
			require.True(t, ok, "%s: got %T", tc.src, expr)
			assert.InDelta(t, tc.wantFlt, lit.Value, 1e-9, tc.src)
		} else {
			lit, ok := expr.(LitInt)
			require.True(t, ok, "%s: got %T", tc.src, expr)
			assert.Equal(t, tc.wantInt, lit.Value, tc.src)
		}
	}
}

func TestStringLiteralEscapes(t *testing.T) {
	expr, diags := parseExprSrc(t, `"a\nb\tc\x41é"`)
	require.Empty(t, diags)
	lit, ok := expr.(LitStr)
	require.True(t, ok)
	assert.Equal(t, "a\nb\tc\x41é", lit.Value)
}

func TestPrecedence_MultiplyBindsTighterThanPlus(t *testing.T) {
	expr, diags := parseExprSrc(t, "a + b * c")
	require.Empty(t, diags)
	bin, ok := expr.(Binary)
	require.True(t, ok)
	assert.Equal(t, OpPlus, bin.Op)
	_, rightIsMultiply := bin.Right.(Binary)
	require.True(t, rightIsMultiply)
	assert.Equal(t, OpMultiply, bin.Right.(Binary).Op)
}

func TestPrecedence_LeftAssociativeChainNoNesting(t *testing.T) {
	// a - b - c parses as (a - b) - c: left is itself a Binary, right is a
	// plain DataField.
	expr, diags := parseExprSrc(t, "a - b - c")
	require.Empty(t, diags)
	bin, ok := expr.(Binary)
	require.True(t, ok)
	assert.Equal(t, OpMinus, bin.Op)
	left, ok := bin.Left.(Binary)
	require.True(t, ok)
	assert.Equal(t, OpMinus, left.Op)
	_, rightIsField := bin.Right.(DataField)
	assert.True(t, rightIsField)
}

func TestPrecedence_TernaryIsLowestAndRightAssociative(t *testing.T) {
	expr, diags := parseExprSrc(t, "a ? b : c ? d : e")
	require.Empty(t, diags)
	cond, ok := expr.(Cond)
	require.True(t, ok)
	_, falseIsCond := cond.False.(Cond)
	assert.True(t, falseIsCond, "ternary should nest on the false branch")
}

func TestOperatorDisambiguation_PlusNotPlusPlus(t *testing.T) {
	// Only a `+` immediately followed by another `+` is refused; `+ +`
	// separated by whitespace is a binary plus with a unary positive on the
	// right, not a `++` token.
	expr, diags := parseExprSrc(t, "a+ +b")
	require.Empty(t, diags)
	bin, ok := expr.(Binary)
	require.True(t, ok)
	assert.Equal(t, OpPlus, bin.Op)
	unary, ok := bin.Right.(Unary)
	require.True(t, ok)
	assert.Equal(t, UnaryPositive, unary.Op)
}

func TestOperatorDisambiguation_LogicAndVsBitAnd(t *testing.T) {
	expr, diags := parseExprSrc(t, "a && b & c")
	require.Empty(t, diags)
	bin, ok := expr.(Binary)
	require.True(t, ok)
	assert.Equal(t, OpLogicAnd, bin.Op)
	right, ok := bin.Right.(Binary)
	require.True(t, ok)
	assert.Equal(t, OpBitAnd, right.Op)
}

func TestMemberAndCallChain(t *testing.T) {
	expr, diags := parseExprSrc(t, "a.b[c].d(e, f)")
	require.Empty(t, diags)
	call, ok := expr.(FuncCall)
	require.True(t, ok)
	require.Len(t, call.Args, 2)
	member, ok := call.Callee.(StaticMember)
	require.True(t, ok)
	assert.Equal(t, "d", member.Name.Text)
	dyn, ok := member.Obj.(DynamicMember)
	require.True(t, ok)
	_, keyIsField := dyn.Key.(DataField)
	assert.True(t, keyIsField)
}

func TestUnaryOperatorsAndTypeofVoid(t *testing.T) {
	expr, diags := parseExprSrc(t, "typeof void !a")
	require.Empty(t, diags)
	outer, ok := expr.(Unary)
	require.True(t, ok)
	assert.Equal(t, UnaryTypeOf, outer.Op)
	mid, ok := outer.Operand.(Unary)
	require.True(t, ok)
	assert.Equal(t, UnaryVoid, mid.Op)
	inner, ok := mid.Operand.(Unary)
	require.True(t, ok)
	assert.Equal(t, UnaryReverse, inner.Op)
}

func TestObjectLiteralShorthandAndSpread(t *testing.T) {
	expr, diags := parseExprSrc(t, "{a, ...b, c: 1}")
	require.Empty(t, diags)
	obj, ok := expr.(LitObj)
	require.True(t, ok)
	require.Len(t, obj.Fields, 3)
	assert.Equal(t, ObjectFieldNamed, obj.Fields[0].Kind)
	df, ok := obj.Fields[0].Value.(DataField)
	require.True(t, ok)
	assert.Equal(t, "a", df.FieldName)
	assert.Equal(t, ObjectFieldSpread, obj.Fields[1].Kind)
	assert.Equal(t, ObjectFieldNamed, obj.Fields[2].Kind)
}

func TestArrayLiteral_LeadingConsecutiveAndTrailingEmptySlots(t *testing.T) {
	expr, diags := parseExprSrc(t, "[, a,, b,]")
	require.Empty(t, diags)
	arr, ok := expr.(LitArr)
	require.True(t, ok)
	// [, a,, b,] -> EmptySlot, a, EmptySlot, b, EmptySlot
	require.Len(t, arr.Fields, 5)
	assert.Equal(t, ArrayFieldEmptySlot, arr.Fields[0].Kind)
	assert.Equal(t, ArrayFieldNormal, arr.Fields[1].Kind)
	assert.Equal(t, ArrayFieldEmptySlot, arr.Fields[2].Kind)
	assert.Equal(t, ArrayFieldNormal, arr.Fields[3].Kind)
	assert.Equal(t, ArrayFieldEmptySlot, arr.Fields[4].Kind)
}

func TestImplicitTopLevelObjectLiteral(t *testing.T) {
	// The `{{ a: 1, b }}` form has no surrounding braces; the `{{`/`}}`
	// delimiters themselves play that role.
	expr, diags := parseExprSrc(t, "a: 1, b")
	require.Empty(t, diags)
	obj, ok := expr.(LitObj)
	require.True(t, ok)
	require.Len(t, obj.Fields, 2)
	assert.Equal(t, "a", obj.Fields[0].Name.Text)
	assert.Equal(t, "b", obj.Fields[1].Name.Text)
}

func TestKeywordLiterals(t *testing.T) {
	for _, tc := range []struct {
		src  string
		want Expression
	}{
		{"undefined", LitUndefined{}},
		{"null", LitNull{}},
		{"true", LitBool{Value: true}},
		{"false", LitBool{Value: false}},
	} {
		expr, diags := parseExprSrc(t, tc.src)
		require.Empty(t, diags, tc.src)
		switch want := tc.want.(type) {
		case LitBool:
			got, ok := expr.(LitBool)
			require.True(t, ok, tc.src)
			assert.Equal(t, want.Value, got.Value, tc.src)
		default:
			assert.IsType(t, tc.want, expr, tc.src)
		}
	}
}
