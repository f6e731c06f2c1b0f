package wxml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringifyExpression_PrecedencePairs(t *testing.T) {
	cases := []struct {
		name string
		expr Expression
		want string
	}{
		{
			name: "multiply left of plus needs no parens",
			expr: Binary{Op: OpPlus,
				Left:  Binary{Op: OpMultiply, Left: DataField{FieldName: "a"}, Right: DataField{FieldName: "b"}},
				Right: DataField{FieldName: "c"},
			},
			want: "a*b+c",
		},
		{
			name: "plus inside multiply needs parens",
			expr: Binary{Op: OpMultiply,
				Left:  Binary{Op: OpPlus, Left: DataField{FieldName: "a"}, Right: DataField{FieldName: "b"}},
				Right: DataField{FieldName: "c"},
			},
			want: "(a+b)*c",
		},
		{
			name: "minus does not reassociate on the right",
			expr: Binary{Op: OpMinus,
				Left:  DataField{FieldName: "a"},
				Right: Binary{Op: OpMinus, Left: DataField{FieldName: "b"}, Right: DataField{FieldName: "c"}},
			},
			want: "a-(b-c)",
		},
		{
			name: "minus left-associative chain has no parens",
			expr: Binary{Op: OpMinus,
				Left:  Binary{Op: OpMinus, Left: DataField{FieldName: "a"}, Right: DataField{FieldName: "b"}},
				Right: DataField{FieldName: "c"},
			},
			want: "a-b-c",
		},
		{
			name: "unary negative wraps a lower-precedence operand",
			expr: Unary{Op: UnaryNegative,
				Operand: Binary{Op: OpPlus, Left: DataField{FieldName: "a"}, Right: DataField{FieldName: "b"}},
			},
			want: " -(a+b)",
		},
		{
			name: "logic-or right operand at logic-and needs no parens",
			expr: Binary{Op: OpLogicOr,
				Left:  DataField{FieldName: "a"},
				Right: Binary{Op: OpLogicAnd, Left: DataField{FieldName: "b"}, Right: DataField{FieldName: "c"}},
			},
			want: "a||b&&c",
		},
		{
			name: "logic-and right operand at logic-or needs parens",
			expr: Binary{Op: OpLogicAnd,
				Left:  DataField{FieldName: "a"},
				Right: Binary{Op: OpLogicOr, Left: DataField{FieldName: "b"}, Right: DataField{FieldName: "c"}},
			},
			want: "a&&(b||c)",
		},
		{
			name: "ternary nests unparenthesized on the false branch",
			expr: Cond{
				Condition: DataField{FieldName: "a"},
				True:      DataField{FieldName: "b"},
				False: Cond{
					Condition: DataField{FieldName: "c"},
					True:      DataField{FieldName: "d"},
					False:     DataField{FieldName: "e"},
				},
			},
			want: "a?b:c?d:e",
		},
		{
			name: "ternary as its own condition needs parens",
			expr: Cond{
				Condition: Cond{
					Condition: DataField{FieldName: "a"},
					True:      DataField{FieldName: "b"},
					False:     DataField{FieldName: "c"},
				},
				True:  DataField{FieldName: "d"},
				False: DataField{FieldName: "e"},
			},
			want: "(a?b:c)?d:e",
		},
		{
			name: "static member chain",
			expr: StaticMember{
				Obj:  StaticMember{Obj: DataField{FieldName: "a"}, Name: Name{Text: "b"}},
				Name: Name{Text: "c"},
			},
			want: "a.b.c",
		},
	}
	for _, tc := range cases {
		got := StringifyExpression(tc.expr, nil)
		assert.Equal(t, tc.want, got, tc.name)
	}
}

func TestStringifyExpression_ObjectFieldShortcut(t *testing.T) {
	obj := LitObj{Fields: []ObjectField{
		{Kind: ObjectFieldNamed, Name: Name{Text: "a"}, Value: DataField{FieldName: "a"}},
		{Kind: ObjectFieldNamed, Name: Name{Text: "b"}, Value: LitInt{Value: 2}},
	}}
	assert.Equal(t, `{a,b:2}`, StringifyExpression(obj, nil))
}

func TestStringifyExpression_ScopeRefShortcutUsesScopeNames(t *testing.T) {
	obj := LitObj{Fields: []ObjectField{
		{Kind: ObjectFieldNamed, Name: Name{Text: "item"}, Value: ScopeRef{Index: 0}},
	}}
	assert.Equal(t, `{item}`, StringifyExpression(obj, []string{"item"}))
}

func TestStringifyExpression_ArrayEmptySlots(t *testing.T) {
	// A leading EmptySlot contributes no output of its own; the separator
	// comma before the following field is what visually marks the hole.
	leading := LitArr{Fields: []ArrayField{
		{Kind: ArrayFieldEmptySlot},
		{Kind: ArrayFieldNormal, Value: DataField{FieldName: "a"}},
	}}
	assert.Equal(t, `[,a]`, StringifyExpression(leading, nil))

	// Only the LAST field being an EmptySlot emits an extra trailing comma
	// on top of the ordinary field separator.
	trailing := LitArr{Fields: []ArrayField{
		{Kind: ArrayFieldNormal, Value: DataField{FieldName: "a"}},
		{Kind: ArrayFieldEmptySlot},
	}}
	assert.Equal(t, `[a,,]`, StringifyExpression(trailing, nil))
}

func TestStringifyExpression_BareToStringWithoutUndefinedPanics(t *testing.T) {
	assert.Panics(t, func() {
		StringifyExpression(ToStringWithoutUndefined{Operand: DataField{FieldName: "a"}}, nil)
	})
}

func TestStringify_TextInterpolationRoundTrip(t *testing.T) {
	tpl, diags := Parse("t.wxml", []byte(`<div>hello {{name}}!</div>`))
	require.Empty(t, diags)
	out := StringifyTemplate(tpl)
	assert.Equal(t, `<div>hello {{name}}!</div>`, out)
}

func TestStringify_IdempotentOnSecondPass(t *testing.T) {
	src := `<view wx:if="{{a > 1 && b}}" class="x {{y}}">{{ c ? d : e }}</view>`
	tpl1, diags1 := Parse("t.wxml", []byte(src))
	require.Empty(t, diags1)
	first := StringifyTemplate(tpl1)

	tpl2, diags2 := Parse("t.wxml", []byte(first))
	require.Empty(t, diags2)
	second := StringifyTemplate(tpl2)

	assert.Equal(t, first, second)
}
