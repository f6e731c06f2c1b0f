package wxml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diagnosticKinds(diags []Diagnostic) []DiagnosticKind {
	kinds := make([]DiagnosticKind, len(diags))
	for i, d := range diags {
		kinds[i] = d.Kind
	}
	return kinds
}

func TestParseAndStringify_EntityDecodeAndReEscape(t *testing.T) {
	src := `<div attr1='value 1' attr2=value&nbsp;2 > &lt;abc&gt; </div>`
	tpl, diags := Parse("t.wxml", []byte(src))
	require.Empty(t, diagnosticKinds(diags))

	out := StringifyTemplate(tpl)
	// &nbsp; decodes to U+00A0, not an ASCII space; the stringifier never
	// re-escapes it back to an entity since only &,<,> round-trip that way.
	assert.Equal(t, "<div attr1=\"value 1\" attr2=\"value 2\"> &lt;abc&gt; </div>", out)
}

func TestParseAndStringify_PrecedencePreservesNecessaryParens(t *testing.T) {
	src := `<div>{{ c - ( d + e ) * 3 }}</div>`
	tpl, diags := Parse("t.wxml", []byte(src))
	require.Empty(t, diagnosticKinds(diags))

	out := StringifyTemplate(tpl)
	assert.Equal(t, `<div>{{c-(d+e)*3}}</div>`, out)
}

func TestControlFlowLifting_IfForNesting(t *testing.T) {
	src := `<div wx:if="{{v}}" wx:for="{{list}}" wx:for-item="v" wx:for-index="i" wx:key="k">{{i}}</div>`
	tpl, diags := Parse("t.wxml", []byte(src))
	require.Empty(t, diagnosticKinds(diags))
	require.Len(t, tpl.Content, 1)

	forNode := tpl.Content[0]
	require.Equal(t, NodeElement, forNode.Kind)
	require.Equal(t, KindFor, forNode.Elem.Kind.Tag)
	require.Len(t, forNode.Elem.Kind.Children, 1)

	ifNode := forNode.Elem.Kind.Children[0]
	require.Equal(t, KindIf, ifNode.Elem.Kind.Tag)
	require.Len(t, ifNode.Elem.Kind.Branches, 1)

	out := StringifyTemplate(tpl)
	assert.Equal(t,
		`<block wx:for="{{list}}" wx:for-item="v" wx:for-index="i" wx:key="k"><block wx:if="{{v}}"><div>{{i}}</div></block></block>`,
		out)
}

func TestTemplateRef_MissingModuleNameOnlyWhenTargetEmpty(t *testing.T) {
	tpl, diags := Parse("t.wxml", []byte(`<template is='a' />`))
	require.Empty(t, diagnosticKinds(diags))
	out := StringifyTemplate(tpl)
	assert.Equal(t, `<template is="a"></template>`, out)

	_, diags2 := Parse("t.wxml", []byte(`<template />`))
	require.Contains(t, diagnosticKinds(diags2), MissingModuleName)
}

func TestMalformedNumericEntity_FallsBackToLiteralText(t *testing.T) {
	tpl, diags := Parse("t.wxml", []byte(`&#xG;`))
	require.Contains(t, diagnosticKinds(diags), IllegalEntity)
	require.Len(t, tpl.Content, 1)
	require.True(t, tpl.Content[0].Text.Static)
	assert.Equal(t, "&#xG;", tpl.Content[0].Text.Str)
}

func TestObjectLiteral_DuplicateFieldName(t *testing.T) {
	tpl, diags := Parse("t.wxml", []byte(`{{ {a, ...b, a: 2} }}`))
	require.Contains(t, diagnosticKinds(diags), DuplicatedName)
	require.Len(t, tpl.Content, 1)

	// A lone interpolation is folded as Plus(wrapped, "") so the right leaf
	// of the concatenation is always a LitStr.
	expr := tpl.Content[0].Text.Expr
	plus, ok := expr.(Binary)
	require.True(t, ok)
	require.Equal(t, OpPlus, plus.Op)
	wrapped, ok := plus.Left.(ToStringWithoutUndefined)
	require.True(t, ok)
	obj, ok := wrapped.Operand.(LitObj)
	require.True(t, ok)
	require.Len(t, obj.Fields, 3)
	assert.Equal(t, ObjectFieldNamed, obj.Fields[0].Kind)
	assert.Equal(t, ObjectFieldSpread, obj.Fields[1].Kind)
	assert.Equal(t, ObjectFieldNamed, obj.Fields[2].Kind)
	assert.Equal(t, "a", obj.Fields[0].Name.Text)
	assert.Equal(t, "a", obj.Fields[2].Name.Text)
}

func TestWxsInline_RegistersScriptAndNoTreeNode(t *testing.T) {
	tpl, diags := Parse("t.wxml", []byte(`<wxs module="m">var x = 1;</wxs>`))
	require.Empty(t, diagnosticKinds(diags))
	assert.Empty(t, tpl.Content)
	require.Len(t, tpl.Globals.Scripts, 1)
	assert.Equal(t, ScriptInline, tpl.Globals.Scripts[0].Kind)
	assert.Equal(t, "m", tpl.Globals.Scripts[0].ModuleName.Text)
	assert.Equal(t, "var x = 1;", tpl.Globals.Scripts[0].Content)
}

func TestWxsGlobalRef_RegistersScriptAndIncludeNode(t *testing.T) {
	tpl, diags := Parse("t.wxml", []byte(`<wxs module="m" src="./m.wxs" />`))
	require.Empty(t, diagnosticKinds(diags))
	require.Len(t, tpl.Globals.Scripts, 1)
	assert.Equal(t, ScriptGlobalRef, tpl.Globals.Scripts[0].Kind)
	require.Len(t, tpl.Content, 1)
	assert.Equal(t, KindInclude, tpl.Content[0].Elem.Kind.Tag)
	assert.Equal(t, "./m.wxs", tpl.Content[0].Elem.Kind.Path.Text)
}

func TestTemplateDefinition_NoTreeNodeAndDuplicateNameWarns(t *testing.T) {
	src := `<template name="a"><text>x</text></template><template name="a"><text>y</text></template>`
	tpl, diags := Parse("t.wxml", []byte(src))
	assert.Empty(t, tpl.Content)
	require.Len(t, tpl.Globals.SubTemplates, 2)
	assert.Contains(t, diagnosticKinds(diags), DuplicatedName)
}

func TestOrphanElif_NoPrecedingSibling(t *testing.T) {
	tpl, diags := Parse("t.wxml", []byte(`<div wx:elif="{{a}}">x</div>`))
	assert.Contains(t, diagnosticKinds(diags), IllegalAttributeValue)
	assert.Empty(t, tpl.Content)
}

func TestOrphanElif_IncompatiblePrecedingSibling(t *testing.T) {
	tpl, diags := Parse("t.wxml", []byte(`<span>x</span><div wx:elif="{{a}}">y</div>`))
	assert.Contains(t, diagnosticKinds(diags), InvalidAttribute)
	require.Len(t, tpl.Content, 1)
	assert.Equal(t, "span", tpl.Content[0].Elem.Kind.TagName.Text)
}

func TestMismatchedEndTag_RecordsMissingEndTagButKeepsChildren(t *testing.T) {
	tpl, diags := Parse("t.wxml", []byte(`<div><span>x</span></p>`))
	require.Contains(t, diagnosticKinds(diags), MissingEndTag)
	// The unmatched `</p>` stays at the top level as an UnknownMetaTag.
	require.Len(t, tpl.Content, 2)
	div := tpl.Content[0].Elem
	require.Len(t, div.Kind.Children, 1)
	require.Equal(t, NodeUnknownMetaTag, tpl.Content[1].Kind)
	assert.Equal(t, "</p>", tpl.Content[1].Literal)
}

func TestColonPrefixedTagName_RewritesToWxX(t *testing.T) {
	tpl, diags := Parse("t.wxml", []byte(`<a:b:c></a:b:c>`))
	require.Contains(t, diagnosticKinds(diags), IllegalNamePrefix)
	require.Len(t, tpl.Content, 1)
	assert.Equal(t, "wx-x", tpl.Content[0].Elem.Kind.TagName.Text)
}

func TestDuplicateAttribute_FirstWins(t *testing.T) {
	tpl, diags := Parse("t.wxml", []byte(`<div id="a" id="b"></div>`))
	require.Contains(t, diagnosticKinds(diags), DuplicatedAttribute)
	require.Len(t, tpl.Content[0].Elem.Kind.Attributes, 1)
	assert.Equal(t, "a", tpl.Content[0].Elem.Kind.Attributes[0].Value.Str)
}

func TestClassAndStyle_IndependentDuplicateBuckets(t *testing.T) {
	// REDESIGN-FLAG-BUG-FIX: style's duplicate check must read style's own
	// accumulator, not class's.
	tpl, diags := Parse("t.wxml", []byte(`<div class:a="1" class:a="2" style:a="3"></div>`))
	kinds := diagnosticKinds(diags)
	assert.Contains(t, kinds, DuplicatedAttribute)

	k := tpl.Content[0].Elem.Kind
	require.Equal(t, ClassStyleMultiple, k.Class.Kind)
	require.Len(t, k.Class.Multiple, 1)
	require.Equal(t, ClassStyleMultiple, k.Style.Kind)
	require.Len(t, k.Style.Multiple, 1)
}

func TestImport_OrdinaryChildParsing_FlagsNonEmptyChildren(t *testing.T) {
	tpl, diags := Parse("t.wxml", []byte(`<import src="a.wxml">text</import>`))
	require.Contains(t, diagnosticKinds(diags), ChildNodesNotAllowed)
	require.Len(t, tpl.Globals.Imports, 1)
	assert.Equal(t, "a.wxml", tpl.Globals.Imports[0].Text)
}
