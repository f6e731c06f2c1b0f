package wxml

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

// astEqual compares two parsed ASTs ignoring every Range and Position value,
// since stringifying and re-parsing never reproduces identical source spans
// but must reproduce an identical tree shape.
func astEqual(t *testing.T, got, want *Template) {
	t.Helper()
	opts := cmp.Options{
		cmpopts.IgnoreTypes(Range{}, Position{}),
		cmpopts.EquateEmpty(),
	}
	if diff := cmp.Diff(want, got, opts...); diff != "" {
		t.Errorf("AST mismatch after restringify+reparse (-want +got):\n%s", diff)
	}
}

func TestRoundTrip_StringifyThenReparseYieldsEqualTree(t *testing.T) {
	srcs := []string{
		`<view class="a {{b}}" style="color:{{c}}"><text>{{ x + y * 2 }}</text></view>`,
		`<div wx:for="{{list}}" wx:for-item="it" wx:for-index="i" wx:key="id">{{it.name}}</div>`,
		`<div wx:if="{{a}}">x</div><div wx:elif="{{b}}">y</div><div wx:else>z</div>`,
		`<template is="card" data="{{ {title, ...rest} }}"/>`,
		`<slot name="{{n}}" x="{{v}}"/>`,
		// A ternary stringifies with no spaces around `:` (cond?true:false);
		// the false branch must still re-parse as its own identifier rather
		// than swallowing the `:` into the identifier itself.
		`<div>{{a?b:c}}</div>`,
	}
	for _, src := range srcs {
		tpl1, diags1 := Parse("t.wxml", []byte(src))
		require.Empty(t, diagnosticKinds(diags1), src)

		out := StringifyTemplate(tpl1)
		tpl2, diags2 := Parse("t.wxml", []byte(out))
		require.Empty(t, diagnosticKinds(diags2), out)

		astEqual(t, tpl2, tpl1)
	}
}
