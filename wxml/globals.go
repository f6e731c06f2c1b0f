package wxml

// ScriptKind distinguishes an inline `<wxs module="m">...</wxs>` body from a
// `<wxs module="m" src="p" />` reference to an external module.
type ScriptKind int

const (
	ScriptInline ScriptKind = iota
	ScriptGlobalRef
)

type Script struct {
	Kind            ScriptKind
	ModuleName      Name
	Content         string // ScriptInline: verbatim source bytes
	ContentLocation Range  // ScriptInline
	Path            Name   // ScriptGlobalRef
}

// SubTemplate is one `<template name="n">...</template>` definition.
type SubTemplate struct {
	Name     Name
	Children []Node
}

// TemplateGlobals collects the source-order-independent declarations a
// template file makes: its imports, includes, named sub-templates and
// scripts. BindingMapCollector is a placeholder a later, out-of-scope pass
// populates with binding keys; the parser only initializes it empty.
type TemplateGlobals struct {
	Imports             []Name
	Includes            []Name
	SubTemplates        []SubTemplate
	Scripts             []Script
	BindingMapCollector []string
}

// Template is the parse entry point's result: the root node sequence plus
// the globals collected along the way.
type Template struct {
	Path    string
	Content []Node
	Globals TemplateGlobals
}
