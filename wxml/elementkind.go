package wxml

import "strings"

// buildElementKind routes an element's already-scanned attributes (the
// wx:if/elif/else/for/for-item/for-index/key family is excluded here;
// buildControlFlow handles it separately) into the ElementKind shape fixed
// by the tag's kind. It returns isDefinition=true for `<template name="…">`,
// which contributes to TemplateGlobals.SubTemplates rather than to the node
// tree, and for `<wxs module="…">…</wxs>` with no `src`, which contributes a
// Script global instead.
func (p *parser) buildElementKind(kindTag ElementKindTag, tagName Name, attrs []rawAttr, children []Node, verbatim string, verbatimRange Range) (ElementKind, bool) {
	switch kindTag {
	case KindPure:
		return p.buildPure(attrs, children), false
	case KindTemplateRef:
		return p.buildTemplateRef(attrs, children, tagName)
	case KindInclude:
		return p.buildInclude(attrs, children, tagName, verbatim, verbatimRange)
	case KindSlot:
		return p.buildSlot(attrs), false
	default:
		return p.buildNormal(tagName, attrs, children), false
	}
}

type dedupAttrs struct {
	seen map[string]bool
}

func (d *dedupAttrs) add(p *parser, list *[]Attribute, kind AttributeKind, modelPrefix Range, name Name, value Value) {
	if d.seen == nil {
		d.seen = map[string]bool{}
	}
	if d.seen[name.Text] {
		p.c.addWarning(DuplicatedAttribute, name.Range)
		return
	}
	d.seen[name.Text] = true
	*list = append(*list, Attribute{Kind: kind, ModelPrefix: modelPrefix, Name: name, Value: value, Rng: name.Range})
}

type dedupEvents struct {
	seen map[string]bool
}

func (d *dedupEvents) add(p *parser, list *[]EventBinding, name Name, value Value, isCatch, isMut, isCapture bool) {
	if d.seen == nil {
		d.seen = map[string]bool{}
	}
	if d.seen[name.Text] {
		p.c.addWarning(DuplicatedAttribute, name.Range)
		return
	}
	d.seen[name.Text] = true
	*list = append(*list, EventBinding{Name: name, Value: value, IsCatch: isCatch, IsMut: isMut, IsCapture: isCapture, Rng: name.Range})
}

type classStyleBuilder struct {
	cs       ClassOrStyle
	single   bool
	multiple map[string]bool
}

func (b *classStyleBuilder) setSingle(p *parser, at Name, v Value) {
	if b.cs.Kind != ClassStyleNone {
		p.c.addWarning(DuplicatedAttribute, at.Range)
		return
	}
	b.cs = ClassOrStyle{Kind: ClassStyleSingle, Single: v}
}

func (b *classStyleBuilder) addEntry(p *parser, local Name, v Value) {
	if b.cs.Kind == ClassStyleSingle {
		p.c.addWarning(DuplicatedAttribute, local.Range)
		return
	}
	if b.multiple == nil {
		b.multiple = map[string]bool{}
	}
	if b.multiple[local.Text] {
		p.c.addWarning(DuplicatedAttribute, local.Range)
		return
	}
	b.multiple[local.Text] = true
	b.cs.Kind = ClassStyleMultiple
	b.cs.Multiple = append(b.cs.Multiple, ClassStyleEntry{Name: local, Value: v})
}

func isControlFlowFamily(fam AttrFamily) bool {
	switch fam {
	case FamilyWxIf, FamilyWxElif, FamilyWxElse, FamilyWxFor, FamilyWxForIndex, FamilyWxForItem, FamilyWxKey:
		return true
	}
	return false
}

func (p *parser) buildNormal(tagName Name, attrs []rawAttr, children []Node) ElementKind {
	k := ElementKind{Tag: KindNormal, TagName: tagName, Children: children}

	var plainAttrs dedupAttrs
	var changeAttrs dedupAttrs
	var workletAttrs dedupAttrs
	var dataAttrs dedupAttrs
	var markAttrs dedupAttrs
	var generics dedupAttrs
	var extraAttr dedupAttrs
	slotRefsSeen := map[string]bool{}
	var events dedupEvents
	var class classStyleBuilder
	var style classStyleBuilder
	var slotSeen bool

	for _, a := range attrs {
		c := a.Classified
		if isControlFlowFamily(c.Family) {
			continue
		}
		local := Name{Text: c.Local, Range: a.NameTok.Range}
		switch c.Family {
		case FamilyModel:
			plainAttrs.add(p, &k.Attributes, AttributeModel, a.NameTok.Range, local, a.Value)
		case FamilyChange:
			changeAttrs.add(p, &k.ChangeAttrs, AttributeNormal, Range{}, local, a.Value)
		case FamilyWorklet:
			workletAttrs.add(p, &k.WorkletAttrs, AttributeNormal, Range{}, local, a.Value)
		case FamilyData:
			dataAttrs.add(p, &k.Data, AttributeNormal, Range{}, local, a.Value)
		case FamilyMark:
			markAttrs.add(p, &k.Mark, AttributeNormal, Range{}, local, a.Value)
		case FamilyGeneric:
			generics.add(p, &k.Generics, AttributeNormal, Range{}, local, a.Value)
		case FamilyExtraAttr:
			extraAttr.add(p, &k.ExtraAttr, AttributeNormal, Range{}, local, a.Value)
		case FamilySlot:
			if slotRefsSeen[local.Text] {
				p.c.addWarning(DuplicatedAttribute, local.Range)
				continue
			}
			slotRefsSeen[local.Text] = true
			k.SlotValueRefs = append(k.SlotValueRefs, SlotValueRef{Name: local, Value: a.Value})
		case FamilyClass:
			class.addEntry(p, local, a.Value)
		case FamilyStyle:
			style.addEntry(p, local, a.Value)
		case FamilyBind:
			events.add(p, &k.EventBindings, local, a.Value, false, false, false)
		case FamilyMutBind:
			events.add(p, &k.EventBindings, local, a.Value, false, true, false)
		case FamilyCatch:
			events.add(p, &k.EventBindings, local, a.Value, true, false, false)
		case FamilyCaptureBind:
			events.add(p, &k.EventBindings, local, a.Value, false, false, true)
		case FamilyCaptureMutBind:
			events.add(p, &k.EventBindings, local, a.Value, false, true, true)
		case FamilyCaptureCatch:
			events.add(p, &k.EventBindings, local, a.Value, true, false, true)
		case FamilyPlain:
			switch c.Local {
			case "class":
				class.setSingle(p, a.NameTok, a.Value)
			case "style":
				style.setSingle(p, a.NameTok, a.Value)
			case "slot":
				if slotSeen {
					p.c.addWarning(DuplicatedAttribute, a.NameTok.Range)
					continue
				}
				slotSeen = true
				k.Slot = &SlotRef{Rng: a.NameTok.Range, Value: a.Value}
			default:
				plainAttrs.add(p, &k.Attributes, AttributeNormal, Range{}, a.NameTok, a.Value)
			}
		}
	}
	k.Class = class.cs
	k.Style = style.cs
	return k
}

func (p *parser) buildPure(attrs []rawAttr, children []Node) ElementKind {
	k := ElementKind{Tag: KindPure, Children: children}
	var events dedupEvents
	var markAttrs dedupAttrs
	var slotSeen bool
	for _, a := range attrs {
		c := a.Classified
		if isControlFlowFamily(c.Family) {
			continue
		}
		local := Name{Text: c.Local, Range: a.NameTok.Range}
		switch c.Family {
		case FamilyBind:
			events.add(p, &k.EventBindings, local, a.Value, false, false, false)
		case FamilyMutBind:
			events.add(p, &k.EventBindings, local, a.Value, false, true, false)
		case FamilyCatch:
			events.add(p, &k.EventBindings, local, a.Value, true, false, false)
		case FamilyCaptureBind:
			events.add(p, &k.EventBindings, local, a.Value, false, false, true)
		case FamilyCaptureMutBind:
			events.add(p, &k.EventBindings, local, a.Value, false, true, true)
		case FamilyCaptureCatch:
			events.add(p, &k.EventBindings, local, a.Value, true, false, true)
		case FamilyMark:
			markAttrs.add(p, &k.Mark, AttributeNormal, Range{}, local, a.Value)
		case FamilyPlain:
			if c.Local == "slot" {
				if slotSeen {
					p.c.addWarning(DuplicatedAttribute, a.NameTok.Range)
					continue
				}
				slotSeen = true
				k.Slot = &SlotRef{Rng: a.NameTok.Range, Value: a.Value}
			} else {
				p.c.addWarning(InvalidAttribute, a.NameTok.Range)
			}
		default:
			p.c.addWarning(InvalidAttribute, a.NameTok.Range)
		}
	}
	return k
}

func (p *parser) buildTemplateRef(attrs []rawAttr, children []Node, tagName Name) (ElementKind, bool) {
	nameAttr := findAttr(attrs, FamilyPlain, "name")
	if nameAttr != nil {
		st := SubTemplate{Name: Name{Text: nameAttr.Value.Str, Range: nameAttr.NameTok.Range}, Children: children}
		for _, existing := range p.globals.SubTemplates {
			if existing.Name.Text == st.Name.Text {
				p.c.addWarning(DuplicatedName, nameAttr.NameTok.Range)
				break
			}
		}
		p.globals.SubTemplates = append(p.globals.SubTemplates, st)
		return ElementKind{Tag: KindTemplateRef}, true
	}

	k := ElementKind{Tag: KindTemplateRef}
	var events dedupEvents
	var markAttrs dedupAttrs
	var slotSeen, targetSeen, dataSeen bool
	for _, a := range attrs {
		c := a.Classified
		if isControlFlowFamily(c.Family) {
			continue
		}
		local := Name{Text: c.Local, Range: a.NameTok.Range}
		switch c.Family {
		case FamilyBind:
			events.add(p, &k.EventBindings, local, a.Value, false, false, false)
		case FamilyMutBind:
			events.add(p, &k.EventBindings, local, a.Value, false, true, false)
		case FamilyCatch:
			events.add(p, &k.EventBindings, local, a.Value, true, false, false)
		case FamilyCaptureBind:
			events.add(p, &k.EventBindings, local, a.Value, false, false, true)
		case FamilyCaptureMutBind:
			events.add(p, &k.EventBindings, local, a.Value, false, true, true)
		case FamilyCaptureCatch:
			events.add(p, &k.EventBindings, local, a.Value, true, false, true)
		case FamilyMark:
			markAttrs.add(p, &k.Mark, AttributeNormal, Range{}, local, a.Value)
		case FamilyPlain:
			switch c.Local {
			case "is":
				if targetSeen {
					p.c.addWarning(DuplicatedAttribute, a.NameTok.Range)
					continue
				}
				targetSeen = true
				k.Target = a.Value
			case "data":
				if dataSeen {
					p.c.addWarning(DuplicatedAttribute, a.NameTok.Range)
					continue
				}
				dataSeen = true
				k.Data1 = a.Value
			case "slot":
				if slotSeen {
					p.c.addWarning(DuplicatedAttribute, a.NameTok.Range)
					continue
				}
				slotSeen = true
				k.Slot = &SlotRef{Rng: a.NameTok.Range, Value: a.Value}
			default:
				p.c.addWarning(InvalidAttribute, a.NameTok.Range)
			}
		default:
			p.c.addWarning(InvalidAttribute, a.NameTok.Range)
		}
	}
	if !targetSeen && tagName.Text == "template" {
		p.c.addWarningAtCurrentPosition(MissingModuleName)
	}
	return k, false
}

// buildInclude handles <include>, <wxs> and <import>. A `<wxs module="…">`
// with no `src` registers a Script::Inline global (its body was captured
// verbatim by the caller) instead of producing a tree node; one with `src`
// registers Script::GlobalRef and still yields an Include node carrying the
// path, matching the ElementKind data model's inclusion of wxs alongside
// include/import.
func (p *parser) buildInclude(attrs []rawAttr, children []Node, tagName Name, verbatim string, verbatimRange Range) (ElementKind, bool) {
	isScript := tagName.Text == "wxs"
	srcAttr := findAttr(attrs, FamilyPlain, "src")
	moduleAttr := findAttr(attrs, FamilyPlain, "module")

	if isScript {
		for _, a := range attrs {
			if a.Classified.Family == FamilyPlain && (a.Classified.Local == "src" || a.Classified.Local == "module") {
				continue
			}
			if isControlFlowFamily(a.Classified.Family) {
				continue
			}
			p.c.addWarning(InvalidAttribute, a.NameTok.Range)
		}
		if moduleAttr == nil {
			p.c.addWarningAtCurrentPosition(MissingModuleName)
			return ElementKind{Tag: KindInclude}, true
		}
		moduleName := Name{Text: moduleAttr.Value.Str, Range: moduleAttr.NameTok.Range}
		if srcAttr != nil {
			if len(strings.TrimSpace(verbatim)) != 0 {
				p.c.addWarning(ChildNodesNotAllowed, verbatimRange)
			}
			p.globals.Scripts = append(p.globals.Scripts, Script{Kind: ScriptGlobalRef, ModuleName: moduleName, Path: Name{Text: srcAttr.Value.Str, Range: srcAttr.NameTok.Range}})
			return ElementKind{Tag: KindInclude, Path: Name{Text: srcAttr.Value.Str, Range: srcAttr.NameTok.Range}}, false
		}
		p.globals.Scripts = append(p.globals.Scripts, Script{Kind: ScriptInline, ModuleName: moduleName, Content: verbatim, ContentLocation: verbatimRange})
		return ElementKind{Tag: KindInclude}, true
	}

	// include / import: ordinary child-node parsing; children are never kept
	// on the Include node, and non-empty children are flagged only for
	// import (for include they are dropped without a diagnostic).
	k := ElementKind{Tag: KindInclude}
	var events dedupEvents
	var markAttrs dedupAttrs
	var slotSeen bool
	for _, a := range attrs {
		c := a.Classified
		if isControlFlowFamily(c.Family) {
			continue
		}
		local := Name{Text: c.Local, Range: a.NameTok.Range}
		switch c.Family {
		case FamilyBind:
			events.add(p, &k.EventBindings, local, a.Value, false, false, false)
		case FamilyMutBind:
			events.add(p, &k.EventBindings, local, a.Value, false, true, false)
		case FamilyCatch:
			events.add(p, &k.EventBindings, local, a.Value, true, false, false)
		case FamilyCaptureBind:
			events.add(p, &k.EventBindings, local, a.Value, false, false, true)
		case FamilyCaptureMutBind:
			events.add(p, &k.EventBindings, local, a.Value, false, true, true)
		case FamilyCaptureCatch:
			events.add(p, &k.EventBindings, local, a.Value, true, false, true)
		case FamilyMark:
			markAttrs.add(p, &k.Mark, AttributeNormal, Range{}, local, a.Value)
		case FamilyPlain:
			switch c.Local {
			case "src":
				k.Path = Name{Text: a.Value.Str, Range: a.NameTok.Range}
			case "slot":
				if slotSeen {
					p.c.addWarning(DuplicatedAttribute, a.NameTok.Range)
					continue
				}
				slotSeen = true
				k.Slot = &SlotRef{Rng: a.NameTok.Range, Value: a.Value}
			default:
				p.c.addWarning(InvalidAttribute, a.NameTok.Range)
			}
		default:
			p.c.addWarning(InvalidAttribute, a.NameTok.Range)
		}
	}
	if k.Path.Text == "" {
		p.c.addWarningAtCurrentPosition(MissingSourcePath)
	}
	if tagName.Text == "import" && len(children) > 0 {
		p.c.addWarning(ChildNodesNotAllowed, children[0].Rng)
	}
	if tagName.Text == "include" {
		p.globals.Includes = append(p.globals.Includes, k.Path)
	} else {
		p.globals.Imports = append(p.globals.Imports, k.Path)
	}
	return k, false
}

func (p *parser) buildSlot(attrs []rawAttr) ElementKind {
	k := ElementKind{Tag: KindSlot}
	var events dedupEvents
	var markAttrs dedupAttrs
	var values dedupAttrs
	var slotNameSeen bool
	for _, a := range attrs {
		c := a.Classified
		if isControlFlowFamily(c.Family) {
			continue
		}
		local := Name{Text: c.Local, Range: a.NameTok.Range}
		switch c.Family {
		case FamilyBind:
			events.add(p, &k.EventBindings, local, a.Value, false, false, false)
		case FamilyMutBind:
			events.add(p, &k.EventBindings, local, a.Value, false, true, false)
		case FamilyCatch:
			events.add(p, &k.EventBindings, local, a.Value, true, false, false)
		case FamilyCaptureBind:
			events.add(p, &k.EventBindings, local, a.Value, false, false, true)
		case FamilyCaptureMutBind:
			events.add(p, &k.EventBindings, local, a.Value, false, true, true)
		case FamilyCaptureCatch:
			events.add(p, &k.EventBindings, local, a.Value, true, false, true)
		case FamilyMark:
			markAttrs.add(p, &k.Mark, AttributeNormal, Range{}, local, a.Value)
		case FamilyPlain:
			switch c.Local {
			case "name":
				if slotNameSeen {
					p.c.addWarning(DuplicatedAttribute, a.NameTok.Range)
					continue
				}
				slotNameSeen = true
				v := a.Value
				k.SlotName = &v
			default:
				values.add(p, &k.SlotValues, AttributeNormal, Range{}, a.NameTok, a.Value)
			}
		default:
			p.c.addWarning(InvalidAttribute, a.NameTok.Range)
		}
	}
	return k
}
