package wxml

// cfResult is the outcome of folding an element's control-flow attributes
// (wx:if/elif/else/for/for-item/for-index/key) into either ordinary nodes to
// append to the enclosing sequence, or a branch to attach onto the
// immediately preceding If sibling.
type cfResult struct {
	nodes    []Node
	isElif   bool
	isElse   bool
	rng      Range
	cond     Value
	children []Node
}

func findAttr(attrs []rawAttr, fam AttrFamily, local string) *rawAttr {
	for i := range attrs {
		if attrs[i].Classified.Family == fam && (local == "" || attrs[i].Classified.Local == local) {
			return &attrs[i]
		}
	}
	return nil
}

// flattenForWrap implements the wrap-children optimization: a content-only
// Pure element (no event bindings, no mark, no slot) contributes its
// children directly to the enclosing synthetic block instead of being kept
// as an extra wrapping layer.
func (p *parser) flattenForWrap(node Node) []Node {
	if node.Kind == NodeElement && node.Elem != nil && node.Elem.Kind.Tag == KindPure {
		k := node.Elem.Kind
		if len(k.EventBindings) == 0 && len(k.Mark) == 0 && k.Slot == nil {
			return k.Children
		}
	}
	return []Node{node}
}

func scopeNameOrDefault(attr *rawAttr, at Range) Name {
	if attr == nil {
		return Name{Text: "", Range: span(at.Start, at.Start)}
	}
	return Name{Text: attr.Value.Str, Range: attr.NameTok.Range}
}

// buildControlFlow lifts the wx:* directive attributes collected on an
// already-built element/node into For/If wrappers, or into a branch meant
// to attach onto the preceding sibling.
func (p *parser) buildControlFlow(node Node, attrs []rawAttr, kindTag ElementKindTag, tagName Name, isTemplateDefinition bool) cfResult {
	forAttr := findAttr(attrs, FamilyWxFor, "")
	ifAttr := findAttr(attrs, FamilyWxIf, "")
	elifAttr := findAttr(attrs, FamilyWxElif, "")
	elseAttr := findAttr(attrs, FamilyWxElse, "")
	itemAttr := findAttr(attrs, FamilyWxForItem, "")
	indexAttr := findAttr(attrs, FamilyWxForIndex, "")
	keyAttr := findAttr(attrs, FamilyWxKey, "")

	disallowed := isTemplateDefinition || tagName.Text == "import" || tagName.Text == "wxs"
	if disallowed {
		for _, a := range []*rawAttr{forAttr, ifAttr, elifAttr, elseAttr, itemAttr, indexAttr, keyAttr} {
			if a != nil {
				p.c.addWarning(InvalidAttribute, a.NameTok.Range)
			}
		}
		return cfResult{nodes: []Node{node}}
	}

	if elifAttr != nil {
		if forAttr != nil {
			p.c.addWarning(InvalidAttribute, forAttr.NameTok.Range)
		}
		return cfResult{isElif: true, rng: elifAttr.NameTok.Range, cond: elifAttr.Value, children: p.flattenForWrap(node)}
	}
	if elseAttr != nil {
		if forAttr != nil {
			p.c.addWarning(InvalidAttribute, forAttr.NameTok.Range)
		}
		return cfResult{isElse: true, rng: elseAttr.NameTok.Range, children: p.flattenForWrap(node)}
	}

	inner := node
	if ifAttr != nil {
		branch := IfBranch{Rng: ifAttr.NameTok.Range, Cond: ifAttr.Value, Children: p.flattenForWrap(node)}
		ifElem := &Element{
			Kind:        ElementKind{Tag: KindIf, Branches: []IfBranch{branch}},
			TagRange:    node.Rng,
			CloseMarker: node.Rng,
		}
		inner = Node{Kind: NodeElement, Elem: ifElem, Rng: node.Rng}
	}

	if forAttr != nil {
		item := scopeNameOrDefault(itemAttr, forAttr.NameTok.Range)
		index := scopeNameOrDefault(indexAttr, forAttr.NameTok.Range)
		key := scopeNameOrDefault(keyAttr, forAttr.NameTok.Range)
		forElem := &Element{
			Kind: ElementKind{
				Tag:       KindFor,
				List:      ValueRef{Rng: forAttr.NameTok.Range, Value: forAttr.Value},
				ItemName:  item,
				IndexName: index,
				Key:       key,
				Children:  p.flattenForWrap(inner),
			},
			TagRange:    node.Rng,
			CloseMarker: node.Rng,
		}
		return cfResult{nodes: []Node{{Kind: NodeElement, Elem: forElem, Rng: node.Rng}}}
	}

	return cfResult{nodes: []Node{inner}}
}

// lastIfElement returns the Element of the last node in nodes if it is an
// If wrapper, so wx:elif/wx:else can attach a branch by mutating it in
// place — positional look-behind, never a back reference stored in the
// child. hasPreceding reports whether any sibling precedes at all, so the
// caller can tell "no sibling" (IllegalAttributeValue) apart from "wrong
// kind of sibling" (InvalidAttribute).
func lastIfElement(nodes []Node) (target *Element, hasPreceding bool) {
	if len(nodes) == 0 {
		return nil, false
	}
	last := nodes[len(nodes)-1]
	if last.Kind != NodeElement || last.Elem == nil || last.Elem.Kind.Tag != KindIf {
		return nil, true
	}
	return last.Elem, true
}
