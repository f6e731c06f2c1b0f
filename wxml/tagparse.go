package wxml

import "strings"

// rawAttr is one attribute as scanned off the tag, before being routed into
// its family-specific home on the ElementKind being built.
type rawAttr struct {
	NameTok    Name
	Classified ClassifiedAttr
	Value      Value
	HasValue   bool
	EqRange    Range
}

// parseName reads a colon-separated identifier under the Name character
// classes (start: [A-Za-z_:], following adds [0-9-.]).
func (p *parser) parseName() (Name, bool) {
	r, ok := p.c.peekRune(0)
	if !ok || !isNameStartChar(r) {
		return Name{}, false
	}
	n := 0
	rest := p.c.remaining()
	for {
		r, size := decodeRuneInBytes(rest[n:])
		if size == 0 {
			break
		}
		if n == 0 {
			if !isNameStartChar(r) {
				break
			}
		} else if !isNameFollowingChar(r) {
			break
		}
		n += size
	}
	rng := p.c.advance(n)
	return Name{Text: p.c.slice(rng.Start.Offset, rng.End.Offset), Range: rng}, true
}

// parseColonSeparatedTagName parses a tag/end-tag name, applying the
// more-than-one-colon-segment rewrite rule: all but the last segment emit
// IllegalNamePrefix and the whole name becomes the literal "wx-x".
func (p *parser) parseColonSeparatedTagName() (Name, bool) {
	start := p.c.pos
	name, ok := p.parseName()
	if !ok {
		return Name{}, false
	}
	segs := strings.Split(name.Text, ":")
	if len(segs) > 1 {
		// Name characters are ASCII and never newlines, so a byte offset
		// within the name is also a column offset.
		off := 0
		for _, seg := range segs[:len(segs)-1] {
			s := name.Range.Start
			s.Offset += off
			s.Column += off
			e := s
			e.Offset += len(seg)
			e.Column += len(seg)
			p.c.addWarning(IllegalNamePrefix, span(s, e))
			off += len(seg) + 1
		}
		return Name{Text: "wx-x", Range: span(start, p.c.pos)}, true
	}
	return name, true
}

func elementKindForTagName(name string) ElementKindTag {
	switch name {
	case "block":
		return KindPure
	case "template":
		return KindTemplateRef
	case "include", "wxs", "import":
		return KindInclude
	case "slot":
		return KindSlot
	default:
		return KindNormal
	}
}

// parseElement parses one `<tag ...>`..`</tag>` (or self-closed / verbatim
// script) construct, returning the one-or-more Nodes it ultimately produces
// once control-flow directives have been lifted into synthetic For/If
// wrappers.
func (p *parser) parseElement() cfResult {
	tagStart := p.c.pos
	p.c.advance(1) // '<'
	if hasPrefixRaw(p.c, "!") {
		p.skipUntilAfterGT()
		node := Node{Kind: NodeUnknownMetaTag, Literal: p.c.slice(tagStart.Offset, p.c.pos.Offset), Rng: span(tagStart, p.c.pos)}
		return cfResult{nodes: []Node{node}}
	}

	tagName, ok := p.parseColonSeparatedTagName()
	if !ok {
		p.c.addWarningAtCurrentPosition(UnrecognizedTag)
		p.skipUntilAfterGT()
		return cfResult{}
	}
	kindTag := elementKindForTagName(tagName.Text)

	attrs := p.parseAttributes(kindTag)

	selfClose := false
	p.c.skipWhitespace()
	var closeMarker Range
	if r, ok := p.c.consumeStr("/>"); ok {
		selfClose = true
		slashEnd := r.Start
		slashEnd.Offset++
		slashEnd.Column++
		closeMarker = span(r.Start, slashEnd)
	} else if r, ok := p.c.consumeStr(">"); ok {
		closeMarker = r
	} else {
		p.c.addWarningAtCurrentPosition(IncompleteTag)
		p.skipUntilAfterGT()
		closeMarker = span(p.c.pos, p.c.pos)
		selfClose = true
	}
	tagRange := span(tagStart, p.c.pos)

	isScriptTag := tagName.Text == "wxs"

	var children []Node
	var verbatim string
	var verbatimRange Range
	var endTagRange *Range

	if !selfClose {
		if isScriptTag {
			bodyStart := p.c.pos
			for !p.c.done() {
				if hasPrefixRaw(p.c, "</wxs") {
					after := p.c.src[p.c.pos.Offset+5:]
					if len(after) == 0 || after[0] == '>' || isASCIISpace(after[0]) {
						break
					}
				}
				_, size := decodeRuneAt(p.c)
				p.c.advance(size)
			}
			verbatim = p.c.slice(bodyStart.Offset, p.c.pos.Offset)
			verbatimRange = span(bodyStart, p.c.pos)
			endTagRange = p.matchEndTag(tagName)
		} else {
			children = p.parseChildren(true)
			endTagRange = p.matchEndTag(tagName)
		}
	}

	elem, isDefinition := p.buildElementKind(kindTag, tagName, attrs, children, verbatim, verbatimRange)
	if isDefinition {
		return cfResult{}
	}
	element := &Element{Kind: elem, TagRange: tagRange, CloseMarker: closeMarker, EndTagRange: endTagRange}
	node := Node{Kind: NodeElement, Elem: element, Rng: tagRange}

	return p.buildControlFlow(node, attrs, kindTag, tagName, false)
}

// matchEndTag transactionally consumes `</name>`, matching the same
// colon-segment name rules as the opening tag. On mismatch the attempt is
// rewound, MissingEndTag is recorded, and already-parsed children remain
// attached to the element.
func (p *parser) matchEndTag(open Name) *Range {
	start := p.c.pos
	r, ok := tryParseCursor(p.c, func() (Range, bool) {
		s := p.c.pos
		if _, ok := p.c.consumeStr("</"); !ok {
			return Range{}, false
		}
		name, ok := p.parseColonSeparatedTagName()
		if !ok || name.Text != open.Text {
			return Range{}, false
		}
		p.c.skipWhitespace()
		for !p.c.done() && p.c.remaining()[0] != '>' {
			if !isASCIISpace(p.c.remaining()[0]) {
				p.c.addWarningAtCurrentPosition(UnexpectedCharacter)
			}
			_, size := decodeRuneAt(p.c)
			p.c.advance(size)
		}
		if _, ok := p.c.consumeStr(">"); !ok {
			return Range{}, false
		}
		return span(s, p.c.pos), true
	})
	if !ok {
		p.c.addWarning(MissingEndTag, span(start, start))
		return nil
	}
	return &r
}

// --- attributes ---

func (p *parser) parseAttributes(kind ElementKindTag) []rawAttr {
	var attrs []rawAttr
	for {
		ws, hadWS := p.c.skipWhitespace()
		if p.c.done() || hasPrefixRaw(p.c, "/>") || hasPrefixRaw(p.c, ">") {
			break
		}
		name, ok := p.parseName()
		if !ok {
			p.c.addWarningAtCurrentPosition(IllegalAttributeName)
			_, size := decodeRuneAt(p.c)
			p.c.advance(size)
			continue
		}
		if !hadWS && len(attrs) > 0 {
			p.c.addWarning(UnexpectedWhitespace, name.Range)
		}
		_ = ws

		classified := classifyAttrName(name.Text)
		if classified.HasErr {
			p.c.addWarning(classified.Err, name.Range)
		}

		eqWSBefore, hadEqWSBefore := p.c.skipWhitespace()
		var value Value
		hasValue := false
		var eqRange Range
		if r, ok := p.c.consumeStr("="); ok {
			eqRange = r
			if hadEqWSBefore {
				p.c.addWarning(UnexpectedWhitespace, eqWSBefore)
			}
			_, hadEqWSAfter := p.c.skipWhitespace()
			if hadEqWSAfter {
				p.c.addWarning(UnexpectedWhitespace, eqRange)
			}
			mode := valueModeFor(classified.Family, classified.Local, kind)
			value = p.parseAttrValue(mode)
			hasValue = true
		} else {
			if classified.Family != FamilyWxElse {
				p.c.addWarningAtCurrentPosition(MissingAttributeValue)
			}
			value = staticValue("", span(p.c.pos, p.c.pos))
		}

		attrs = append(attrs, rawAttr{NameTok: name, Classified: classified, Value: value, HasValue: hasValue, EqRange: eqRange})
	}
	return attrs
}

func (p *parser) parseAttrValue(mode AttrValueMode) Value {
	var quote byte
	if !p.c.done() && (p.c.remaining()[0] == '"' || p.c.remaining()[0] == '\'') {
		quote = p.c.remaining()[0]
		p.c.advance(1)
	}
	isTerm := func() bool {
		if quote != 0 {
			return !p.c.done() && p.c.remaining()[0] == quote
		}
		return p.c.done() || isASCIISpace(p.c.remaining()[0]) || p.c.remaining()[0] == '>' || hasPrefixRaw(p.c, "/>")
	}

	switch mode {
	case ValueModeStaticStr:
		start := p.c.pos
		var sb strings.Builder
		for !isTerm() {
			if hasPrefixRaw(p.c, "{{") {
				p.c.addWarningAtCurrentPosition(DataBindingNotAllowed)
			}
			r, size := decodeRuneAt(p.c)
			sb.WriteRune(r)
			p.c.advance(size)
		}
		v := staticValue(sb.String(), span(start, p.c.pos))
		if quote != 0 {
			p.c.consumeStr(string(quote))
		}
		return v
	case ValueModeScopeName:
		start := p.c.pos
		name, ok := p.parseIdentOrKeywordScopeName()
		if !ok {
			p.c.addWarning(InvalidIdentifier, span(start, p.c.pos))
		}
		for !isTerm() {
			p.c.addWarning(InvalidIdentifier, span(p.c.pos, p.c.pos))
			_, size := decodeRuneAt(p.c)
			p.c.advance(size)
		}
		v := staticValue(name, span(start, p.c.pos))
		if quote != 0 {
			p.c.consumeStr(string(quote))
		}
		return v
	default:
		v := p.scanValue(isTerm)
		if quote != 0 {
			p.c.consumeStr(string(quote))
		}
		return v
	}
}

func (p *parser) parseIdentOrKeywordScopeName() (string, bool) {
	r, ok := p.c.peekRune(0)
	if !ok || !isJSStartChar(r) {
		return "", false
	}
	n := 0
	rest := p.c.remaining()
	for {
		r, size := decodeRuneInBytes(rest[n:])
		if size == 0 {
			break
		}
		if n == 0 {
			if !isJSStartChar(r) {
				break
			}
		} else if !isJSFollowingChar(r) {
			break
		}
		n += size
	}
	text := string(rest[:n])
	p.c.advance(n)
	return text, true
}
