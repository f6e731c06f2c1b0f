package wxml

import "strings"

// Parse is the library's sole entry point: it turns template source text
// into a Template AST plus the diagnostics collected along the way. The
// parser never fails outright; every anomaly is a recorded Diagnostic and
// the AST is completed with placeholder values where content is missing.
func Parse(path string, src []byte) (*Template, []Diagnostic) {
	c := newCursor(path, src)
	p := &parser{c: c}
	content := p.parseChildren(false)
	t := &Template{Path: path, Content: content, Globals: p.globals}
	return t, c.diags
}

type parser struct {
	c       *cursor
	globals TemplateGlobals
}

func hasPrefixRaw(c *cursor, s string) bool {
	return strings.HasPrefix(string(c.remaining()), s)
}

// --- child sequence ---

func (p *parser) parseChildren(stopAtEndTag bool) []Node {
	var nodes []Node
	for {
		if p.c.done() {
			break
		}
		if hasPrefixRaw(p.c, "</") {
			if stopAtEndTag {
				break
			}
			start := p.c.pos
			p.skipUntilAfterGT()
			nodes = append(nodes, Node{Kind: NodeUnknownMetaTag, Literal: p.c.slice(start.Offset, p.c.pos.Offset), Rng: span(start, p.c.pos)})
			continue
		}
		if hasPrefixRaw(p.c, "<!--") {
			nodes = append(nodes, p.parseComment())
			continue
		}
		if hasPrefixRaw(p.c, "<") {
			res := p.parseElement()
			switch {
			case res.isElif:
				if target, hasPreceding := lastIfElement(nodes); target != nil {
					target.Kind.Branches = append(target.Kind.Branches, IfBranch{Rng: res.rng, Cond: res.cond, Children: res.children})
				} else if hasPreceding {
					p.c.addWarning(InvalidAttribute, res.rng)
				} else {
					p.c.addWarning(IllegalAttributeValue, res.rng)
				}
			case res.isElse:
				if target, hasPreceding := lastIfElement(nodes); target != nil {
					target.Kind.ElseBranch = &ElseBranch{Rng: res.rng, Children: res.children}
				} else if hasPreceding {
					p.c.addWarning(InvalidAttribute, res.rng)
				} else {
					p.c.addWarning(IllegalAttributeValue, res.rng)
				}
			default:
				nodes = append(nodes, res.nodes...)
			}
			continue
		}
		nodes = append(nodes, p.parseTextNode())
	}
	return nodes
}

func (p *parser) skipUntilAfterGT() {
	for !p.c.done() && p.c.remaining()[0] != '>' {
		_, size := decodeRuneAt(p.c)
		p.c.advance(size)
	}
	if !p.c.done() {
		p.c.advance(1)
	}
}

func (p *parser) parseComment() Node {
	start := p.c.pos
	p.c.advance(4) // "<!--"
	for !p.c.done() && !hasPrefixRaw(p.c, "-->") {
		_, size := decodeRuneAt(p.c)
		p.c.advance(size)
	}
	textStart := start.Offset + 4
	textEnd := p.c.pos.Offset
	if !p.c.done() {
		p.c.advance(3)
	}
	return Node{Kind: NodeComment, Literal: p.c.slice(textStart, textEnd), Rng: span(start, p.c.pos)}
}

func (p *parser) parseTextNode() Node {
	v := p.scanValue(func() bool { return hasPrefixRaw(p.c, "<") })
	return Node{Kind: NodeText, Text: v, Rng: v.Rng}
}

// --- value / text+interpolation concatenation ---

type valueSegment struct {
	literal bool
	text    string
	expr    Expression
}

// scanValue implements the text/attribute-value concatenation invariant: it
// folds alternating literal runs and `{{ }}` interpolations (with entity
// decoding applied to literal runs) into a left-folded Plus tree whose right
// leaf is always a LitStr, or into a bare LitStr when no interpolation
// occurred at all.
func (p *parser) scanValue(isTerminator func() bool) Value {
	start := p.c.pos
	var segs []valueSegment
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, valueSegment{literal: true, text: lit.String()})
			lit.Reset()
		}
	}
	for {
		if p.c.done() || isTerminator() {
			break
		}
		if hasPrefixRaw(p.c, "{{") {
			flush()
			p.c.advance(2)
			p.c.pushAutoWhitespace(true)
			expr, ok := parseInterpolationExpression(p.c)
			if !ok {
				p.c.addWarningAtCurrentPosition(IllegalExpression)
				expr = LitUndefined{Rng: span(p.c.pos, p.c.pos)}
			}
			if _, ok := p.c.consumeStr("}}"); !ok {
				p.c.addWarningAtCurrentPosition(MissingExpressionEnd)
			}
			p.c.popAutoWhitespace()
			segs = append(segs, valueSegment{expr: expr})
			continue
		}
		if p.c.remaining()[0] == '&' {
			if text, ok := p.decodeEntityHere(); ok {
				lit.WriteString(text)
				continue
			}
		}
		r, size := decodeRuneAt(p.c)
		lit.WriteRune(r)
		p.c.advance(size)
	}
	flush()
	end := p.c.pos
	rng := span(start, end)
	if len(segs) == 0 {
		return staticValue("", rng)
	}
	allLit := true
	for _, s := range segs {
		if !s.literal {
			allLit = false
			break
		}
	}
	if allLit {
		var sb strings.Builder
		for _, s := range segs {
			sb.WriteString(s.text)
		}
		return staticValue(sb.String(), rng)
	}
	var acc Expression
	for _, s := range segs {
		var part Expression
		if s.literal {
			part = LitStr{Value: s.text, Rng: rng}
		} else {
			part = wrapToStringWithoutUndefined(s.expr)
		}
		if acc == nil {
			acc = part
		} else {
			acc = Binary{Op: OpPlus, Left: acc, Right: part, Rng: rng}
		}
	}
	if !segs[len(segs)-1].literal {
		acc = Binary{Op: OpPlus, Left: acc, Right: LitStr{Value: "", Rng: span(end, end)}, Rng: rng}
	}
	return dynamicValue(acc, rng)
}

func wrapToStringWithoutUndefined(e Expression) Expression {
	if w, ok := e.(ToStringWithoutUndefined); ok {
		return w
	}
	return ToStringWithoutUndefined{Operand: e, Rng: e.ExprRange()}
}

// decodeEntityHere scans a `&name;`/`&#D+;`/`&#xH+;` reference at the
// cursor. It rewinds position alone on failure (never diagnostics): a
// malformed `&#xG;` must still record IllegalEntity even though the `&`
// ultimately falls back to being a literal character.
func (p *parser) decodeEntityHere() (string, bool) {
	return tryParsePositionOnly(p.c, func() (string, bool) {
		start := p.c.pos
		if _, ok := p.c.consumeStr("&"); !ok {
			return "", false
		}
		if _, ok := p.c.consumeStr("#"); ok {
			hex := false
			if _, ok := p.c.consumeStr("x"); ok {
				hex = true
			} else if _, ok := p.c.consumeStr("X"); ok {
				hex = true
			}
			digStart := p.c.pos.Offset
			for !p.c.done() {
				b := p.c.remaining()[0]
				if hex && isHexDigit(b) {
					p.c.advance(1)
					continue
				}
				if !hex && b >= '0' && b <= '9' {
					p.c.advance(1)
					continue
				}
				break
			}
			digits := p.c.slice(digStart, p.c.pos.Offset)
			if digits == "" {
				p.c.addWarning(IllegalEntity, span(start, p.c.pos))
				return "", false
			}
			if _, ok := p.c.consumeStr(";"); !ok {
				p.c.addWarning(IllegalEntity, span(start, p.c.pos))
				return "", false
			}
			if text, ok := decodeNumericEntity(digits, hex); ok {
				return text, true
			}
			p.c.addWarning(IllegalEntity, span(start, p.c.pos))
			return "", false
		}
		nameStart := p.c.pos.Offset
		for !p.c.done() {
			b := p.c.remaining()[0]
			if b == ';' || b == '&' || b == '<' || isASCIISpace(b) {
				break
			}
			p.c.advance(1)
			if p.c.pos.Offset-nameStart > 32 {
				break
			}
		}
		if p.c.done() || p.c.remaining()[0] != ';' {
			return "", false
		}
		name := p.c.slice(nameStart, p.c.pos.Offset)
		p.c.advance(1)
		if text, ok := decodeNamedEntity("&" + name + ";"); ok {
			return text, true
		}
		p.c.addWarning(IllegalEntity, span(start, p.c.pos))
		return "", false
	})
}
