package wxml

import (
	"fmt"
	"strconv"
	"strings"
)

// InvariantError is the panic value raised when the stringifier is handed an
// AST that violates an internal invariant (a bare ToStringWithoutUndefined
// outside a Plus tree). It is never raised for anomalies in parsed input —
// those are always diagnostics, never panics.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string { return e.Msg }

// ExpressionLevel orders the precedence tiers the stringifier consults to
// decide whether an operand needs parenthesizing around its parent.
type ExpressionLevel int

const (
	LevelLit ExpressionLevel = iota
	LevelMember
	LevelUnary
	LevelMultiply
	LevelPlus
	LevelComparison
	LevelEq
	LevelBitAnd
	LevelBitXor
	LevelBitOr
	LevelLogicAnd
	LevelLogicOr
	LevelCond
)

func levelOf(e Expression) ExpressionLevel {
	switch v := e.(type) {
	case ScopeRef, DataField, LitUndefined, LitNull, LitStr, LitInt, LitFloat, LitBool, LitObj, LitArr:
		return LevelLit
	case ToStringWithoutUndefined:
		return LevelMember
	case StaticMember, DynamicMember, FuncCall:
		return LevelMember
	case Unary:
		return LevelUnary
	case Binary:
		switch v.Op {
		case OpMultiply, OpDivide, OpRemainder:
			return LevelMultiply
		case OpPlus, OpMinus:
			return LevelPlus
		case OpLt, OpLte, OpGt, OpGte, OpInstanceOf:
			return LevelComparison
		case OpEq, OpNe, OpEqFull, OpNeFull:
			return LevelEq
		case OpBitAnd:
			return LevelBitAnd
		case OpBitXor:
			return LevelBitXor
		case OpBitOr:
			return LevelBitOr
		case OpLogicAnd:
			return LevelLogicAnd
		case OpLogicOr, OpNullishCoalescing:
			return LevelLogicOr
		}
	case Cond:
		return LevelCond
	}
	panic(&InvariantError{Msg: fmt.Sprintf("stringify: unhandled expression type %T", e)})
}

// Stringifier is a stateful writer over an output buffer plus a scope-name
// table (ScopeRef index -> identifier), mirroring the object-field shortcut
// rule's need to compare a ScopeRef against its current name.
type Stringifier struct {
	buf        strings.Builder
	scopeNames []string
}

func NewStringifier(scopeNames []string) *Stringifier {
	return &Stringifier{scopeNames: scopeNames}
}

func (s *Stringifier) scopeName(index int) string {
	if index >= 0 && index < len(s.scopeNames) {
		return s.scopeNames[index]
	}
	return ""
}

func (s *Stringifier) write(str string) { s.buf.WriteString(str) }

// StringifyTemplate renders a parsed Template back to canonical source text.
// Markup emission is deterministic from the AST; it never re-derives
// decisions from source Ranges.
func StringifyTemplate(t *Template) string {
	s := NewStringifier(nil)
	s.writeNodes(t.Content)
	return s.buf.String()
}

// StringifyExpression renders a single expression at the top (Cond) level,
// used by tooling that wants to re-emit an isolated `{{ ... }}` body.
func StringifyExpression(e Expression, scopeNames []string) string {
	s := NewStringifier(scopeNames)
	s.writeExpr(e, LevelCond)
	return s.buf.String()
}

// --- expression emission ---

func (s *Stringifier) writeExpr(e Expression, accept ExpressionLevel) {
	if levelOf(e) > accept {
		s.write("(")
		s.writeExpr(e, LevelCond)
		s.write(")")
		return
	}
	switch v := e.(type) {
	case ScopeRef:
		s.write(s.scopeName(v.Index))
	case DataField:
		s.write(v.FieldName)
	case ToStringWithoutUndefined:
		panic(&InvariantError{Msg: "stringify: bare ToStringWithoutUndefined outside a Plus tree"})
	case LitUndefined:
		s.write("undefined")
	case LitNull:
		s.write("null")
	case LitStr:
		s.write(quoteJSString(v.Value))
	case LitInt:
		s.write(strconv.FormatInt(v.Value, 10))
	case LitFloat:
		s.write(strconv.FormatFloat(v.Value, 'g', -1, 64))
	case LitBool:
		if v.Value {
			s.write("true")
		} else {
			s.write("false")
		}
	case LitObj:
		s.writeLitObj(v)
	case LitArr:
		s.writeLitArr(v)
	case StaticMember:
		s.writeExpr(v.Obj, LevelMember)
		s.write(".")
		s.write(v.Name.Text)
	case DynamicMember:
		s.writeExpr(v.Obj, LevelMember)
		s.write("[")
		s.writeExpr(v.Key, LevelCond)
		s.write("]")
	case FuncCall:
		s.writeExpr(v.Callee, LevelMember)
		s.write("(")
		for i, a := range v.Args {
			if i > 0 {
				s.write(",")
			}
			s.writeExpr(a, LevelCond)
		}
		s.write(")")
	case Unary:
		s.writeUnary(v)
	case Binary:
		s.writeBinary(v)
	case Cond:
		s.writeExpr(v.Condition, LevelLogicOr)
		s.write("?")
		s.writeExpr(v.True, LevelCond)
		s.write(":")
		s.writeExpr(v.False, LevelCond)
	default:
		panic(&InvariantError{Msg: fmt.Sprintf("stringify: unhandled expression type %T", e)})
	}
}

func (s *Stringifier) writeLitObj(v LitObj) {
	s.write("{")
	for i, f := range v.Fields {
		if i > 0 {
			s.write(",")
		}
		switch f.Kind {
		case ObjectFieldSpread:
			s.write("...")
			s.writeExpr(f.Value, LevelCond)
		default:
			isShortcut := false
			switch val := f.Value.(type) {
			case ScopeRef:
				isShortcut = s.scopeName(val.Index) == f.Name.Text
			case DataField:
				isShortcut = val.FieldName == f.Name.Text
			}
			s.write(f.Name.Text)
			if !isShortcut {
				s.write(":")
				s.writeExpr(f.Value, LevelCond)
			}
		}
	}
	s.write("}")
}

func (s *Stringifier) writeLitArr(v LitArr) {
	s.write("[")
	for i, f := range v.Fields {
		if i > 0 {
			s.write(",")
		}
		switch f.Kind {
		case ArrayFieldSpread:
			s.write("...")
			s.writeExpr(f.Value, LevelCond)
		case ArrayFieldEmptySlot:
			if i == len(v.Fields)-1 {
				s.write(",")
			}
		default:
			s.writeExpr(f.Value, LevelCond)
		}
	}
	s.write("]")
}

func (s *Stringifier) writeUnary(v Unary) {
	switch v.Op {
	case UnaryReverse:
		s.write("!")
	case UnaryBitReverse:
		s.write("~")
	case UnaryPositive:
		s.write(" +")
	case UnaryNegative:
		s.write(" -")
	case UnaryTypeOf:
		s.write(" typeof ")
	case UnaryVoid:
		s.write(" void ")
	}
	s.writeExpr(v.Operand, LevelUnary)
}

// writeBinary passes the tighter level on the right-hand side of each
// left-associative operator (e.g. Plus -> left at Plus, right at Multiply),
// so a left-folded chain re-emits without redundant parentheses while a
// right operand at or above the operator's own level still gets one.
func (s *Stringifier) writeBinary(v Binary) {
	leftLevel := levelOf(v)
	var rightLevel ExpressionLevel
	var tok string
	switch v.Op {
	case OpMultiply:
		tok, rightLevel = "*", LevelUnary
	case OpDivide:
		tok, rightLevel = "/", LevelUnary
	case OpRemainder:
		tok, rightLevel = "%", LevelUnary
	case OpPlus:
		tok, rightLevel = "+", LevelMultiply
	case OpMinus:
		tok, rightLevel = "-", LevelMultiply
	case OpLt:
		tok, rightLevel = "<", LevelPlus
	case OpLte:
		tok, rightLevel = "<=", LevelPlus
	case OpGt:
		tok, rightLevel = ">", LevelPlus
	case OpGte:
		tok, rightLevel = ">=", LevelPlus
	case OpInstanceOf:
		tok, rightLevel = " instanceof ", LevelPlus
	case OpEq:
		tok, rightLevel = "==", LevelComparison
	case OpNe:
		tok, rightLevel = "!=", LevelComparison
	case OpEqFull:
		tok, rightLevel = "===", LevelComparison
	case OpNeFull:
		tok, rightLevel = "!==", LevelComparison
	case OpBitAnd:
		tok, rightLevel = "&", LevelEq
	case OpBitXor:
		tok, rightLevel = "^", LevelBitAnd
	case OpBitOr:
		tok, rightLevel = "|", LevelBitXor
	case OpLogicAnd:
		tok, rightLevel = "&&", LevelBitOr
	case OpLogicOr:
		tok, rightLevel = "||", LevelLogicAnd
	case OpNullishCoalescing:
		tok, rightLevel = "??", LevelLogicAnd
	}
	s.writeExpr(v.Left, leftLevel)
	s.write(tok)
	s.writeExpr(v.Right, rightLevel)
}

func quoteJSString(str string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range str {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// --- markup emission ---

func (s *Stringifier) writeNodes(nodes []Node) {
	for _, n := range nodes {
		s.writeNode(n)
	}
}

func (s *Stringifier) writeNode(n Node) {
	switch n.Kind {
	case NodeText:
		s.writeTextValue(n.Text)
	case NodeComment:
		s.write("<!--")
		s.write(n.Literal)
		s.write("-->")
	case NodeUnknownMetaTag:
		s.write(n.Literal)
	case NodeElement:
		s.writeElement(n.Elem)
	}
}

// writeTextValue emits a Value used as element content, re-escaping `&`,
// `<` and `>` in any literal runs so the output remains well-formed markup.
func (s *Stringifier) writeTextValue(v Value) {
	if v.Static {
		s.write(escapeText(v.Str))
		return
	}
	s.writeInterpolatedValue(v.Expr)
}

// writeAttrValue emits a Value used inside a double-quoted attribute.
func (s *Stringifier) writeAttrValue(v Value) {
	s.write(`"`)
	if v.Static {
		s.write(escapeAttr(v.Str))
	} else {
		s.writeInterpolatedValue(v.Expr)
	}
	s.write(`"`)
}

// writeInterpolatedValue walks the Plus-concatenation tree a scanned value
// folds into, re-emitting each literal leaf as plain escaped text and each
// non-literal leaf as a `{{ }}` interpolation, unwrapping the
// ToStringWithoutUndefined marker that the markup parser adds (it is a
// parser-internal annotation, never printed literally).
func (s *Stringifier) writeInterpolatedValue(e Expression) {
	if bin, ok := e.(Binary); ok && bin.Op == OpPlus {
		s.writeInterpolatedValue(bin.Left)
		s.writeInterpolatedValue(bin.Right)
		return
	}
	if lit, ok := e.(LitStr); ok {
		s.write(escapeText(lit.Value))
		return
	}
	inner := e
	if w, ok := e.(ToStringWithoutUndefined); ok {
		inner = w.Operand
	}
	s.write("{{")
	s.writeExpr(inner, LevelCond)
	s.write("}}")
}

func escapeText(str string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(str)
}

func escapeAttr(str string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(str)
}

func (s *Stringifier) writeElement(e *Element) {
	k := e.Kind
	switch k.Tag {
	case KindFor:
		s.write("<block")
		s.writeAttr("wx:for", k.List.Value)
		if k.ItemName.Text != "" {
			s.writeScopeAttr("wx:for-item", k.ItemName.Text)
		}
		if k.IndexName.Text != "" {
			s.writeScopeAttr("wx:for-index", k.IndexName.Text)
		}
		if k.Key.Text != "" {
			s.writeScopeAttr("wx:key", k.Key.Text)
		}
		s.write(">")
		s.writeNodes(k.Children)
		s.write("</block>")
	case KindIf:
		for i, br := range k.Branches {
			s.write("<block ")
			if i == 0 {
				s.write(`wx:if="`)
			} else {
				s.write(`wx:elif="`)
			}
			s.writeRawValueInQuotes(br.Cond)
			s.write(`">`)
			s.writeNodes(br.Children)
			s.write("</block>")
		}
		if k.ElseBranch != nil {
			s.write("<block wx:else>")
			s.writeNodes(k.ElseBranch.Children)
			s.write("</block>")
		}
	case KindTemplateRef:
		s.write("<template")
		if k.Target.Static || k.Target.Expr != nil {
			s.writeAttr("is", k.Target)
		}
		if k.Data1.Static || k.Data1.Expr != nil {
			s.writeAttr("data", k.Data1)
		}
		s.writeCommonSuffix(k.EventBindings, k.Mark, k.Slot, nil)
		s.write("></template>")
	case KindInclude:
		s.write("<include")
		if k.Path.Text != "" {
			s.write(` src="`)
			s.write(escapeAttr(k.Path.Text))
			s.write(`"`)
		}
		s.writeCommonSuffix(k.EventBindings, k.Mark, k.Slot, nil)
		s.write("></include>")
	case KindSlot:
		s.write("<slot")
		if k.SlotName != nil {
			s.writeAttr("name", *k.SlotName)
		}
		for _, a := range k.SlotValues {
			s.writeAttr(a.Name.Text, a.Value)
		}
		s.writeCommonSuffix(k.EventBindings, k.Mark, nil, nil)
		s.write("></slot>")
	case KindPure:
		s.write("<block")
		s.writeCommonSuffix(k.EventBindings, k.Mark, k.Slot, nil)
		s.write(">")
		s.writeNodes(k.Children)
		s.write("</block>")
	default:
		s.writeNormalElement(k)
	}
}

func (s *Stringifier) writeNormalElement(k ElementKind) {
	s.write("<")
	s.write(k.TagName.Text)
	for _, a := range k.Attributes {
		if a.Kind == AttributeModel {
			s.write(" model:")
		} else {
			s.write(" ")
		}
		s.write(a.Name.Text)
		s.write("=")
		s.writeAttrValue(a.Value)
	}
	s.writeClassOrStyle("class", k.Class)
	s.writeClassOrStyle("style", k.Style)
	s.writeAttrFamily("change:", k.ChangeAttrs)
	s.writeAttrFamily("worklet:", k.WorkletAttrs)
	s.writeAttrFamily("data:", k.Data)
	s.writeAttrFamily("mark:", k.Mark)
	s.writeAttrFamily("generic:", k.Generics)
	s.writeAttrFamily("extra-attr:", k.ExtraAttr)
	for _, sr := range k.SlotValueRefs {
		s.write(" slot:")
		s.write(sr.Name.Text)
		s.write("=")
		s.writeAttrValue(sr.Value)
	}
	s.writeCommonSuffix(k.EventBindings, nil, k.Slot, nil)
	s.write(">")
	s.writeNodes(k.Children)
	s.write("</")
	s.write(k.TagName.Text)
	s.write(">")
}

func (s *Stringifier) writeClassOrStyle(name string, cs ClassOrStyle) {
	switch cs.Kind {
	case ClassStyleSingle:
		s.write(" ")
		s.write(name)
		s.write("=")
		s.writeAttrValue(cs.Single)
	case ClassStyleMultiple:
		for _, entry := range cs.Multiple {
			s.write(" ")
			s.write(name)
			s.write(":")
			s.write(entry.Name.Text)
			s.write("=")
			s.writeAttrValue(entry.Value)
		}
	}
}

func (s *Stringifier) writeAttrFamily(prefix string, attrs []Attribute) {
	for _, a := range attrs {
		s.write(" ")
		s.write(prefix)
		s.write(a.Name.Text)
		s.write("=")
		s.writeAttrValue(a.Value)
	}
}

func (s *Stringifier) writeCommonSuffix(events []EventBinding, mark []Attribute, slot *SlotRef, _ []Attribute) {
	for _, ev := range events {
		s.write(" ")
		switch {
		case ev.IsCapture && ev.IsCatch:
			s.write("capture-catch:")
		case ev.IsCapture && ev.IsMut:
			s.write("capture-mut-bind:")
		case ev.IsCapture:
			s.write("capture-bind:")
		case ev.IsCatch:
			s.write("catch:")
		case ev.IsMut:
			s.write("mut-bind:")
		default:
			s.write("bind:")
		}
		s.write(ev.Name.Text)
		s.write("=")
		s.writeAttrValue(ev.Value)
	}
	if mark != nil {
		s.writeAttrFamily("mark:", mark)
	}
	if slot != nil {
		s.write(" slot=")
		s.writeAttrValue(slot.Value)
	}
}

func (s *Stringifier) writeAttr(name string, v Value) {
	s.write(" ")
	s.write(name)
	s.write("=")
	s.writeAttrValue(v)
}

func (s *Stringifier) writeScopeAttr(name, text string) {
	s.write(" ")
	s.write(name)
	s.write(`="`)
	s.write(escapeAttr(text))
	s.write(`"`)
}

// writeRawValueInQuotes emits a Value's canonical text without the
// surrounding quotes, which the caller writes (used for wx:if/wx:elif,
// whose condition is always interpolation-shaped and always quoted by the
// wx:if/wx:elif attribute convention).
func (s *Stringifier) writeRawValueInQuotes(v Value) {
	if v.Static {
		s.write(escapeAttr(v.Str))
		return
	}
	s.writeInterpolatedValue(v.Expr)
}
