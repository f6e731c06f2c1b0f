package wxml

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// parseInterpolationExpression is the entry point used for every `{{ ... }}`
// body. It first speculatively probes whether the body opens an object
// literal without the usual surrounding braces (the `{{`/`}}` delimiters
// play that role), falling back to an ordinary conditional expression
// otherwise.
func parseInterpolationExpression(c *cursor) (Expression, bool) {
	c.pushAutoWhitespace(true)
	defer c.popAutoWhitespace()

	if looksLikeObjectBody(c) {
		start := c.pos
		fields, ok := parseObjectFields(c, false)
		if ok {
			return LitObj{Fields: fields, BraceRange: span(start, start), Rng: span(start, c.pos)}, true
		}
	}
	return parseCond(c)
}

// looksLikeObjectBody runs the speculative "name:", "name,", or "..." probe
// from a saved position, discarding anything it consumes.
func looksLikeObjectBody(c *cursor) bool {
	snap := c.snapshot()
	defer c.restore(snap)
	v, ok := tryParseCursor(c, func() (bool, bool) {
		if _, ok := c.consumeStr("..."); ok {
			return true, true
		}
		if _, ok := parseIdentOrKeywordRaw(c); ok {
			if _, ok := c.consumeStr(":"); ok {
				return true, true
			}
			if _, ok := c.consumeStr(","); ok {
				return true, true
			}
		}
		return false, false
	})
	return ok && v
}

// --- object / array literal field lists ---

// parseObjectFields parses `field (, field)* ,?` optionally terminated by a
// `}` (hasBrace) or, for the implicit top-level form, by the absence of a
// further comma.
func parseObjectFields(c *cursor, hasBrace bool) ([]ObjectField, bool) {
	var fields []ObjectField
	seen := map[string]bool{}
	for {
		c.maybeSkipAuto()
		if hasBrace {
			if peekByte(c) == '}' {
				break
			}
		} else if peekStr(c, "}}") {
			break
		}
		if c.done() {
			break
		}
		start := c.pos
		if r, ok := c.consumeStr("..."); ok {
			val, ok := parseCond(c)
			if !ok {
				return fields, false
			}
			fields = append(fields, ObjectField{Kind: ObjectFieldSpread, Rng: span(start, c.pos), Value: val})
			_ = r
		} else {
			name, ok := parseIdentOrKeywordName(c)
			if !ok {
				return fields, false
			}
			var val Expression
			if _, ok := c.consumeStr(":"); ok {
				v, ok := parseCond(c)
				if !ok {
					return fields, false
				}
				val = v
			} else {
				val = DataField{FieldName: name.Text, Rng: name.Range}
			}
			if seen[name.Text] {
				c.addWarning(DuplicatedName, name.Range)
			}
			seen[name.Text] = true
			fields = append(fields, ObjectField{Kind: ObjectFieldNamed, Name: name, Value: val, Rng: span(start, c.pos)})
		}
		if _, ok := c.consumeStr(","); !ok {
			break
		}
	}
	if hasBrace {
		if _, ok := c.consumeStr("}"); !ok {
			return fields, false
		}
	}
	return fields, true
}

func parseArrayFields(c *cursor) ([]ArrayField, bool) {
	var fields []ArrayField
	for {
		c.maybeSkipAuto()
		if peekByte(c) == ']' {
			break
		}
		if c.done() {
			return fields, false
		}
		start := c.pos
		if _, ok := c.consumeStr(","); ok {
			// A leading or consecutive comma with nothing between it and
			// the previous boundary denotes an EmptySlot.
			fields = append(fields, ArrayField{Kind: ArrayFieldEmptySlot, Rng: span(start, c.pos)})
			continue
		}
		var field ArrayField
		if _, ok := c.consumeStr("..."); ok {
			v, ok := parseCond(c)
			if !ok {
				return fields, false
			}
			field = ArrayField{Kind: ArrayFieldSpread, Value: v, Rng: span(start, c.pos)}
		} else {
			v, ok := parseCond(c)
			if !ok {
				return fields, false
			}
			field = ArrayField{Kind: ArrayFieldNormal, Value: v, Rng: span(start, c.pos)}
		}
		fields = append(fields, field)
		commaStart := c.pos
		if _, ok := c.consumeStr(","); !ok {
			break
		}
		// A trailing comma immediately before `]` also yields a trailing
		// EmptySlot, as in conventional array-literal syntax.
		if peekByte(c) == ']' {
			fields = append(fields, ArrayField{Kind: ArrayFieldEmptySlot, Rng: span(commaStart, c.pos)})
			break
		}
	}
	if _, ok := c.consumeStr("]"); !ok {
		return fields, false
	}
	return fields, true
}

func peekByte(c *cursor) byte {
	c.maybeSkipAuto()
	rest := c.remaining()
	if len(rest) == 0 {
		return 0
	}
	return rest[0]
}

func peekStr(c *cursor, s string) bool {
	c.maybeSkipAuto()
	return strings.HasPrefix(string(c.remaining()), s)
}

// --- grammar ladder, loosest to tightest ---

func parseCond(c *cursor) (Expression, bool) {
	start := c.pos
	cond, ok := parseLogicOr(c)
	if !ok {
		return nil, false
	}
	qr, ok := c.consumeStr("?")
	if !ok {
		return cond, true
	}
	trueBr, ok := parseCond(c)
	if !ok {
		return nil, false
	}
	cr, ok := c.consumeStr(":")
	if !ok {
		c.addWarningAtCurrentPosition(IncompleteConditionExpression)
		return Cond{Condition: cond, True: trueBr, False: LitUndefined{Rng: span(c.pos, c.pos)}, QuestionRange: qr, Rng: span(start, c.pos)}, true
	}
	falseBr, ok := parseCond(c)
	if !ok {
		return nil, false
	}
	return Cond{Condition: cond, True: trueBr, False: falseBr, QuestionRange: qr, ColonRange: cr, Rng: span(start, c.pos)}, true
}

func parseLogicOr(c *cursor) (Expression, bool) {
	start := c.pos
	left, ok := parseLogicAnd(c)
	if !ok {
		return nil, false
	}
	for {
		opStart := c.pos
		var op BinaryOp
		var opr Range
		var matched bool
		if r, ok := c.consumeStrExceptFollowed("||", []string{"="}); ok {
			op, opr, matched = OpLogicOr, r, true
		} else if r, ok := c.consumeStrExceptFollowed("??", []string{"="}); ok {
			op, opr, matched = OpNullishCoalescing, r, true
		}
		if !matched {
			break
		}
		right, ok := parseLogicAnd(c)
		if !ok {
			c.pos = opStart
			break
		}
		left = Binary{Op: op, Left: left, Right: right, OpRange: opr, Rng: span(start, c.pos)}
	}
	return left, true
}

func parseLogicAnd(c *cursor) (Expression, bool) {
	start := c.pos
	left, ok := parseBitOr(c)
	if !ok {
		return nil, false
	}
	for {
		opStart := c.pos
		r, ok := c.consumeStrExceptFollowed("&&", []string{"="})
		if !ok {
			break
		}
		right, ok := parseBitOr(c)
		if !ok {
			c.pos = opStart
			break
		}
		left = Binary{Op: OpLogicAnd, Left: left, Right: right, OpRange: r, Rng: span(start, c.pos)}
	}
	return left, true
}

func parseBitOr(c *cursor) (Expression, bool) {
	start := c.pos
	left, ok := parseBitXor(c)
	if !ok {
		return nil, false
	}
	for {
		opStart := c.pos
		r, ok := c.consumeStrExceptFollowed("|", []string{"|", "="})
		if !ok {
			break
		}
		right, ok := parseBitXor(c)
		if !ok {
			c.pos = opStart
			break
		}
		left = Binary{Op: OpBitOr, Left: left, Right: right, OpRange: r, Rng: span(start, c.pos)}
	}
	return left, true
}

func parseBitXor(c *cursor) (Expression, bool) {
	start := c.pos
	left, ok := parseBitAnd(c)
	if !ok {
		return nil, false
	}
	for {
		opStart := c.pos
		r, ok := c.consumeStrExceptFollowed("^", []string{"="})
		if !ok {
			break
		}
		right, ok := parseBitAnd(c)
		if !ok {
			c.pos = opStart
			break
		}
		left = Binary{Op: OpBitXor, Left: left, Right: right, OpRange: r, Rng: span(start, c.pos)}
	}
	return left, true
}

func parseBitAnd(c *cursor) (Expression, bool) {
	start := c.pos
	left, ok := parseEq(c)
	if !ok {
		return nil, false
	}
	for {
		opStart := c.pos
		r, ok := c.consumeStrExceptFollowed("&", []string{"&", "="})
		if !ok {
			break
		}
		right, ok := parseEq(c)
		if !ok {
			c.pos = opStart
			break
		}
		left = Binary{Op: OpBitAnd, Left: left, Right: right, OpRange: r, Rng: span(start, c.pos)}
	}
	return left, true
}

func parseEq(c *cursor) (Expression, bool) {
	start := c.pos
	left, ok := parseCmp(c)
	if !ok {
		return nil, false
	}
	for {
		opStart := c.pos
		var op BinaryOp
		var opr Range
		var matched bool
		switch {
		case tryOp(c, "===", &opr):
			op, matched = OpEqFull, true
		case tryOp(c, "!==", &opr):
			op, matched = OpNeFull, true
		case tryOp(c, "==", &opr):
			op, matched = OpEq, true
		case tryOp(c, "!=", &opr):
			op, matched = OpNe, true
		}
		if !matched {
			break
		}
		right, ok := parseCmp(c)
		if !ok {
			c.pos = opStart
			break
		}
		left = Binary{Op: op, Left: left, Right: right, OpRange: opr, Rng: span(start, c.pos)}
	}
	return left, true
}

func tryOp(c *cursor, s string, out *Range) bool {
	r, ok := c.consumeStr(s)
	if ok {
		*out = r
	}
	return ok
}

func parseCmp(c *cursor) (Expression, bool) {
	start := c.pos
	left, ok := parsePlus(c)
	if !ok {
		return nil, false
	}
	for {
		opStart := c.pos
		var op BinaryOp
		var opr Range
		var matched bool
		if r, ok := c.consumeStr("<="); ok {
			op, opr, matched = OpLte, r, true
		} else if r, ok := c.consumeStr(">="); ok {
			op, opr, matched = OpGte, r, true
		} else if r, ok := c.consumeStrExceptFollowed("<", []string{"<", "="}); ok {
			op, opr, matched = OpLt, r, true
		} else if r, ok := c.consumeStrExceptFollowed(">", []string{">", "="}); ok {
			op, opr, matched = OpGt, r, true
		} else if r, ok := c.consumeStrBeforeWhitespace("instanceof"); ok {
			op, opr, matched = OpInstanceOf, r, true
		}
		if !matched {
			break
		}
		right, ok := parsePlus(c)
		if !ok {
			c.pos = opStart
			break
		}
		left = Binary{Op: op, Left: left, Right: right, OpRange: opr, Rng: span(start, c.pos)}
	}
	return left, true
}

func parsePlus(c *cursor) (Expression, bool) {
	start := c.pos
	left, ok := parseMultiply(c)
	if !ok {
		return nil, false
	}
	for {
		opStart := c.pos
		var op BinaryOp
		var opr Range
		var matched bool
		if r, ok := c.consumeStrExceptFollowed("+", []string{"+", "="}); ok {
			op, opr, matched = OpPlus, r, true
		} else if r, ok := c.consumeStrExceptFollowed("-", []string{"-", "="}); ok {
			op, opr, matched = OpMinus, r, true
		}
		if !matched {
			break
		}
		right, ok := parseMultiply(c)
		if !ok {
			c.pos = opStart
			break
		}
		left = Binary{Op: op, Left: left, Right: right, OpRange: opr, Rng: span(start, c.pos)}
	}
	return left, true
}

func parseMultiply(c *cursor) (Expression, bool) {
	start := c.pos
	left, ok := parseUnary(c)
	if !ok {
		return nil, false
	}
	for {
		opStart := c.pos
		var op BinaryOp
		var opr Range
		var matched bool
		if r, ok := c.consumeStrExceptFollowed("*", []string{"*", "="}); ok {
			op, opr, matched = OpMultiply, r, true
		} else if r, ok := c.consumeStrExceptFollowed("/", []string{"="}); ok {
			op, opr, matched = OpDivide, r, true
		} else if r, ok := c.consumeStrExceptFollowed("%", []string{"="}); ok {
			op, opr, matched = OpRemainder, r, true
		}
		if !matched {
			break
		}
		right, ok := parseUnary(c)
		if !ok {
			c.pos = opStart
			break
		}
		left = Binary{Op: op, Left: left, Right: right, OpRange: opr, Rng: span(start, c.pos)}
	}
	return left, true
}

func parseUnary(c *cursor) (Expression, bool) {
	start := c.pos
	var op UnaryOp
	var opr Range
	var matched bool
	switch {
	case func() bool { r, ok := c.consumeStrBeforeWhitespace("typeof"); opr, matched = r, ok; return ok }():
		op = UnaryTypeOf
	case func() bool { r, ok := c.consumeStrBeforeWhitespace("void"); opr, matched = r, ok; return ok }():
		op = UnaryVoid
	case func() bool { r, ok := c.consumeStrExceptFollowed("!", nil); opr, matched = r, ok; return ok }():
		op = UnaryReverse
	case func() bool { r, ok := c.consumeStrExceptFollowed("~", nil); opr, matched = r, ok; return ok }():
		op = UnaryBitReverse
	case func() bool { r, ok := c.consumeStrExceptFollowed("+", []string{"+"}); opr, matched = r, ok; return ok }():
		op = UnaryPositive
	case func() bool { r, ok := c.consumeStrExceptFollowed("-", []string{"-"}); opr, matched = r, ok; return ok }():
		op = UnaryNegative
	}
	if !matched {
		return parseMember(c)
	}
	operand, ok := parseUnary(c)
	if !ok {
		return nil, false
	}
	return Unary{Op: op, Operand: operand, OpRange: opr, Rng: span(start, c.pos)}, true
}

func parseMember(c *cursor) (Expression, bool) {
	start := c.pos
	expr, ok := parseLit(c)
	if !ok {
		return nil, false
	}
	for {
		if _, ok := c.consumeStrExceptFollowed(".", []string{"."}); ok {
			name, ok := parseIdentOrKeywordName(c)
			if !ok {
				c.addWarningAtCurrentPosition(InvalidIdentifier)
				return expr, true
			}
			expr = StaticMember{Obj: expr, Name: name, Rng: span(start, c.pos)}
			continue
		}
		if _, ok := c.consumeStr("["); ok {
			key, ok := parseCond(c)
			if !ok {
				c.addWarningAtCurrentPosition(IllegalExpression)
				return expr, true
			}
			if _, ok := c.consumeStr("]"); !ok {
				c.addWarningAtCurrentPosition(UnmatchedBracket)
			}
			expr = DynamicMember{Obj: expr, Key: key, Rng: span(start, c.pos)}
			continue
		}
		if _, ok := c.consumeStr("("); ok {
			var args []Expression
			for {
				c.maybeSkipAuto()
				if peekByte(c) == ')' {
					break
				}
				arg, ok := parseCond(c)
				if !ok {
					break
				}
				args = append(args, arg)
				if _, ok := c.consumeStr(","); !ok {
					break
				}
			}
			if _, ok := c.consumeStr(")"); !ok {
				c.addWarningAtCurrentPosition(UnmatchedParenthesis)
			}
			expr = FuncCall{Callee: expr, Args: args, Rng: span(start, c.pos)}
			continue
		}
		break
	}
	return expr, true
}

func parseLit(c *cursor) (Expression, bool) {
	c.maybeSkipAuto()
	start := c.pos
	b := peekByte(c)
	switch {
	case b == '"' || b == '\'':
		return parseLitStr(c)
	case b >= '0' && b <= '9':
		return parseNumber(c)
	case b == '{':
		c.advance(1)
		fields, ok := parseObjectFields(c, true)
		if !ok {
			return nil, false
		}
		return LitObj{Fields: fields, BraceRange: span(start, c.pos), Rng: span(start, c.pos)}, true
	case b == '[':
		c.advance(1)
		fields, ok := parseArrayFields(c)
		if !ok {
			return nil, false
		}
		return LitArr{Fields: fields, BracketRange: span(start, c.pos), Rng: span(start, c.pos)}, true
	case b == '(':
		c.advance(1)
		inner, ok := parseCond(c)
		if !ok {
			return nil, false
		}
		if _, ok := c.consumeStr(")"); !ok {
			c.addWarningAtCurrentPosition(UnmatchedParenthesis)
		}
		return inner, true
	}
	if isIdentStartByte(c) {
		name, ok := parseIdentOrKeywordName(c)
		if !ok {
			return nil, false
		}
		switch name.Text {
		case "undefined":
			return LitUndefined{Rng: name.Range}, true
		case "null":
			return LitNull{Rng: name.Range}, true
		case "true":
			return LitBool{Value: true, Rng: name.Range}, true
		case "false":
			return LitBool{Value: false, Rng: name.Range}, true
		default:
			return DataField{FieldName: name.Text, Rng: name.Range}, true
		}
	}
	return nil, false
}

func isIdentStartByte(c *cursor) bool {
	r, ok := c.peekRune(0)
	if !ok {
		return false
	}
	return isJSStartChar(r)
}

// parseIdentOrKeywordName consumes a JS identifier (no keyword exclusion —
// `in` and every reserved word not in this grammar is treated as a plain
// identifier, per spec.md).
func parseIdentOrKeywordName(c *cursor) (Name, bool) {
	c.maybeSkipAuto()
	r, ok := c.peekRune(0)
	if !ok || !isJSStartChar(r) {
		return Name{}, false
	}
	byteLen := 0
	rest := c.remaining()
	for {
		r, size := decodeRuneInBytes(rest[byteLen:])
		if size == 0 {
			break
		}
		if byteLen == 0 {
			if !isJSStartChar(r) {
				break
			}
		} else if !isJSFollowingChar(r) {
			break
		}
		byteLen += size
	}
	text := string(rest[:byteLen])
	rng := c.advance(byteLen)
	return Name{Text: text, Range: rng}, true
}

func decodeRuneInBytes(b []byte) (rune, int) {
	if len(b) == 0 {
		return 0, 0
	}
	return utf8.DecodeRune(b)
}

func parseIdentOrKeywordRaw(c *cursor) (string, bool) {
	n, ok := parseIdentOrKeywordName(c)
	if !ok {
		return "", false
	}
	return n.Text, true
}

// --- string literals ---

func parseLitStr(c *cursor) (Expression, bool) {
	start := c.pos
	c.pushAutoWhitespace(false)
	defer c.popAutoWhitespace()

	quote := peekByte(c)
	c.advance(1)
	var sb strings.Builder
	for {
		if c.done() {
			break
		}
		b := c.remaining()[0]
		if b == quote {
			c.advance(1)
			break
		}
		if b == '\\' {
			escStart := c.pos
			c.advance(1)
			if c.done() {
				break
			}
			e := c.remaining()[0]
			switch e {
			case 'r':
				sb.WriteByte('\r')
				c.advance(1)
			case 'n':
				sb.WriteByte('\n')
				c.advance(1)
			case 't':
				sb.WriteByte('\t')
				c.advance(1)
			case 'b':
				sb.WriteByte('\b')
				c.advance(1)
			case 'f':
				sb.WriteByte('\f')
				c.advance(1)
			case 'v':
				sb.WriteByte('\v')
				c.advance(1)
			case '0':
				sb.WriteByte(0)
				c.advance(1)
			case 'x':
				c.advance(1)
				hex := takeHexDigits(c, 2)
				if len(hex) != 2 {
					c.addWarning(IllegalEscapeSequence, span(escStart, c.pos))
					sb.WriteByte(' ')
					break
				}
				v, _ := strconv.ParseUint(hex, 16, 32)
				sb.WriteRune(rune(v))
			case 'u':
				c.advance(1)
				hex := takeHexDigits(c, 4)
				if len(hex) != 4 {
					c.addWarning(IllegalEscapeSequence, span(escStart, c.pos))
					sb.WriteByte(' ')
					break
				}
				v, _ := strconv.ParseUint(hex, 16, 32)
				sb.WriteRune(rune(v))
			default:
				r, size := decodeRuneAt(c)
				sb.WriteRune(r)
				c.advance(size)
			}
			continue
		}
		r, size := decodeRuneAt(c)
		sb.WriteRune(r)
		c.advance(size)
	}
	return LitStr{Value: sb.String(), Rng: span(start, c.pos)}, true
}

func takeHexDigits(c *cursor, n int) string {
	rest := c.remaining()
	i := 0
	for i < n && i < len(rest) && isHexDigit(rest[i]) {
		i++
	}
	if i < n {
		c.advance(i)
		return ""
	}
	s := string(rest[:n])
	c.advance(n)
	return s
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func decodeRuneAt(c *cursor) (rune, int) {
	r, ok := c.peekRune(0)
	if !ok {
		return 0, 1
	}
	size := len(string(r))
	return r, size
}

// --- numbers ---

func parseNumber(c *cursor) (Expression, bool) {
	start := c.pos
	rest := c.remaining()
	if len(rest) >= 2 && rest[0] == '0' && (rest[1] == 'x' || rest[1] == 'X') {
		c.advance(2)
		digStart := c.pos.Offset
		for !c.done() && isHexDigit(c.remaining()[0]) {
			c.advance(1)
		}
		if c.pos.Offset == digStart {
			return nil, false
		}
		text := c.slice(start.Offset, c.pos.Offset)
		v, _ := strconv.ParseInt(text[2:], 16, 64)
		if identContinues(c) {
			return nil, false
		}
		return LitInt{Value: v, Rng: span(start, c.pos)}, true
	}
	if rest[0] == '0' && len(rest) >= 2 && rest[1] >= '0' && rest[1] <= '7' {
		c.advance(1)
		digStart := c.pos.Offset
		for !c.done() && c.remaining()[0] >= '0' && c.remaining()[0] <= '7' {
			c.advance(1)
		}
		text := c.slice(digStart, c.pos.Offset)
		v, _ := strconv.ParseInt(text, 8, 64)
		if identContinues(c) {
			return nil, false
		}
		return LitInt{Value: v, Rng: span(start, c.pos)}, true
	}
	for !c.done() && isASCIIDigitByte(c.remaining()[0]) {
		c.advance(1)
	}
	isFloat := false
	if !c.done() && c.remaining()[0] == '.' {
		isFloat = true
		c.advance(1)
		for !c.done() && isASCIIDigitByte(c.remaining()[0]) {
			c.advance(1)
		}
	}
	if !c.done() && (c.remaining()[0] == 'e' || c.remaining()[0] == 'E') {
		save := c.pos
		c.advance(1)
		if !c.done() && c.remaining()[0] == '-' {
			c.advance(1)
		}
		expDigStart := c.pos.Offset
		for !c.done() && isASCIIDigitByte(c.remaining()[0]) {
			c.advance(1)
		}
		if c.pos.Offset == expDigStart {
			c.pos = save
		} else {
			isFloat = true
		}
	}
	text := c.slice(start.Offset, c.pos.Offset)
	if identContinues(c) {
		return nil, false
	}
	if isFloat {
		v, _ := strconv.ParseFloat(text, 64)
		return LitFloat{Value: v, Rng: span(start, c.pos)}, true
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		f, _ := strconv.ParseFloat(text, 64)
		return LitFloat{Value: f, Rng: span(start, c.pos)}, true
	}
	return LitInt{Value: v, Rng: span(start, c.pos)}, true
}

func isASCIIDigitByte(b byte) bool { return b >= '0' && b <= '9' }

func identContinues(c *cursor) bool {
	r, ok := c.peekRune(0)
	if !ok {
		return false
	}
	return isJSStartChar(r)
}
