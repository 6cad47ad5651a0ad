package directive

import (
	"strconv"
	"strings"
)

type tokKind int

const (
	tEOF tokKind = iota
	tLParen
	tRParen
	tComma
	tOp
	tString
	tInt
	tWord
	tName
	tParam
)

var tokNames = map[tokKind]string{
	tEOF:    "end of template",
	tLParen: "'('",
	tRParen: "')'",
	tComma:  "','",
}

type token struct {
	kind  tokKind
	text  string
	val   int
	start int
	// space reports whitespace between this token and the previous one
	space bool
}

func (t token) describe() string {
	if name, ok := tokNames[t.kind]; ok {
		return name
	}
	return strconv.Quote(t.text)
}

// word keywords of the expression grammar
var exprKeywords = map[string]bool{
	"OR": true, "AND": true, "NOT": true, "HAS": true, "IN": true, "IS": true,
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '_' || c == '.' || c == ':'
}

func (p *parser) next() (token, error) {
	before := p.pos
	p.skipSpace()
	tok := token{start: p.pos, space: p.pos > before}

	if p.pos >= len(p.src) {
		tok.kind = tEOF
		return tok, nil
	}

	s := p.src[p.pos:]
	c := s[0]

	switch {
	case c == '(':
		tok.kind, tok.text = tLParen, "("
	case c == ')':
		tok.kind, tok.text = tRParen, ")"
	case c == ',':
		tok.kind, tok.text = tComma, ","
	case c == '"' || c == '\'':
		return p.readString(tok)
	case strings.HasPrefix(s, NamePrefix+"_"):
		tok.kind, tok.text = tWord, NamePrefix
		p.pos += len(NamePrefix) + 1
		return tok, nil
	case strings.HasPrefix(s, ParamPrefix+">"):
		tok.kind, tok.text = tWord, ParamPrefix
		p.pos += len(ParamPrefix) + 1
		return tok, nil
	case strings.HasPrefix(s, ParamPrefix) && p.readParamName(p.pos+len(ParamPrefix)) != "":
		tok.kind, tok.text = tParam, p.readParamName(p.pos+len(ParamPrefix))
		p.pos += len(ParamPrefix) + len(tok.text)
		return tok, nil
	case strings.HasPrefix(s, NamePrefix) && p.readName(p.pos+len(NamePrefix)) != "":
		tok.kind, tok.text = tName, p.readName(p.pos+len(NamePrefix))
		p.pos += len(NamePrefix) + len(tok.text)
		return tok, nil
	case len(s) > 1 && isTwoCharOp(s[:2]):
		tok.kind, tok.text = tOp, s[:2]
	case strings.IndexByte("<>!+-*/%", c) >= 0:
		tok.kind, tok.text = tOp, s[:1]
	case isWordByte(c):
		return p.readWord(tok)
	default:
		return tok, Parsef(p.posAt(p.pos), "unexpected character %q in expression", c)
	}

	p.pos += len(tok.text)
	return tok, nil
}

func isTwoCharOp(s string) bool {
	switch s {
	case "==", "!=", "<=", ">=", "&&", "||":
		return true
	}
	return false
}

func (p *parser) readWord(tok token) (token, error) {
	end := p.pos
	for end < len(p.src) && isWordByte(p.src[end]) {
		if end > p.pos && p.sentinelAt(end) {
			break
		}
		end++
	}
	tok.text = p.src[p.pos:end]
	p.pos = end

	digits := strings.TrimLeft(tok.text, "0123456789") == ""
	if !digits {
		tok.kind = tWord
		return tok, nil
	}
	v, err := strconv.Atoi(tok.text)
	if err != nil {
		return tok, Parsef(p.posAt(tok.start), "invalid integer %s", tok.text)
	}
	tok.kind, tok.val = tInt, v
	return tok, nil
}

func (p *parser) readString(tok token) (token, error) {
	quote := p.src[p.pos]
	var b strings.Builder
	i := p.pos + 1
	for i < len(p.src) {
		c := p.src[i]
		switch {
		case c == quote:
			tok.kind, tok.text = tString, b.String()
			p.pos = i + 1
			return tok, nil
		case c == '\\' && i+1 < len(p.src):
			i++
			switch e := p.src[i]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(e)
			}
		default:
			b.WriteByte(c)
		}
		i++
	}
	return tok, Parsef(p.posAt(tok.start), "unterminated string literal")
}

func (p *parser) peek() (token, error) {
	saved := p.pos
	tok, err := p.next()
	p.pos = saved
	return tok, err
}

func (p *parser) expect(kind tokKind) error {
	tok, err := p.next()
	if err != nil {
		return err
	}
	if tok.kind != kind {
		return Parsef(p.posAt(tok.start), "expected %s, found %s", tokNames[kind], tok.describe())
	}
	return nil
}

func (t token) isWord(w string) bool {
	return t.kind == tWord && t.text == w
}

func (t token) isOp(op string) bool {
	return t.kind == tOp && t.text == op
}

func (p *parser) parseExpr() (Expr, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if !tok.isWord("OR") && !tok.isOp("||") {
			return left, nil
		}
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Binary{Pos: left.Position(), Op: OpOr, Left: left, Right: right}
	}
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if !tok.isWord("AND") && !tok.isOp("&&") {
			return left, nil
		}
		p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &Binary{Pos: left.Position(), Op: OpAnd, Left: left, Right: right}
	}
}

func (p *parser) parseNot() (Expr, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}

	var op Op
	switch {
	case tok.isWord("NOT") || tok.isOp("!"):
		op = OpNot
	case tok.isWord("HAS"):
		op = OpHas
	default:
		return p.parseCompare()
	}

	p.next()
	x, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	return &Unary{Pos: p.posAt(tok.start), Op: op, X: x}, nil
}

var compareOps = map[string]Op{
	"==": OpEq, "!=": OpNe, "<": OpLt, ">": OpGt, "<=": OpLe, ">=": OpGe,
}

func (p *parser) parseCompare() (Expr, error) {
	left, err := p.parseArith()
	if err != nil {
		return nil, err
	}

	op, err := p.compareOp()
	if err != nil || op == 0 {
		return left, err
	}

	right, err := p.parseArith()
	if err != nil {
		return nil, err
	}
	return &Binary{Pos: left.Position(), Op: op, Left: left, Right: right}, nil
}

// compareOp consumes a comparison operator, returning 0 when none follows
func (p *parser) compareOp() (Op, error) {
	saved := p.pos
	tok, err := p.next()
	if err != nil {
		return 0, err
	}

	switch {
	case tok.kind == tOp && compareOps[tok.text] != 0:
		return compareOps[tok.text], nil
	case tok.isWord("IN"):
		return OpIn, nil
	case tok.isWord("IS"):
		after := p.pos
		if next, err := p.next(); err == nil && next.isWord("NOT") {
			return OpIsNot, nil
		}
		p.pos = after
		return OpIs, nil
	case tok.isWord("NOT"):
		if next, err := p.next(); err == nil && next.isWord("IN") {
			return OpNotIn, nil
		}
	}

	p.pos = saved
	return 0, nil
}

func (p *parser) parseArith() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		var op Op
		switch {
		case tok.isOp("+"):
			op = OpAdd
		case tok.isOp("-"):
			op = OpSub
		default:
			return left, nil
		}
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &Binary{Pos: left.Position(), Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseTerm() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		var op Op
		switch {
		case tok.isOp("*"):
			op = OpMul
		case tok.isOp("/"):
			op = OpDiv
		case tok.isOp("%"):
			op = OpMod
		default:
			return left, nil
		}
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Binary{Pos: left.Position(), Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	switch {
	case tok.isOp("-"):
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Pos: p.posAt(tok.start), Op: OpNeg, X: x}, nil
	case tok.isOp("+"):
		p.next()
		return p.parseUnary()
	}
	return p.parseConcat()
}

func startsAtom(tok token) bool {
	switch tok.kind {
	case tString, tInt, tName, tParam:
		return true
	case tWord:
		return !exprKeywords[tok.text]
	}
	return false
}

func (p *parser) parseConcat() (Expr, error) {
	first, err := p.parseAtom()
	if err != nil {
		return nil, err
	}

	parts := []Expr{first}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.space || !startsAtom(tok) {
			break
		}
		part, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}

	if len(parts) == 1 {
		return first, nil
	}
	return &Concat{Pos: first.Position(), Parts: parts}, nil
}

func (p *parser) parseAtom() (Expr, error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	pos := p.posAt(tok.start)

	switch tok.kind {
	case tInt:
		return &IntLit{Pos: pos, Value: tok.val}, nil
	case tString:
		return &StringLit{Pos: pos, Value: tok.text}, nil
	case tWord:
		if exprKeywords[tok.text] {
			return nil, Parsef(pos, "unexpected %s in expression", tok.text)
		}
		return &StringLit{Pos: pos, Value: tok.text}, nil
	case tParam:
		return &ParamRef{Pos: pos, Name: tok.text}, nil
	case tName:
		return p.parseNameExpr(tok.text, pos)
	case tLParen:
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tRParen); err != nil {
			return nil, err
		}
		return x, nil
	case tEOF:
		return nil, Parsef(pos, "unterminated expression")
	}
	return nil, Parsef(pos, "unexpected %s in expression", tok.describe())
}

func (p *parser) parseNameExpr(name string, pos Pos) (Expr, error) {
	if !p.peekByte('(') {
		return &NameRef{Pos: pos, Name: name}, nil
	}

	if op, ok := legacyOps[name]; ok {
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		if op == OpNot {
			if len(args) != 1 {
				return nil, Parsef(pos, "DTIG_%s takes 1 argument, got %d", name, len(args))
			}
			return &Unary{Pos: pos, Op: op, X: args[0]}, nil
		}
		if len(args) != 2 {
			return nil, Parsef(pos, "DTIG_%s takes 2 arguments, got %d", name, len(args))
		}
		return &Binary{Pos: pos, Op: op, Left: args[0], Right: args[1]}, nil
	}

	if builtins[name] {
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		if len(args) != 1 {
			return nil, Parsef(pos, "DTIG_%s takes 1 argument, got %d", name, len(args))
		}
		return &Call{Pos: pos, Name: name, Args: args}, nil
	}

	if p.macros[name] {
		args, err := p.parseMacroArgs(name)
		if err != nil {
			return nil, err
		}
		return &Call{Pos: pos, Name: name, Args: args}, nil
	}

	if IsPlaceholder(name) {
		return &NameRef{Pos: pos, Name: name}, nil
	}
	return nil, Parsef(pos, "call to undefined macro DTIG_%s", name)
}

// parseArgs parses a parenthesized, comma-separated argument list
func (p *parser) parseArgs() ([]Expr, error) {
	if err := p.expect(tLParen); err != nil {
		return nil, err
	}

	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.kind == tRParen {
		p.next()
		return nil, nil
	}

	var args []Expr
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tComma:
			continue
		case tRParen:
			return args, nil
		}
		return nil, Parsef(p.posAt(tok.start), "expected ',' or ')', found %s", tok.describe())
	}
}
