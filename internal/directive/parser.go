// Package directive parses DTIG templates into directive trees.
//
// A template is literal text interleaved with directives introduced by the
// DTIG sentinel. DTIG_ starts a directive, placeholder or macro name and DTIG>
// starts a scoped parameter. DTIG__ and DTIG>> escape the sentinel. Block
// markers (FOR, IF, ELSE_IF, ELSE, DEF and their END_ forms) that sit alone on
// a line are removed together with that line; all other text is kept verbatim.
package directive

import (
	"sort"
	"strings"
)

type marker struct {
	keyword string
	pos     Pos
	cond    Expr

	// DEF header
	name   string
	params []string
}

type parser struct {
	file       string
	src        string
	pos        int
	lineStarts []int
	macros     map[string]bool
	macroOrder []string
}

// Parse parses a template. name only appears in error positions.
func Parse(name, src string) (*Template, error) {
	p := newParser(name, src)

	nodes, end, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	if end != nil {
		return nil, Parsef(end.pos, "DTIG_%s without matching opening marker", end.keyword)
	}

	return &Template{Name: name, Nodes: nodes, Macros: p.macroOrder}, nil
}

func newParser(file, src string) *parser {
	p := &parser{
		file:       file,
		src:        src,
		lineStarts: []int{0},
		macros:     make(map[string]bool),
	}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			p.lineStarts = append(p.lineStarts, i+1)
		}
	}
	return p
}

func (p *parser) posAt(offset int) Pos {
	line := sort.Search(len(p.lineStarts), func(i int) bool { return p.lineStarts[i] > offset }) - 1
	return Pos{File: p.file, Line: line + 1, Column: offset - p.lineStarts[line] + 1}
}

// parseBody reads nodes until the end of input or a marker that closes or
// continues the enclosing block, which is returned unconsumed by any node
func (p *parser) parseBody() ([]Node, *marker, error) {
	var nodes []Node
	var text []byte
	textStart := -1

	appendText := func(offset int, s string) {
		if textStart < 0 {
			textStart = offset
		}
		text = append(text, s...)
	}
	flush := func() {
		if len(text) > 0 {
			nodes = append(nodes, &Text{Pos: p.posAt(textStart), Value: string(text)})
		}
		text = text[:0]
		textStart = -1
	}

	for p.pos < len(p.src) {
		i := strings.Index(p.src[p.pos:], Sentinel)
		if i < 0 {
			appendText(p.pos, p.src[p.pos:])
			p.pos = len(p.src)
			break
		}
		if i > 0 {
			appendText(p.pos, p.src[p.pos:p.pos+i])
			p.pos += i
		}

		start := p.pos
		rest := p.src[start+len(Sentinel):]

		switch {
		case strings.HasPrefix(rest, "__"):
			appendText(start, NamePrefix)
			p.pos = start + len(NamePrefix) + 1

		case strings.HasPrefix(rest, ">>"):
			appendText(start, ParamPrefix)
			p.pos = start + len(ParamPrefix) + 1

		case strings.HasPrefix(rest, ">"):
			name := p.readParamName(start + len(ParamPrefix))
			if name == "" {
				appendText(start, ParamPrefix)
				p.pos = start + len(ParamPrefix)
				continue
			}
			flush()
			nodes = append(nodes, &Param{Pos: p.posAt(start), Name: name})
			p.pos = start + len(ParamPrefix) + len(name)

		case strings.HasPrefix(rest, "_"):
			name := p.readName(start + len(NamePrefix))
			if name == "" {
				appendText(start, NamePrefix)
				p.pos = start + len(NamePrefix)
				continue
			}
			p.pos = start + len(NamePrefix) + len(name)

			if !keywords[name] {
				node, err := p.parseInline(name, start)
				if err != nil {
					return nil, nil, err
				}
				flush()
				nodes = append(nodes, node)
				continue
			}

			m, err := p.parseMarker(name, start)
			if err != nil {
				return nil, nil, err
			}
			if n := p.standaloneIndent(start); n >= 0 {
				if n > len(text) {
					n = len(text)
				}
				text = text[:len(text)-n]
				p.skipLineEnd()
			}
			flush()

			var node Node
			switch name {
			case kwFor:
				node, err = p.parseFor(m)
			case kwIf:
				node, err = p.parseIf(m)
			case kwDef:
				node, err = p.parseDef(m)
			default:
				return nodes, m, nil
			}
			if err != nil {
				return nil, nil, err
			}
			nodes = append(nodes, node)

		default:
			appendText(start, Sentinel)
			p.pos = start + len(Sentinel)
		}
	}

	flush()
	return nodes, nil, nil
}

// readName reads an upper-case directive name starting at offset. The name
// stops before an embedded sentinel and never ends with an underscore.
func (p *parser) readName(offset int) string {
	end := offset
	for end < len(p.src) {
		c := p.src[end]
		if end == offset {
			if c < 'A' || c > 'Z' {
				break
			}
		} else if !(c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_') {
			break
		}
		if end > offset && p.sentinelAt(end) {
			break
		}
		end++
	}
	return strings.TrimRight(p.src[offset:end], "_")
}

// readParamName reads an identifier starting at offset, stopping before an embedded sentinel
func (p *parser) readParamName(offset int) string {
	end := offset
	for end < len(p.src) {
		c := p.src[end]
		if !isIdentByte(c, end == offset) {
			break
		}
		if end > offset && p.sentinelAt(end) {
			break
		}
		end++
	}
	return p.src[offset:end]
}

func (p *parser) sentinelAt(offset int) bool {
	s := p.src[offset:]
	return strings.HasPrefix(s, NamePrefix) || strings.HasPrefix(s, ParamPrefix)
}

func isIdentByte(c byte, first bool) bool {
	if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' {
		return true
	}
	return !first && c >= '0' && c <= '9'
}

// standaloneIndent returns the width of the indentation before a marker at
// start when the marker is alone on its line, or -1
func (p *parser) standaloneIndent(start int) int {
	lineStart := start
	for lineStart > 0 && p.src[lineStart-1] != '\n' {
		if c := p.src[lineStart-1]; c != ' ' && c != '\t' {
			return -1
		}
		lineStart--
	}
	for i := p.pos; i < len(p.src) && p.src[i] != '\n'; i++ {
		if c := p.src[i]; c != ' ' && c != '\t' && c != '\r' {
			return -1
		}
	}
	return start - lineStart
}

func (p *parser) skipLineEnd() {
	if i := strings.IndexByte(p.src[p.pos:], '\n'); i >= 0 {
		p.pos += i + 1
		return
	}
	p.pos = len(p.src)
}

func (p *parser) peekByte(c byte) bool {
	return p.pos < len(p.src) && p.src[p.pos] == c
}

func (p *parser) parseMarker(keyword string, start int) (*marker, error) {
	m := &marker{keyword: keyword, pos: p.posAt(start)}

	switch keyword {
	case kwFor, kwIf, kwElseIf:
		if !p.peekByte('(') {
			return nil, Parsef(m.pos, "DTIG_%s requires a parenthesized expression", keyword)
		}
		p.pos++
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tRParen); err != nil {
			return nil, err
		}
		m.cond = cond
	case kwDef:
		if err := p.parseDefHeader(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (p *parser) parseDefHeader(m *marker) error {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
	if !strings.HasPrefix(p.src[p.pos:], NamePrefix) {
		return Parsef(m.pos, "DTIG_DEF must be followed by a DTIG_ macro name")
	}
	nameStart := p.pos
	name := p.readName(p.pos + len(NamePrefix))
	if name == "" {
		return Parsef(p.posAt(nameStart), "invalid macro name")
	}
	if IsReserved(name) {
		return Parsef(p.posAt(nameStart), "DTIG_%s is reserved and cannot name a macro", name)
	}
	p.pos += len(NamePrefix) + len(name)

	for p.peekByte(' ') || p.peekByte('\t') {
		p.pos++
	}
	if !p.peekByte('(') {
		return Parsef(p.posAt(nameStart), "macro DTIG_%s requires a parameter list", name)
	}
	p.pos++

	seen := make(map[string]bool)
	for {
		p.skipSpace()
		if p.peekByte(')') && len(m.params) == 0 {
			p.pos++
			break
		}
		paramStart := p.pos
		param := p.readParamName(p.pos)
		if param == "" {
			return Parsef(p.posAt(paramStart), "invalid parameter name in macro DTIG_%s", name)
		}
		if seen[param] {
			return Parsef(p.posAt(paramStart), "duplicate parameter %s in macro DTIG_%s", param, name)
		}
		seen[param] = true
		m.params = append(m.params, param)
		p.pos += len(param)

		p.skipSpace()
		if p.peekByte(',') {
			p.pos++
			continue
		}
		if p.peekByte(')') {
			p.pos++
			break
		}
		return Parsef(p.posAt(p.pos), "expected ',' or ')' in parameters of macro DTIG_%s", name)
	}

	m.name = name
	// registered before the body so the body may call itself
	if !p.macros[name] {
		p.macros[name] = true
		p.macroOrder = append(p.macroOrder, name)
	}
	return nil
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && isSpace(p.src[p.pos]) {
		p.pos++
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func (p *parser) parseFor(m *marker) (Node, error) {
	body, end, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	if end == nil {
		return nil, Parsef(m.pos, "DTIG_FOR without matching DTIG_END_FOR")
	}
	if end.keyword != kwEndFor {
		return nil, Parsef(end.pos, "unexpected DTIG_%s inside DTIG_FOR opened at line %d", end.keyword, m.pos.Line)
	}
	return &For{Pos: m.pos, Source: m.cond, Body: body}, nil
}

func (p *parser) parseIf(m *marker) (Node, error) {
	node := &If{Pos: m.pos}
	current := Branch{Pos: m.pos, Cond: m.cond}

	for {
		body, end, err := p.parseBody()
		if err != nil {
			return nil, err
		}
		if end == nil {
			return nil, Parsef(m.pos, "DTIG_IF without matching DTIG_END_IF")
		}

		if node.HasElse {
			node.Else = body
		} else {
			current.Body = body
			node.Branches = append(node.Branches, current)
		}

		switch end.keyword {
		case kwElseIf:
			if node.HasElse {
				return nil, Parsef(end.pos, "DTIG_ELSE_IF after DTIG_ELSE in DTIG_IF opened at line %d", m.pos.Line)
			}
			current = Branch{Pos: end.pos, Cond: end.cond}
		case kwElse:
			if node.HasElse {
				return nil, Parsef(end.pos, "second DTIG_ELSE in DTIG_IF opened at line %d", m.pos.Line)
			}
			node.HasElse = true
		case kwEndIf:
			return node, nil
		default:
			return nil, Parsef(end.pos, "unexpected DTIG_%s inside DTIG_IF opened at line %d", end.keyword, m.pos.Line)
		}
	}
}

func (p *parser) parseDef(m *marker) (Node, error) {
	body, end, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	if end == nil {
		return nil, Parsef(m.pos, "DTIG_DEF DTIG_%s without matching DTIG_END_DEF", m.name)
	}
	if end.keyword != kwEndDef {
		return nil, Parsef(end.pos, "unexpected DTIG_%s inside DTIG_DEF opened at line %d", end.keyword, m.pos.Line)
	}

	// one trailing newline belongs to the END_DEF line, not the fragment
	if n := len(body); n > 0 {
		switch last := body[n-1].(type) {
		case *Text:
			if strings.HasSuffix(last.Value, "\n") {
				v := trimNewline(last.Value)
				if v == "" {
					body = body[:n-1]
				} else {
					body[n-1] = &Text{Pos: last.Pos, Value: v}
				}
			}
		case *MacroCall:
			if strings.HasSuffix(last.LineEnd, "\n") {
				call := *last
				call.LineEnd = trimNewline(call.LineEnd)
				body[n-1] = &call
			}
		}
	}

	return &MacroDef{Pos: m.pos, Name: m.name, Params: m.params, Body: body}, nil
}

// parseInline parses a non-block directive whose name has been consumed
func (p *parser) parseInline(name string, start int) (Node, error) {
	pos := p.posAt(start)

	switch {
	case builtins[name]:
		if !p.peekByte('(') {
			return nil, Parsef(pos, "DTIG_%s requires an argument", name)
		}
		p.pos++
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tRParen); err != nil {
			return nil, err
		}
		if name == BuiltinStr {
			return &StringLiteral{Pos: pos, Expr: arg}, nil
		}
		query := QueryAccessor
		if name == BuiltinToProtoMessage {
			query = QueryWrapper
		}
		return &TypeQuery{Pos: pos, Query: query, Expr: arg}, nil

	case p.macros[name]:
		if !p.peekByte('(') {
			return nil, Parsef(pos, "macro DTIG_%s called without an argument list", name)
		}
		args, err := p.parseMacroArgs(name)
		if err != nil {
			return nil, err
		}
		call := &MacroCall{Pos: pos, Name: name, Args: args}
		if p.standaloneIndent(start) >= 0 {
			lineStart := p.pos
			p.skipLineEnd()
			call.LineEnd = p.src[lineStart:p.pos]
		}
		return call, nil

	case p.peekByte('(') && !IsPlaceholder(name):
		return nil, Parsef(pos, "call to undefined macro DTIG_%s", name)
	}

	return &Placeholder{Pos: pos, Name: name}, nil
}

func trimNewline(s string) string {
	return strings.TrimSuffix(strings.TrimSuffix(s, "\n"), "\r")
}

// parseMacroArgs reads the argument list of a macro call as literal text.
// Arguments are split on commas outside brackets and double-quoted strings,
// then trimmed. An argument list holding only whitespace has no arguments.
func (p *parser) parseMacroArgs(name string) ([]Expr, error) {
	open := p.pos
	p.pos++

	var bounds [][2]int
	argStart := p.pos
	depth := 0

	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '(', '[', '{':
			depth++
		case ']', '}':
			if depth > 0 {
				depth--
			}
		case ')':
			if depth > 0 {
				depth--
				break
			}
			bounds = append(bounds, [2]int{argStart, p.pos})
			p.pos++
			return p.parseFragments(name, bounds)
		case ',':
			if depth == 0 {
				bounds = append(bounds, [2]int{argStart, p.pos})
				argStart = p.pos + 1
			}
		case '"':
			if !p.skipQuoted() {
				return nil, Parsef(p.posAt(open), "unterminated string in arguments of macro DTIG_%s", name)
			}
			continue
		}
		p.pos++
	}
	return nil, Parsef(p.posAt(open), "unterminated argument list of macro DTIG_%s", name)
}

// skipQuoted moves past the double-quoted string at p.pos
func (p *parser) skipQuoted() bool {
	for i := p.pos + 1; i < len(p.src); i++ {
		switch p.src[i] {
		case '\\':
			i++
		case '"':
			p.pos = i + 1
			return true
		}
	}
	return false
}

func (p *parser) parseFragments(name string, bounds [][2]int) ([]Expr, error) {
	if len(bounds) == 1 && strings.TrimSpace(p.src[bounds[0][0]:bounds[0][1]]) == "" {
		return nil, nil
	}

	args := make([]Expr, 0, len(bounds))
	for _, b := range bounds {
		start, end := b[0], b[1]
		for start < end && isSpace(p.src[start]) {
			start++
		}
		for end > start && isSpace(p.src[end-1]) {
			end--
		}

		arg, err := p.parseFragment(name, start, end)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

// parseFragment parses src[start:end] as template text with a parser that
// shares this one's positions and macro table
func (p *parser) parseFragment(name string, start, end int) (*Fragment, error) {
	sub := &parser{
		file:       p.file,
		src:        p.src[:end],
		pos:        start,
		lineStarts: p.lineStarts,
		macros:     p.macros,
	}

	nodes, m, err := sub.parseBody()
	if err != nil {
		return nil, err
	}
	if m != nil {
		return nil, Parsef(m.pos, "DTIG_%s inside an argument of macro DTIG_%s", m.keyword, name)
	}
	for _, n := range nodes {
		switch n.(type) {
		case *For, *If, *MacroDef:
			return nil, Parsef(n.Position(), "block directive inside an argument of macro DTIG_%s", name)
		}
	}
	return &Fragment{Pos: p.posAt(start), Nodes: nodes}, nil
}
