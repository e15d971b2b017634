package syntax

import (
	"fmt"
	"strings"
)

// tokKind is the lexer's output token kind: either a shell word (already
// decomposed into BashExpr parts) or a control operator.
type tokKind int

const (
	tkWord tokKind = iota
	tkNewline
	tkSemi       // ;
	tkDSemi      // ;;
	tkAnd        // &&
	tkOr         // ||
	tkPipe       // |
	tkAmp        // &
	tkLParen     // (
	tkRParen     // )
	tkLBrace     // {
	tkRBrace     // }
	tkLess       // <
	tkGreat      // >
	tkDLess      // <<
	tkDGreat     // >>
	tkComment
	tkEOF
)

type lexTok struct {
	kind tokKind
	word BashExpr // set when kind == tkWord
	text string    // raw text, used for comments and diagnostics
	span Span
}

// lexer turns raw bash source into a flat token stream. It tracks
// quote state (single/double/backtick/paren-nesting) the way
// mvdan.cc/sh/v3/syntax's lexer does, but emits whole words rather than
// the finer-grained rune-level tokens the teacher's lexer uses, since
// the parser here operates at word granularity.
type lexer struct {
	src        string
	pos        int
	line, col  int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

func (l *lexer) eof() bool { return l.pos >= len(l.src) }

func (l *lexer) peek() byte {
	if l.eof() {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

func (l *lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *lexer) skipBlanks() {
	for !l.eof() {
		c := l.peek()
		if c == ' ' || c == '\t' || c == '\\' && l.peekAt(1) == '\n' {
			if c == '\\' {
				l.advance()
				l.advance()
				continue
			}
			l.advance()
			continue
		}
		break
	}
}

func (l *lexer) next() (lexTok, error) {
	l.skipBlanks()
	line, col := l.line, l.col
	if l.eof() {
		return lexTok{kind: tkEOF, span: Span{line, col, line, col}}, nil
	}

	c := l.peek()
	switch c {
	case '\n':
		l.advance()
		return lexTok{kind: tkNewline, span: Span{line, col, line, col + 1}}, nil
	case '#':
		start := l.pos
		for !l.eof() && l.peek() != '\n' {
			l.advance()
		}
		text := l.src[start:l.pos]
		return lexTok{kind: tkComment, text: text, span: Span{line, col, l.line, l.col}}, nil
	case ';':
		l.advance()
		if l.peek() == ';' {
			l.advance()
			return lexTok{kind: tkDSemi, span: Span{line, col, l.line, l.col}}, nil
		}
		return lexTok{kind: tkSemi, span: Span{line, col, l.line, l.col}}, nil
	case '&':
		l.advance()
		if l.peek() == '&' {
			l.advance()
			return lexTok{kind: tkAnd, span: Span{line, col, l.line, l.col}}, nil
		}
		return lexTok{kind: tkAmp, span: Span{line, col, l.line, l.col}}, nil
	case '|':
		l.advance()
		if l.peek() == '|' {
			l.advance()
			return lexTok{kind: tkOr, span: Span{line, col, l.line, l.col}}, nil
		}
		return lexTok{kind: tkPipe, span: Span{line, col, l.line, l.col}}, nil
	case '(':
		l.advance()
		return lexTok{kind: tkLParen, span: Span{line, col, l.line, l.col}}, nil
	case ')':
		l.advance()
		return lexTok{kind: tkRParen, span: Span{line, col, l.line, l.col}}, nil
	case '{':
		l.advance()
		return lexTok{kind: tkLBrace, span: Span{line, col, l.line, l.col}}, nil
	case '}':
		l.advance()
		return lexTok{kind: tkRBrace, span: Span{line, col, l.line, l.col}}, nil
	case '<':
		l.advance()
		if l.peek() == '<' {
			l.advance()
			return lexTok{kind: tkDLess, span: Span{line, col, l.line, l.col}}, nil
		}
		return lexTok{kind: tkLess, span: Span{line, col, l.line, l.col}}, nil
	case '>':
		l.advance()
		if l.peek() == '>' {
			l.advance()
			return lexTok{kind: tkDGreat, span: Span{line, col, l.line, l.col}}, nil
		}
		return lexTok{kind: tkGreat, span: Span{line, col, l.line, l.col}}, nil
	default:
		return l.lexWord(line, col)
	}
}

// isWordBreak reports whether c terminates an unquoted shell word.
func isWordBreak(c byte) bool {
	switch c {
	case 0, ' ', '\t', '\n', ';', '&', '|', '(', ')', '{', '}', '<', '>', '#':
		return true
	}
	return false
}

func (l *lexer) lexWord(line, col int) (lexTok, error) {
	var parts []BashExpr
	var lit strings.Builder
	flushLit := func() {
		if lit.Len() > 0 {
			parts = append(parts, literalOrGlob(lit.String()))
			lit.Reset()
		}
	}

	for !l.eof() && !isWordBreak(l.peek()) {
		c := l.peek()
		switch c {
		case '\'':
			flushLit()
			s, err := l.lexSingleQuoted()
			if err != nil {
				return lexTok{}, err
			}
			parts = append(parts, Quoted{Value: s, Double: false})
		case '"':
			flushLit()
			inner, err := l.lexDoubleQuoted()
			if err != nil {
				return lexTok{}, err
			}
			parts = append(parts, inner...)
		case '$':
			flushLit()
			part, err := l.lexDollar()
			if err != nil {
				return lexTok{}, err
			}
			parts = append(parts, part)
		case '`':
			flushLit()
			body, err := l.lexBacktick()
			if err != nil {
				return lexTok{}, err
			}
			parts = append(parts, CommandSubst{Body: body})
		default:
			lit.WriteByte(l.advance())
		}
	}
	flushLit()

	span := Span{line, col, l.line, l.col}
	if len(parts) == 0 {
		return lexTok{kind: tkWord, word: Literal{Value: ""}, span: span}, nil
	}
	if len(parts) == 1 {
		return lexTok{kind: tkWord, word: parts[0], span: span}, nil
	}
	return lexTok{kind: tkWord, word: Concat{Parts: parts}, span: span}, nil
}

func literalOrGlob(s string) BashExpr {
	if strings.ContainsAny(s, "*?[") {
		return Glob{Pattern: s}
	}
	return Literal{Value: s}
}

func (l *lexer) lexSingleQuoted() (string, error) {
	l.advance() // opening '
	start := l.pos
	for !l.eof() && l.peek() != '\'' {
		l.advance()
	}
	if l.eof() {
		return "", fmt.Errorf("%d:%d: unterminated single-quoted string", l.line, l.col)
	}
	s := l.src[start:l.pos]
	l.advance() // closing '
	return s, nil
}

// lexDoubleQuoted returns the sequence of BashExpr parts inside a
// double-quoted string, expanding $VAR/${...}/$(...) references while
// treating everything else as literal text, and wraps them so the
// emitter/purifier can tell this text originated inside double quotes.
func (l *lexer) lexDoubleQuoted() ([]BashExpr, error) {
	l.advance() // opening "
	var parts []BashExpr
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			parts = append(parts, Quoted{Value: lit.String(), Double: true})
			lit.Reset()
		}
	}
	for !l.eof() && l.peek() != '"' {
		c := l.peek()
		switch c {
		case '\\':
			l.advance()
			if !l.eof() {
				lit.WriteByte(l.advance())
			}
		case '$':
			flush()
			part, err := l.lexDollar()
			if err != nil {
				return nil, err
			}
			parts = append(parts, part)
		case '`':
			flush()
			body, err := l.lexBacktick()
			if err != nil {
				return nil, err
			}
			parts = append(parts, CommandSubst{Body: body})
		default:
			lit.WriteByte(l.advance())
		}
	}
	flush()
	if l.eof() {
		return nil, fmt.Errorf("%d:%d: unterminated double-quoted string", l.line, l.col)
	}
	l.advance() // closing "
	if len(parts) == 0 {
		parts = append(parts, Quoted{Value: "", Double: true})
	}
	return parts, nil
}

func (l *lexer) lexBacktick() ([]BashStmt, error) {
	l.advance() // opening `
	start := l.pos
	for !l.eof() && l.peek() != '`' {
		l.advance()
	}
	if l.eof() {
		return nil, fmt.Errorf("%d:%d: unterminated backtick command substitution", l.line, l.col)
	}
	inner := l.src[start:l.pos]
	l.advance() // closing `
	p := NewParser(inner)
	ast, err := p.Parse()
	if err != nil {
		return nil, err
	}
	return ast.Statements, nil
}

// lexDollar lexes one $-prefixed expansion: $VAR, ${...}, $(...), or
// $((...)).
func (l *lexer) lexDollar() (BashExpr, error) {
	l.advance() // '$'
	if l.eof() {
		return Literal{Value: "$"}, nil
	}
	switch l.peek() {
	case '(':
		if l.peekAt(1) == '(' {
			return l.lexArithmetic()
		}
		return l.lexCommandSubst()
	case '{':
		return l.lexBraceParam()
	case '#':
		l.advance()
		return l.lexSpecialOrName(func(name string) BashExpr {
			return ParamExp{Name: name, Kind: ParamLength}
		})
	default:
		name := l.lexVarName()
		if name == "" {
			return Literal{Value: "$"}, nil
		}
		return VarRef{Name: name}, nil
	}
}

func (l *lexer) lexSpecialOrName(wrap func(string) BashExpr) (BashExpr, error) {
	name := l.lexVarName()
	return wrap(name), nil
}

func isVarNameByte(c byte, first bool) bool {
	if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
		return true
	}
	if !first && c >= '0' && c <= '9' {
		return true
	}
	return false
}

func (l *lexer) lexVarName() string {
	if l.eof() {
		return ""
	}
	// special one-character parameters: $?, $#, $$, $@, $0-$9, $!
	if c := l.peek(); c == '?' || c == '#' || c == '$' || c == '@' || c == '!' || c == '*' || (c >= '0' && c <= '9') {
		l.advance()
		return string(c)
	}
	start := l.pos
	if !isVarNameByte(l.peek(), true) {
		return ""
	}
	l.advance()
	for !l.eof() && isVarNameByte(l.peek(), false) {
		l.advance()
	}
	return l.src[start:l.pos]
}

func (l *lexer) lexCommandSubst() (BashExpr, error) {
	l.advance() // '('
	depth := 1
	start := l.pos
	for !l.eof() && depth > 0 {
		switch l.peek() {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				break
			}
		}
		if depth == 0 {
			break
		}
		l.advance()
	}
	inner := l.src[start:l.pos]
	if !l.eof() {
		l.advance() // closing ')'
	}
	p := NewParser(inner)
	ast, err := p.Parse()
	if err != nil {
		return nil, err
	}
	return CommandSubst{Body: ast.Statements}, nil
}

func (l *lexer) lexArithmetic() (BashExpr, error) {
	l.advance() // first '('
	l.advance() // second '('
	start := l.pos
	depth := 1
	for !l.eof() && depth > 0 {
		switch l.peek() {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				break
			}
		}
		if depth == 0 {
			break
		}
		l.advance()
	}
	expr := l.src[start:l.pos]
	// consume "))"
	if !l.eof() && l.peek() == ')' {
		l.advance()
	}
	if !l.eof() && l.peek() == ')' {
		l.advance()
	}
	return Arithmetic{Expr: strings.TrimSpace(expr)}, nil
}

func (l *lexer) lexBraceParam() (BashExpr, error) {
	l.advance() // '{'
	start := l.pos
	depth := 1
	for !l.eof() && depth > 0 {
		switch l.peek() {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				break
			}
		}
		if depth == 0 {
			break
		}
		l.advance()
	}
	body := l.src[start:l.pos]
	if !l.eof() {
		l.advance() // closing '}'
	}
	return parseParamExp(body)
}

// parseParamExp parses the inside of ${...} into one of the nine
// POSIX forms from §3.2/§4.3.
func parseParamExp(body string) (BashExpr, error) {
	if strings.HasPrefix(body, "#") {
		return ParamExp{Name: body[1:], Kind: ParamLength}, nil
	}
	ops := []struct {
		sep  string
		kind ParamExpKind
	}{
		{":-", ParamDefault},
		{":=", ParamAssignDef},
		{":?", ParamErrIfUnset},
		{":+", ParamAltIfSet},
		{"##", ParamPrefixLong},
		{"#", ParamPrefixShort},
		{"%%", ParamSuffixLong},
		{"%", ParamSuffixShort},
	}
	for _, op := range ops {
		if i := strings.Index(body, op.sep); i >= 0 {
			name := body[:i]
			arg := body[i+len(op.sep):]
			argExpr, err := parseWordString(arg)
			if err != nil {
				return nil, err
			}
			return ParamExp{Name: name, Kind: op.kind, Arg: argExpr}, nil
		}
	}
	return VarRef{Name: body}, nil
}

// parseWordString re-lexes a standalone string (an expansion operand)
// into a BashExpr, reusing the word lexer.
func parseWordString(s string) (BashExpr, error) {
	l := newLexer(s)
	tok, err := l.lexWord(1, 1)
	if err != nil {
		return nil, err
	}
	if tok.word == nil {
		return Literal{Value: ""}, nil
	}
	return tok.word, nil
}
