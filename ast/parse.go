package ast

import "fmt"

// Parse lexes and parses src as the restricted Rust surface syntax,
// producing a RestrictedAst. It does not call Validate; callers combine
// Parse and Validate per the §6.1 transpile contract.
func Parse(src string) (RestrictedAst, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.advance(); err != nil {
		return RestrictedAst{}, err
	}
	var funcs []Function
	for p.tok.kind != tEOF {
		fn, err := p.parseFn()
		if err != nil {
			return RestrictedAst{}, err
		}
		funcs = append(funcs, fn)
	}
	return RestrictedAst{Functions: funcs, EntryPoint: "main"}, nil
}

type parser struct {
	lex *lexer
	tok token
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) errf(format string, args ...any) error {
	return fmt.Errorf("%d:%d: "+format, append([]any{p.tok.line, p.tok.col}, args...)...)
}

func (p *parser) expect(k tokKind, what string) (token, error) {
	if p.tok.kind != k {
		return token{}, p.errf("expected %s", what)
	}
	t := p.tok
	if err := p.advance(); err != nil {
		return token{}, err
	}
	return t, nil
}

func (p *parser) at(k tokKind) bool { return p.tok.kind == k }

// parseFn parses `fn name(params) -> Type { body }`.
func (p *parser) parseFn() (Function, error) {
	if _, err := p.expect(tKwFn, "'fn'"); err != nil {
		return Function{}, err
	}
	name, err := p.expect(tIdent, "function name")
	if err != nil {
		return Function{}, err
	}
	if _, err := p.expect(tLParen, "'('"); err != nil {
		return Function{}, err
	}
	var params []Parameter
	for !p.at(tRParen) {
		pn, err := p.expect(tIdent, "parameter name")
		if err != nil {
			return Function{}, err
		}
		if _, err := p.expect(tColon, "':'"); err != nil {
			return Function{}, err
		}
		pt, err := p.parseType()
		if err != nil {
			return Function{}, err
		}
		params = append(params, Parameter{Name: pn.text, Type: pt})
		if p.at(tComma) {
			if err := p.advance(); err != nil {
				return Function{}, err
			}
		}
	}
	if _, err := p.expect(tRParen, "')'"); err != nil {
		return Function{}, err
	}
	retType := Type{Kind: TVoid}
	if p.at(tArrow) {
		if err := p.advance(); err != nil {
			return Function{}, err
		}
		retType, err = p.parseType()
		if err != nil {
			return Function{}, err
		}
	}
	body, err := p.parseBlock()
	if err != nil {
		return Function{}, err
	}
	return Function{Name: name.text, Params: params, ReturnType: retType, Body: body}, nil
}

func (p *parser) parseType() (Type, error) {
	id, err := p.expect(tIdent, "type")
	if err != nil {
		return Type{}, err
	}
	switch id.text {
	case "bool":
		return Type{Kind: TBool}, nil
	case "u32":
		return Type{Kind: TU32}, nil
	case "i32":
		return Type{Kind: TI32}, nil
	case "str", "String", "str'":
		return Type{Kind: TStr}, nil
	case "Result":
		if _, err := p.expect(tLt, "'<'"); err != nil {
			return Type{}, err
		}
		ok, err := p.parseType()
		if err != nil {
			return Type{}, err
		}
		if _, err := p.expect(tComma, "','"); err != nil {
			return Type{}, err
		}
		errT, err := p.parseType()
		if err != nil {
			return Type{}, err
		}
		if _, err := p.expect(tGt, "'>'"); err != nil {
			return Type{}, err
		}
		return Type{Kind: TResult, Ok: &ok, Err: &errT}, nil
	case "Option":
		if _, err := p.expect(tLt, "'<'"); err != nil {
			return Type{}, err
		}
		inner, err := p.parseType()
		if err != nil {
			return Type{}, err
		}
		if _, err := p.expect(tGt, "'>'"); err != nil {
			return Type{}, err
		}
		return Type{Kind: TOption, Inner: &inner}, nil
	default:
		return Type{}, fmt.Errorf("%d:%d: unsupported type %q", id.line, id.col, id.text)
	}
}

func (p *parser) parseBlock() ([]Stmt, error) {
	if _, err := p.expect(tLBrace, "'{'"); err != nil {
		return nil, err
	}
	var stmts []Stmt
	for !p.at(tRBrace) {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if _, err := p.expect(tRBrace, "'}'"); err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *parser) parseStmt() (Stmt, error) {
	switch p.tok.kind {
	case tKwLet:
		return p.parseLet()
	case tKwReturn:
		return p.parseReturn()
	case tKwIf:
		return p.parseIf()
	case tKwWhile:
		return p.parseWhile()
	case tKwFor:
		return p.parseFor()
	case tKwMatch:
		s, err := p.parseMatch()
		if err != nil {
			return nil, err
		}
		if p.at(tSemi) {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		return s, nil
	default:
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.at(tSemi) {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		return ExprStmt{X: e}, nil
	}
}

func (p *parser) parseLet() (Stmt, error) {
	if err := p.advance(); err != nil { // 'let'
		return nil, err
	}
	if p.at(tKwMut) {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	name, err := p.expect(tIdent, "binding name")
	if err != nil {
		return nil, err
	}
	if p.at(tColon) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.parseType(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(tEq, "'='"); err != nil {
		return nil, err
	}
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tSemi, "';'"); err != nil {
		return nil, err
	}
	return Let{Name: name.text, Value: val, Declaration: true}, nil
}

func (p *parser) parseReturn() (Stmt, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.at(tSemi) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return Return{}, nil
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tSemi, "';'"); err != nil {
		return nil, err
	}
	return Return{Value: e}, nil
}

func (p *parser) parseIf() (Stmt, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var els []Stmt
	if p.at(tKwElse) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.at(tKwIf) {
			s, err := p.parseIf()
			if err != nil {
				return nil, err
			}
			els = []Stmt{s}
		} else {
			els, err = p.parseBlock()
			if err != nil {
				return nil, err
			}
		}
	}
	if p.at(tSemi) {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return If{Cond: cond, Then: then, Else: els}, nil
}

func (p *parser) parseWhile() (Stmt, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return While{Cond: cond, Body: body}, nil
}

func (p *parser) parseFor() (Stmt, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	pat, err := p.expect(tIdent, "loop variable")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tKwIn, "'in'"); err != nil {
		return nil, err
	}
	iter, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return For{Pattern: pat.text, Iter: iter, Body: body}, nil
}

func (p *parser) parseMatch() (Stmt, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	scrut, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tLBrace, "'{'"); err != nil {
		return nil, err
	}
	var arms []MatchArm
	for !p.at(tRBrace) {
		pat, err := p.parseMatchPattern()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tFatArrow, "'=>'"); err != nil {
			return nil, err
		}
		var body []Stmt
		if p.at(tLBrace) {
			body, err = p.parseBlock()
			if err != nil {
				return nil, err
			}
		} else {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			body = []Stmt{ExprStmt{X: e}}
		}
		arms = append(arms, MatchArm{Pattern: pat, Body: body})
		if p.at(tComma) {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expect(tRBrace, "'}'"); err != nil {
		return nil, err
	}
	return Match{Scrutinee: scrut, Arms: arms}, nil
}

func (p *parser) parseMatchPattern() (Expr, error) {
	if p.at(tUnderscore) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return Variable{Name: "_"}, nil
	}
	return p.parseExpr()
}

// --- expressions, precedence-climbing ---

func (p *parser) parseExpr() (Expr, error) { return p.parseRange() }

func (p *parser) parseRange() (Expr, error) {
	// a small extension beyond simple precedence climbing: ranges bind
	// looser than ||, matching Rust's low-precedence `..`/`..=`.
	lhs, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.at(tDotDot) || p.at(tDotDotEq) {
		inclusive := p.at(tDotDotEq)
		if err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		return Range{Start: lhs, End: rhs, Inclusive: inclusive}, nil
	}
	return lhs, nil
}

func (p *parser) parseOr() (Expr, error) {
	lhs, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.at(tOrOr) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		lhs = Binary{Op: Or, Left: lhs, Right: rhs}
	}
	return lhs, nil
}

func (p *parser) parseAnd() (Expr, error) {
	lhs, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.at(tAndAnd) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		lhs = Binary{Op: And, Left: lhs, Right: rhs}
	}
	return lhs, nil
}

func (p *parser) parseEquality() (Expr, error) {
	lhs, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.at(tEqEq) || p.at(tBangEq) {
		op := Eq
		if p.at(tBangEq) {
			op = Ne
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		lhs = Binary{Op: op, Left: lhs, Right: rhs}
	}
	return lhs, nil
}

func (p *parser) parseRelational() (Expr, error) {
	lhs, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.at(tLt) || p.at(tLe) || p.at(tGt) || p.at(tGe) {
		var op BinaryOp
		switch p.tok.kind {
		case tLt:
			op = Lt
		case tLe:
			op = Le
		case tGt:
			op = Gt
		case tGe:
			op = Ge
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		lhs = Binary{Op: op, Left: lhs, Right: rhs}
	}
	return lhs, nil
}

func (p *parser) parseAdditive() (Expr, error) {
	lhs, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.at(tPlus) || p.at(tMinus) {
		op := Add
		if p.at(tMinus) {
			op = Sub
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		lhs = Binary{Op: op, Left: lhs, Right: rhs}
	}
	return lhs, nil
}

func (p *parser) parseMultiplicative() (Expr, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.at(tStar) || p.at(tSlash) {
		op := Mul
		if p.at(tSlash) {
			op = Div
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		lhs = Binary{Op: op, Left: lhs, Right: rhs}
	}
	return lhs, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.at(tBang) || p.at(tMinus) {
		op := Not
		if p.at(tMinus) {
			op = Neg
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Unary{Op: op, Operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.at(tDot):
			if err := p.advance(); err != nil {
				return nil, err
			}
			m, err := p.expect(tIdent, "method name")
			if err != nil {
				return nil, err
			}
			if !p.at(tLParen) {
				// field access degenerates to a method call with no args,
				// since the restricted type set has no structs.
				e = MethodCall{Receiver: e, Method: m.text}
				continue
			}
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			e = MethodCall{Receiver: e, Method: m.text, Args: args}
		case p.at(tLBracket):
			if err := p.advance(); err != nil {
				return nil, err
			}
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tRBracket, "']'"); err != nil {
				return nil, err
			}
			e = Index{Object: e, Idx: idx}
		default:
			return e, nil
		}
	}
}

func (p *parser) parseArgs() ([]Expr, error) {
	if _, err := p.expect(tLParen, "'('"); err != nil {
		return nil, err
	}
	var args []Expr
	for !p.at(tRParen) {
		a, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.at(tComma) {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expect(tRParen, "')'"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	switch p.tok.kind {
	case tKwTrue:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return Literal{Kind: LitBool, Bool: true}, nil
	case tKwFalse:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return Literal{Kind: LitBool, Bool: false}, nil
	case tInt:
		v := p.tok.ival
		if err := p.advance(); err != nil {
			return nil, err
		}
		return Literal{Kind: LitU32, Num: v}, nil
	case tString:
		s := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.maybeFormatMacro(s)
	case tIdent, tMinus:
		return p.parsePathOrCall()
	case tLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tRParen, "')'"); err != nil {
			return nil, err
		}
		return e, nil
	case tLBracket:
		if err := p.advance(); err != nil {
			return nil, err
		}
		var elems []Expr
		for !p.at(tRBracket) {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
			if p.at(tComma) {
				if err := p.advance(); err != nil {
					return nil, err
				}
			}
		}
		if _, err := p.expect(tRBracket, "']'"); err != nil {
			return nil, err
		}
		return Array{Elems: elems}, nil
	default:
		return nil, p.errf("unexpected token in expression")
	}
}

// maybeFormatMacro is called for every string literal in expression
// position and returns it as a plain string Literal. Macro invocations
// such as format!/println! start with an identifier, not a string, so
// they are recognized in parsePathOrCall instead.
func (p *parser) maybeFormatMacro(s string) (Expr, error) {
	return Literal{Kind: LitStr, Str: s}, nil
}

// parsePathOrCall parses an identifier, a `a::b::c` path, a call
// `name(args)`, or a macro invocation `name!(args)`. format!/println!-
// style macros with a format string and interpolated arguments lower to
// a FunctionCall named "format!"/"println!"/... whose first argument is
// the format-string Literal and the rest are the interpolated
// expressions; irbuilder recognizes these names directly.
func (p *parser) parsePathOrCall() (Expr, error) {
	name, err := p.parseIdentPath()
	if err != nil {
		return nil, err
	}
	if p.at(tBang) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return FunctionCall{Name: name + "!", Args: args}, nil
	}
	if p.at(tLParen) {
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return FunctionCall{Name: name, Args: args}, nil
	}
	return Variable{Name: name}, nil
}

func (p *parser) parseIdentPath() (string, error) {
	id, err := p.expect(tIdent, "identifier")
	if err != nil {
		return "", err
	}
	name := id.text
	for p.at(tColonColon) {
		if err := p.advance(); err != nil {
			return "", err
		}
		seg, err := p.expect(tIdent, "path segment")
		if err != nil {
			return "", err
		}
		name += "::" + seg.text
	}
	return name, nil
}
