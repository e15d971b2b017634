package purify

import (
	"fmt"
	"strings"

	"github.com/paiml/bashrs-sub011/bash/syntax"
)

// NonDeterministicConstructError is returned when StrictIdempotency is
// set and a non-deterministic construct is encountered instead of
// being silently rewritten.
type NonDeterministicConstructError struct{ Detail string }

func (e *NonDeterministicConstructError) Error() string {
	return fmt.Sprintf("non-deterministic construct: %s", e.Detail)
}

// nonDeterministicVars names the bash special variables §4.3 requires
// the determinism pass to recognize.
var nonDeterministicVars = map[string]bool{
	"RANDOM": true, "SECONDS": true, "BASHPID": true, "PPID": true, "$": true,
}

// idempotentReadOnly commands already behave idempotently and need no
// rewrite.
var idempotentReadOnly = map[string]bool{
	"echo": true, "cat": true, "ls": true, "grep": true,
}

// Purifier carries purification state across one AST's worth of
// statements: the options that select which rules run, and the report
// being accumulated.
type Purifier struct {
	Options Options
	Report  Report
}

// New returns a Purifier configured with opts.
func New(opts Options) *Purifier {
	return &Purifier{Options: opts}
}

// Purify rewrites ast's statements in place (functionally — it returns
// a new tree) and returns the accumulated report alongside it.
func (p *Purifier) Purify(ast *syntax.BashAst) (*syntax.BashAst, *Report, error) {
	body, err := p.purifyBody(ast.Statements)
	if err != nil {
		return nil, nil, err
	}
	out := &syntax.BashAst{Statements: body, Metadata: ast.Metadata}
	return out, &p.Report, nil
}

func (p *Purifier) purifyBody(stmts []syntax.BashStmt) ([]syntax.BashStmt, error) {
	out := make([]syntax.BashStmt, 0, len(stmts))
	for i, s := range stmts {
		if i == 0 {
			if c, ok := s.(syntax.Comment); ok && strings.HasPrefix(strings.TrimSpace(c.Text), "!/bin/bash") {
				out = append(out, syntax.Comment{Text: strings.Replace(c.Text, "!/bin/bash", "!/bin/sh", 1), SpanVal: c.SpanVal})
				continue
			}
		}
		ps, err := p.purifyStmt(s)
		if err != nil {
			return nil, err
		}
		out = append(out, ps)
	}
	return out, nil
}

func (p *Purifier) purifyStmt(stmt syntax.BashStmt) (syntax.BashStmt, error) {
	switch s := stmt.(type) {
	case syntax.Command:
		return p.purifyCommand(s)

	case syntax.Pipeline:
		cmds, err := p.purifyBody(s.Commands)
		if err != nil {
			return nil, err
		}
		return syntax.Pipeline{Commands: cmds, SpanVal: s.SpanVal}, nil

	case syntax.AndList:
		left, err := p.purifyStmt(s.Left)
		if err != nil {
			return nil, err
		}
		right, err := p.purifyStmt(s.Right)
		if err != nil {
			return nil, err
		}
		return syntax.AndList{Left: left, Right: right, SpanVal: s.SpanVal}, nil

	case syntax.OrList:
		left, err := p.purifyStmt(s.Left)
		if err != nil {
			return nil, err
		}
		right, err := p.purifyStmt(s.Right)
		if err != nil {
			return nil, err
		}
		return syntax.OrList{Left: left, Right: right, SpanVal: s.SpanVal}, nil

	case syntax.BraceGroup:
		body, err := p.purifyBody(s.Body)
		if err != nil {
			return nil, err
		}
		return syntax.BraceGroup{Body: body, Subshell: s.Subshell, SpanVal: s.SpanVal}, nil

	case syntax.Coproc:
		body, err := p.purifyBody(s.Body)
		if err != nil {
			return nil, err
		}
		return syntax.Coproc{Name: s.Name, Body: body, SpanVal: s.SpanVal}, nil

	case syntax.Assignment:
		v, err := p.purifyExpr(s.Value)
		if err != nil {
			return nil, err
		}
		return syntax.Assignment{Name: s.Name, Value: v, Exported: s.Exported, SpanVal: s.SpanVal}, nil

	case syntax.If:
		cond, err := p.purifyStmt(s.Cond)
		if err != nil {
			return nil, err
		}
		then, err := p.purifyBody(s.Then)
		if err != nil {
			return nil, err
		}
		var elifs []syntax.ElifClause
		for _, e := range s.Elifs {
			ec, err := p.purifyStmt(e.Cond)
			if err != nil {
				return nil, err
			}
			eb, err := p.purifyBody(e.Then)
			if err != nil {
				return nil, err
			}
			elifs = append(elifs, syntax.ElifClause{Cond: ec, Then: eb})
		}
		var els []syntax.BashStmt
		if s.Else != nil {
			els, err = p.purifyBody(s.Else)
			if err != nil {
				return nil, err
			}
		}
		return syntax.If{Cond: cond, Then: then, Elifs: elifs, Else: els, SpanVal: s.SpanVal}, nil

	case syntax.While:
		cond, err := p.purifyStmt(s.Cond)
		if err != nil {
			return nil, err
		}
		body, err := p.purifyBody(s.Body)
		if err != nil {
			return nil, err
		}
		return syntax.While{Cond: cond, Body: body, SpanVal: s.SpanVal}, nil

	case syntax.Until:
		// §9 Open Question 3: `until COND` always purifies to
		// `while ! COND`, so the emitter never has to special-case Until.
		cond, err := p.purifyStmt(s.Cond)
		if err != nil {
			return nil, err
		}
		body, err := p.purifyBody(s.Body)
		if err != nil {
			return nil, err
		}
		negated := negateCondition(cond)
		return syntax.While{Cond: negated, Body: body, SpanVal: s.SpanVal}, nil

	case syntax.For:
		items := make([]syntax.BashExpr, len(s.Items))
		for i, it := range s.Items {
			v, err := p.purifyExpr(it)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		body, err := p.purifyBody(s.Body)
		if err != nil {
			return nil, err
		}
		return syntax.For{Var: s.Var, Items: items, Body: body, SpanVal: s.SpanVal}, nil

	case syntax.Case:
		word, err := p.purifyExpr(s.Word)
		if err != nil {
			return nil, err
		}
		arms := make([]syntax.CaseArm, len(s.Arms))
		for i, a := range s.Arms {
			body, err := p.purifyBody(a.Body)
			if err != nil {
				return nil, err
			}
			arms[i] = syntax.CaseArm{Patterns: a.Patterns, Body: body}
		}
		return syntax.Case{Word: word, Arms: arms, SpanVal: s.SpanVal}, nil

	case syntax.Function:
		body, err := p.purifyBody(s.Body)
		if err != nil {
			return nil, err
		}
		return syntax.Function{Name: s.Name, Body: body, SpanVal: s.SpanVal}, nil

	case syntax.Return, syntax.Comment:
		return s, nil

	default:
		return stmt, nil
	}
}

// negateCondition wraps cond's test in a negating Command("!", cond)
// when cond is a Command, and otherwise leaves it (a Pipeline or
// AndList/OrList condition is negated by wrapping the whole thing
// through a `!` guard command, matching how `until` is defined in
// terms of `while`'s negated exit status).
func negateCondition(cond syntax.BashStmt) syntax.BashStmt {
	if cmd, ok := cond.(syntax.Command); ok {
		return syntax.Command{
			Name:      "!",
			Args:      append([]syntax.BashExpr{syntax.Literal{Value: cmd.Name}}, cmd.Args...),
			Redirects: cmd.Redirects,
			SpanVal:   cmd.SpanVal,
		}
	}
	return syntax.BraceGroup{Body: []syntax.BashStmt{
		syntax.Command{Name: "!", Args: []syntax.BashExpr{}},
	}, SpanVal: cond.Span()}
}

func (p *Purifier) purifyCommand(c syntax.Command) (syntax.BashStmt, error) {
	switch c.Name {
	case "mkdir":
		return p.makeMkdirIdempotent(c)
	case "rm":
		return p.makeRmIdempotent(c)
	case "cp", "mv":
		p.Report.addWarning(fmt.Sprintf("Command '%s' may not be idempotent - consider checking if destination exists", c.Name))
		return p.purifyPlainCommand(c)
	default:
		if idempotentReadOnly[c.Name] {
			return p.purifyPlainCommand(c)
		}
		if p.Options.TrackSideEffects {
			p.Report.addSideEffect(fmt.Sprintf("Side effect detected: command '%s'", c.Name))
		}
		return p.purifyPlainCommand(c)
	}
}

func (p *Purifier) purifyPlainCommand(c syntax.Command) (syntax.BashStmt, error) {
	args, err := p.purifyExprs(c.Args)
	if err != nil {
		return nil, err
	}
	return syntax.Command{Name: c.Name, Args: args, Redirects: c.Redirects, SpanVal: c.SpanVal}, nil
}

func hasFlag(args []syntax.BashExpr, flag byte) bool {
	for _, a := range args {
		if lit, ok := a.(syntax.Literal); ok && strings.HasPrefix(lit.Value, "-") && strings.IndexByte(lit.Value, flag) >= 0 {
			return true
		}
	}
	return false
}

func (p *Purifier) makeMkdirIdempotent(c syntax.Command) (syntax.BashStmt, error) {
	args, err := p.purifyExprs(c.Args)
	if err != nil {
		return nil, err
	}
	if !hasFlag(args, 'p') {
		args = append([]syntax.BashExpr{syntax.Literal{Value: "-p"}}, args...)
		p.Report.addIdempotencyFix("Added -p flag to mkdir for idempotency")
	}
	return syntax.Command{Name: "mkdir", Args: args, Redirects: c.Redirects, SpanVal: c.SpanVal}, nil
}

func (p *Purifier) makeRmIdempotent(c syntax.Command) (syntax.BashStmt, error) {
	if hasFlag(c.Args, 'f') {
		return p.purifyPlainCommand(c)
	}
	args, err := p.purifyExprs(c.Args)
	if err != nil {
		return nil, err
	}
	args = append([]syntax.BashExpr{syntax.Literal{Value: "-f"}}, args...)
	p.Report.addIdempotencyFix("Added -f flag to rm for idempotency")
	return syntax.Command{Name: "rm", Args: args, Redirects: c.Redirects, SpanVal: c.SpanVal}, nil
}

func (p *Purifier) purifyExprs(exprs []syntax.BashExpr) ([]syntax.BashExpr, error) {
	out := make([]syntax.BashExpr, len(exprs))
	for i, e := range exprs {
		v, err := p.purifyExpr(e)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
