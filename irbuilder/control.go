package irbuilder

import (
	"fmt"

	"github.com/paiml/bashrs-sub011/ast"
	"github.com/paiml/bashrs-sub011/ir"
	"github.com/paiml/bashrs-sub011/optimizer"
)

// buildFor lowers a Rust `for` loop. A Range iterable lowers to the
// numeric ir.For; a literal array, or a reference to a previously
// bound array, lowers to ir.ForIn over its (possibly indexed-scalar)
// elements; anything else is rejected, since the restricted subset has
// no other iterable form (§4.1).
func (b *builder) buildFor(n ast.For) (ir.ShellIR, error) {
	body, err := b.buildStmts(n.Body, false)
	if err != nil {
		return nil, err
	}
	bodySeq := ir.Sequence{Items: body}

	switch it := n.Iter.(type) {
	case ast.Range:
		start, err := b.buildValue(it.Start)
		if err != nil {
			return nil, err
		}
		end, err := b.buildValue(it.End)
		if err != nil {
			return nil, err
		}
		// ir.For.End is always an inclusive bound; an exclusive Rust
		// range (0..n) is normalized to inclusive (0..=n-1) here so the
		// emitter never has to special-case range exclusivity.
		end = optimizer.AdjustRangeEnd(end, it.Inclusive)
		return ir.For{Var: n.Pattern, Start: start, End: end, Body: bodySeq}, nil

	case ast.Array:
		items := make([]ir.ShellValue, len(it.Elems))
		for i, el := range it.Elems {
			v, err := b.buildValue(el)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return ir.ForIn{Var: n.Pattern, Items: items, Body: bodySeq}, nil

	case ast.Variable:
		info, known := b.arrays[it.Name]
		if !known {
			return nil, fmt.Errorf("irbuilder: for-loop iterable %q is not a known array", it.Name)
		}
		items := make([]ir.ShellValue, info.length)
		for i := range items {
			items[i] = ir.Variable{Name: fmt.Sprintf("%s_%d", it.Name, i)}
		}
		return ir.ForIn{Var: n.Pattern, Items: items, Body: bodySeq}, nil

	default:
		return nil, fmt.Errorf("irbuilder: unsupported for-loop iterable %T", n.Iter)
	}
}

// buildMatch lowers a Rust `match`. When every arm pattern is a literal
// or the `_` wildcard it lowers directly to ir.Case; a Range pattern
// has no POSIX case-statement equivalent, so the whole match falls
// back to a chain of ir.If comparisons instead (grounded on the
// original's match-to-if-chain fallback for range arms).
func (b *builder) buildMatch(n ast.Match, tailEcho bool) (ir.ShellIR, error) {
	for _, arm := range n.Arms {
		if _, isRange := arm.Pattern.(ast.Range); isRange {
			return b.buildMatchAsIfChain(n, tailEcho)
		}
	}

	scrut, err := b.buildValue(n.Scrutinee)
	if err != nil {
		return nil, err
	}
	arms := make([]ir.CaseArm, len(n.Arms))
	for i, arm := range n.Arms {
		body, err := b.buildStmts(arm.Body, tailEcho)
		if err != nil {
			return nil, err
		}
		pattern, err := matchPattern(arm.Pattern)
		if err != nil {
			return nil, err
		}
		arms[i] = ir.CaseArm{Pattern: pattern, Body: ir.Sequence{Items: body}}
	}
	return ir.Case{Scrutinee: scrut, Arms: arms}, nil
}

func matchPattern(e ast.Expr) (ir.CasePattern, error) {
	switch p := e.(type) {
	case ast.Variable:
		if p.Name == "_" {
			return ir.WildcardPattern{}, nil
		}
		return nil, fmt.Errorf("irbuilder: match pattern %q is not a literal or wildcard", p.Name)
	case ast.Literal:
		switch p.Kind {
		case ast.LitStr:
			return ir.LiteralPattern{Value: p.Str}, nil
		case ast.LitU32, ast.LitI32:
			return ir.LiteralPattern{Value: fmt.Sprintf("%d", p.Num)}, nil
		case ast.LitBool:
			if p.Bool {
				return ir.LiteralPattern{Value: "true"}, nil
			}
			return ir.LiteralPattern{Value: "false"}, nil
		}
	}
	return nil, fmt.Errorf("irbuilder: unsupported match pattern %T", e)
}

// buildMatchAsIfChain lowers a match with at least one Range arm into
// nested If/Else comparisons evaluated top to bottom, the same order
// Rust's match arms are tried in.
func (b *builder) buildMatchAsIfChain(n ast.Match, tailEcho bool) (ir.ShellIR, error) {
	scrut, err := b.buildValue(n.Scrutinee)
	if err != nil {
		return nil, err
	}
	return b.buildIfChainFrom(scrut, n.Arms, tailEcho)
}

func (b *builder) buildIfChainFrom(scrut ir.ShellValue, arms []ast.MatchArm, tailEcho bool) (ir.ShellIR, error) {
	if len(arms) == 0 {
		return ir.Noop{}, nil
	}
	arm := arms[0]
	body, err := b.buildStmts(arm.Body, tailEcho)
	if err != nil {
		return nil, err
	}
	bodySeq := ir.Sequence{Items: body}

	if v, ok := arm.Pattern.(ast.Variable); ok && v.Name == "_" {
		return bodySeq, nil
	}

	test, err := b.matchTest(scrut, arm.Pattern)
	if err != nil {
		return nil, err
	}
	elseNode, err := b.buildIfChainFrom(scrut, arms[1:], tailEcho)
	if err != nil {
		return nil, err
	}
	return ir.If{Test: test, Then: bodySeq, Else: elseNode}, nil
}

func (b *builder) matchTest(scrut ir.ShellValue, pattern ast.Expr) (ir.ShellValue, error) {
	switch p := pattern.(type) {
	case ast.Range:
		start, err := b.buildValue(p.Start)
		if err != nil {
			return nil, err
		}
		end, err := b.buildValue(p.End)
		if err != nil {
			return nil, err
		}
		endOp := ir.Lt
		if p.Inclusive {
			endOp = ir.Le
		}
		return ir.LogicalAnd{
			Left:  ir.Comparison{Op: ir.Ge, Left: scrut, Right: start},
			Right: ir.Comparison{Op: endOp, Left: scrut, Right: end},
		}, nil
	case ast.Literal:
		v, err := b.buildValue(p)
		if err != nil {
			return nil, err
		}
		op := ir.NumEq
		if p.Kind == ast.LitStr {
			op = ir.StrEq
		}
		return ir.Comparison{Op: op, Left: scrut, Right: v}, nil
	default:
		return nil, fmt.Errorf("irbuilder: unsupported match pattern %T in if-chain fallback", pattern)
	}
}
