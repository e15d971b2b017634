package purify

import (
	"fmt"
	"strings"

	"github.com/paiml/bashrs-sub011/bash/syntax"
)

// purifyExpr handles every BashExpr variant, grounded on the Rust
// original's purify_expression dispatch (expressions.rs).
func (p *Purifier) purifyExpr(expr syntax.BashExpr) (syntax.BashExpr, error) {
	if expr == nil {
		return nil, nil
	}
	switch e := expr.(type) {
	case syntax.VarRef:
		return p.purifyVarRef(e)

	case syntax.CommandSubst:
		p.Report.addWarning("Command substitution detected - may affect determinism")
		body, err := p.purifyBody(e.Body)
		if err != nil {
			return nil, err
		}
		return syntax.CommandSubst{Body: body}, nil

	case syntax.ArrayLit:
		elems, err := p.purifyExprs(e.Elems)
		if err != nil {
			return nil, err
		}
		return syntax.ArrayLit{Elems: elems}, nil

	case syntax.Concat:
		parts, err := p.purifyExprs(e.Parts)
		if err != nil {
			return nil, err
		}
		return syntax.Concat{Parts: parts}, nil

	case syntax.TestExpr:
		return p.purifyTestExpr(e)

	case syntax.Arithmetic:
		return p.purifyArithmetic(e)

	case syntax.Literal, syntax.Glob, syntax.Quoted:
		return expr, nil

	case syntax.ParamExp:
		return p.purifyParamExp(e)

	default:
		return expr, nil
	}
}

func (p *Purifier) purifyVarRef(v syntax.VarRef) (syntax.BashExpr, error) {
	if nonDeterministicVars[v.Name] {
		if p.Options.RemoveNonDeterministic {
			p.Report.addDeterminismFix(fmt.Sprintf("Removed non-deterministic variable: $%s", v.Name))
			return syntax.Quoted{Value: "0", Double: true}, nil
		}
		if p.Options.StrictIdempotency {
			return nil, &NonDeterministicConstructError{Detail: fmt.Sprintf("variable $%s is non-deterministic", v.Name)}
		}
	}
	return v, nil
}

func (p *Purifier) checkNonDetVariable(name, context string) {
	if nonDeterministicVars[name] {
		p.Report.addDeterminismFix(fmt.Sprintf("%s expansion uses non-deterministic variable: $%s", context, name))
	}
}

func (p *Purifier) purifyParamExp(e syntax.ParamExp) (syntax.BashExpr, error) {
	label := paramExpLabel(e.Kind)
	p.checkNonDetVariable(e.Name, label)
	if e.Arg == nil {
		return e, nil
	}
	arg, err := p.purifyExpr(e.Arg)
	if err != nil {
		return nil, err
	}
	return syntax.ParamExp{Name: e.Name, Kind: e.Kind, Arg: arg}, nil
}

func paramExpLabel(kind syntax.ParamExpKind) string {
	switch kind {
	case syntax.ParamDefault:
		return "Default value"
	case syntax.ParamAssignDef:
		return "Assign default"
	case syntax.ParamErrIfUnset:
		return "Error-if-unset"
	case syntax.ParamAltIfSet:
		return "Alternative value"
	case syntax.ParamLength:
		return "String length"
	case syntax.ParamSuffixShort, syntax.ParamSuffixLong:
		return "Remove suffix"
	case syntax.ParamPrefixShort, syntax.ParamPrefixLong:
		return "Remove prefix"
	default:
		return "Parameter expansion"
	}
}

func (p *Purifier) purifyTestExpr(t syntax.TestExpr) (syntax.BashExpr, error) {
	out := t
	if t.Operand != nil {
		v, err := p.purifyExpr(t.Operand)
		if err != nil {
			return nil, err
		}
		out.Operand = v
	}
	if t.LeftVal != nil {
		v, err := p.purifyExpr(t.LeftVal)
		if err != nil {
			return nil, err
		}
		out.LeftVal = v
	}
	if t.RightVal != nil {
		v, err := p.purifyExpr(t.RightVal)
		if err != nil {
			return nil, err
		}
		out.RightVal = v
	}
	if t.Left != nil {
		v, err := p.purifyTestExpr(*t.Left)
		if err != nil {
			return nil, err
		}
		lv, _ := v.(syntax.TestExpr)
		out.Left = &lv
	}
	if t.Right != nil {
		v, err := p.purifyTestExpr(*t.Right)
		if err != nil {
			return nil, err
		}
		rv, _ := v.(syntax.TestExpr)
		out.Right = &rv
	}
	return out, nil
}

func (p *Purifier) purifyArithmetic(a syntax.Arithmetic) (syntax.BashExpr, error) {
	// Arithmetic is carried as a raw expression string (§3.2); purifying
	// it means flagging references to known non-deterministic variables
	// inside it, not rewriting the expression text.
	for name := range nonDeterministicVars {
		if name != "" && containsWord(a.Expr, name) {
			p.checkNonDetVariable(name, "Arithmetic")
		}
	}
	return a, nil
}

func containsWord(haystack, word string) bool {
	start := 0
	for {
		rel := strings.Index(haystack[start:], word)
		if rel < 0 {
			return false
		}
		i := start + rel
		before := i == 0 || !isIdentByte(haystack[i-1])
		after := i+len(word) >= len(haystack) || !isIdentByte(haystack[i+len(word)])
		if before && after {
			return true
		}
		start = i + 1
	}
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
