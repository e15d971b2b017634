package irbuilder

import (
	"fmt"

	"github.com/paiml/bashrs-sub011/ast"
	"github.com/paiml/bashrs-sub011/ir"
)

// buildValue lowers a restricted-Rust expression into a ShellValue,
// grounded on expr_calls.rs's convert_fn_call_to_value /
// convert_method_call_to_value dispatch: a closed set of stdlib helpers
// (env, env_var_or, arg, args, arg_count, exit_code, println!/format!)
// lower to dedicated ShellValue variants, and std::env::args().nth(N)
// method chains lower via pattern match; everything else falls through
// to a CommandSubst invocation.
func (b *builder) buildValue(e ast.Expr) (ir.ShellValue, error) {
	switch n := e.(type) {
	case ast.Literal:
		return buildLiteral(n), nil

	case ast.Variable:
		return ir.Variable{Name: n.Name}, nil

	case ast.PositionalArgs:
		return ir.Arg{Position: nil}, nil

	case ast.FunctionCall:
		return b.buildFunctionCallValue(n)

	case ast.MethodCall:
		if v, ok, err := b.tryMethodCallValue(n); ok || err != nil {
			return v, err
		}
		return nil, fmt.Errorf("irbuilder: unsupported method call %q", n.Method)

	case ast.Binary:
		return b.buildBinary(n)

	case ast.Unary:
		return b.buildUnary(n)

	case ast.Index:
		return b.buildIndex(n)

	case ast.Array:
		// A bare array literal is only meaningful as the right-hand side
		// of a Let (recorded by buildStmt before buildValue runs); as a
		// value in its own right it has no direct shell representation,
		// so lower it to a Concat of its elements for positions like
		// println! formatting.
		parts := make([]ir.ShellValue, len(n.Elems))
		for i, el := range n.Elems {
			v, err := b.buildValue(el)
			if err != nil {
				return nil, err
			}
			parts[i] = v
		}
		return ir.Concat{Parts: parts}, nil

	case ast.Range:
		return nil, fmt.Errorf("irbuilder: a Range is only valid as a for-loop iterable")

	default:
		return nil, fmt.Errorf("irbuilder: unsupported expression %T", e)
	}
}

func buildLiteral(n ast.Literal) ir.ShellValue {
	switch n.Kind {
	case ast.LitBool:
		return ir.Bool(n.Bool)
	case ast.LitU32, ast.LitI32:
		return ir.String(fmt.Sprintf("%d", n.Num))
	default:
		return ir.String(n.Str)
	}
}

func stringLiteral(e ast.Expr) (string, bool) {
	lit, ok := e.(ast.Literal)
	if !ok || lit.Kind != ast.LitStr {
		return "", false
	}
	return lit.Str, true
}

func intLiteral(e ast.Expr) (int, bool) {
	lit, ok := e.(ast.Literal)
	if !ok {
		return 0, false
	}
	switch lit.Kind {
	case ast.LitU32, ast.LitI32:
		return int(lit.Num), true
	default:
		return 0, false
	}
}

// buildFunctionCallValue lowers a free function call that appears in
// value position: the recognized stdlib surface, a format/println
// macro, or (as a fallback) a regular command invocation captured via
// command substitution.
func (b *builder) buildFunctionCallValue(fc ast.FunctionCall) (ir.ShellValue, error) {
	switch fc.Name {
	case "env":
		name, err := requireEnvName(fc, 0)
		if err != nil {
			return nil, err
		}
		return ir.EnvVar{Name: name}, nil

	case "env_var_or":
		name, err := requireEnvName(fc, 0)
		if err != nil {
			return nil, err
		}
		if len(fc.Args) != 2 {
			return nil, fmt.Errorf("irbuilder: env_var_or requires (name, default)")
		}
		def, ok := stringLiteral(fc.Args[1])
		if !ok {
			return nil, fmt.Errorf("irbuilder: env_var_or's default must be a string literal")
		}
		return ir.EnvVar{Name: name, Default: &def}, nil

	case "arg":
		if len(fc.Args) != 1 {
			return nil, fmt.Errorf("irbuilder: arg requires exactly one position argument")
		}
		n, ok := intLiteral(fc.Args[0])
		if !ok || n < 1 {
			return nil, fmt.Errorf("irbuilder: arg's position must be an integer literal >= 1")
		}
		return ir.Arg{Position: &n}, nil

	case "args":
		return ir.Arg{Position: nil}, nil

	case "arg_count":
		return ir.ArgCount{}, nil

	case "exit_code":
		return ir.ExitCode{}, nil

	case "println!", "print!", "format!":
		return b.buildFormatConcat(fc.Args)

	default:
		cmd, err := b.buildCommand(fc)
		if err != nil {
			return nil, err
		}
		return ir.CommandSubst{Cmd: cmd}, nil
	}
}

func requireEnvName(fc ast.FunctionCall, idx int) (string, error) {
	if idx >= len(fc.Args) {
		return "", fmt.Errorf("irbuilder: %s requires a variable name argument", fc.Name)
	}
	name, ok := stringLiteral(fc.Args[idx])
	if !ok || !envVarNameRe.MatchString(name) {
		return "", fmt.Errorf("irbuilder: %s's variable name must be a bare [A-Za-z0-9_]+ string literal", fc.Name)
	}
	return name, nil
}

// buildFormatConcat lowers println!/print!/format! argument lists to a
// Concat, the shell-side equivalent of string interpolation.
func (b *builder) buildFormatConcat(args []ast.Expr) (ir.ShellValue, error) {
	parts := make([]ir.ShellValue, 0, len(args))
	for _, a := range args {
		v, err := b.buildValue(a)
		if err != nil {
			return nil, err
		}
		parts = append(parts, v)
	}
	return ir.Concat{Parts: parts}, nil
}

// tryMethodCallValue recognizes the two std::env::args() access idioms
// the restricted subset allows: args().nth(N).unwrap[_or(D)] and
// args.get(N).unwrap_or(D) (or std::env::args().nth(N).unwrap_or(D)),
// grounded on expr_calls.rs's try_unwrap_env_args_nth /
// try_env_args_nth_unwrap_or.
func (b *builder) tryMethodCallValue(m ast.MethodCall) (ir.ShellValue, bool, error) {
	switch m.Method {
	case "unwrap":
		if n, ok := matchArgsNth(m.Receiver); ok {
			pos := n
			return ir.Arg{Position: &pos}, true, nil
		}
		return nil, false, nil

	case "unwrap_or":
		if len(m.Args) != 1 {
			return nil, false, nil
		}
		def, ok := stringLiteral(m.Args[0])
		if !ok {
			return nil, false, nil
		}
		if n, ok := matchArgsNth(m.Receiver); ok {
			return ir.ArgWithDefault{Position: n, Default: def}, true, nil
		}
		if n, ok := matchArgsGet(m.Receiver); ok {
			return ir.ArgWithDefault{Position: n, Default: def}, true, nil
		}
		return nil, false, nil

	default:
		return nil, false, nil
	}
}

// matchArgsNth recognizes std::env::args().nth(N) / args().nth(N),
// returning N directly as the Arg position (§4.4: position: Some(n), no
// offset).
func matchArgsNth(e ast.Expr) (int, bool) {
	mc, ok := e.(ast.MethodCall)
	if !ok || mc.Method != "nth" || len(mc.Args) != 1 {
		return 0, false
	}
	if !isArgsSource(mc.Receiver) {
		return 0, false
	}
	n, ok := intLiteral(mc.Args[0])
	if !ok {
		return 0, false
	}
	return n, true
}

// matchArgsGet recognizes args.get(N) (a Variable or args() receiver).
func matchArgsGet(e ast.Expr) (int, bool) {
	mc, ok := e.(ast.MethodCall)
	if !ok || mc.Method != "get" || len(mc.Args) != 1 {
		return 0, false
	}
	if !isArgsSource(mc.Receiver) {
		return 0, false
	}
	n, ok := intLiteral(mc.Args[0])
	if !ok {
		return 0, false
	}
	return n, true
}

func isArgsSource(e ast.Expr) bool {
	switch n := e.(type) {
	case ast.PositionalArgs:
		return true
	case ast.Variable:
		return n.Name == "args"
	case ast.FunctionCall:
		return n.Name == "args" || n.Name == "std::env::args"
	default:
		return false
	}
}

func (b *builder) buildBinary(n ast.Binary) (ir.ShellValue, error) {
	left, err := b.buildValue(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := b.buildValue(n.Right)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case ast.Add:
		return ir.Arithmetic{Op: ir.Add, Left: left, Right: right}, nil
	case ast.Sub:
		return ir.Arithmetic{Op: ir.Sub, Left: left, Right: right}, nil
	case ast.Mul:
		return ir.Arithmetic{Op: ir.Mul, Left: left, Right: right}, nil
	case ast.Div:
		return ir.Arithmetic{Op: ir.Div, Left: left, Right: right}, nil
	case ast.Eq:
		return comparisonFor(n, left, right, ir.StrEq, ir.NumEq), nil
	case ast.Ne:
		return comparisonFor(n, left, right, ir.StrNe, ir.NumNe), nil
	case ast.Lt:
		return ir.Comparison{Op: ir.Lt, Left: left, Right: right}, nil
	case ast.Le:
		return ir.Comparison{Op: ir.Le, Left: left, Right: right}, nil
	case ast.Gt:
		return ir.Comparison{Op: ir.Gt, Left: left, Right: right}, nil
	case ast.Ge:
		return ir.Comparison{Op: ir.Ge, Left: left, Right: right}, nil
	case ast.And:
		return ir.LogicalAnd{Left: left, Right: right}, nil
	case ast.Or:
		return ir.LogicalOr{Left: left, Right: right}, nil
	default:
		return nil, fmt.Errorf("irbuilder: unsupported binary operator %v", n.Op)
	}
}

// comparisonFor picks the string-vs-numeric test(1) operator by
// inspecting the restricted-AST operand kinds: a Str literal on either
// side forces =/!=, anything else (variables included) uses the
// numeric -eq/-ne family. This is a lexical check on the operand
// syntax, not a type lookup.
func comparisonFor(n ast.Binary, left, right ir.ShellValue, strOp, numOp ir.ComparisonOp) ir.ShellValue {
	if isStringy(n.Left) || isStringy(n.Right) {
		return ir.Comparison{Op: strOp, Left: left, Right: right}
	}
	return ir.Comparison{Op: numOp, Left: left, Right: right}
}

func isStringy(e ast.Expr) bool {
	switch n := e.(type) {
	case ast.Literal:
		return n.Kind == ast.LitStr
	default:
		return false
	}
}

func (b *builder) buildUnary(n ast.Unary) (ir.ShellValue, error) {
	v, err := b.buildValue(n.Operand)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case ast.Not:
		return ir.LogicalNot{Operand: v}, nil
	case ast.Neg:
		return ir.Arithmetic{Op: ir.Sub, Left: ir.String("0"), Right: v}, nil
	default:
		return nil, fmt.Errorf("irbuilder: unsupported unary operator %v", n.Op)
	}
}

// buildIndex lowers arr[i]: a compile-time-known array (recorded by
// buildStmt's Let handling) with a literal index becomes a direct
// reference to the indexed scalar binding (name_i); anything else
// becomes a DynamicArrayAccess for the emitter to realize via eval.
func (b *builder) buildIndex(n ast.Index) (ir.ShellValue, error) {
	v, err := b.buildValue(n.Idx)
	if err != nil {
		return nil, err
	}
	if name, ok := n.Object.(ast.Variable); ok {
		if info, known := b.arrays[name.Name]; known {
			if i, ok := intLiteral(n.Idx); ok && i >= 0 && i < info.length {
				return ir.Variable{Name: fmt.Sprintf("%s_%d", name.Name, i)}, nil
			}
			return ir.DynamicArrayAccess{ArrayName: name.Name, Index: v}, nil
		}
		return ir.DynamicArrayAccess{ArrayName: name.Name, Index: v}, nil
	}
	return nil, fmt.Errorf("irbuilder: index base must be a named array variable")
}
