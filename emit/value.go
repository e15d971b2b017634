package emit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paiml/bashrs-sub011/ir"
)

// emitValue renders v as a single shell word, grounded on §4.8's
// quoting table: integers pass through unquoted, variable-shaped
// reads are always double-quoted, arithmetic uses $(( ... )).
func emitValue(v ir.ShellValue) (string, error) {
	switch x := v.(type) {
	case ir.String:
		return quoteWord(string(x)), nil

	case ir.Bool:
		if x {
			return "true", nil
		}
		return "false", nil

	case ir.Variable:
		return fmt.Sprintf("\"$%s\"", x.Name), nil

	case ir.Concat:
		return emitInterpolated(x)

	case ir.CommandSubst:
		inner, err := emitCommandWords(x.Cmd)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("\"$(%s)\"", inner), nil

	case ir.Arithmetic:
		l, err := emitBareOperand(x.Left)
		if err != nil {
			return "", err
		}
		r, err := emitBareOperand(x.Right)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("$((%s %s %s))", l, arithmeticOpText(x.Op), r), nil

	case ir.EnvVar:
		if x.Default == nil {
			return fmt.Sprintf("\"$%s\"", x.Name), nil
		}
		return fmt.Sprintf("\"${%s:-%s}\"", x.Name, escapeForDoubleQuotes(*x.Default)), nil

	case ir.Arg:
		if x.Position == nil {
			return "\"$@\"", nil
		}
		return fmt.Sprintf("\"$%d\"", *x.Position), nil

	case ir.ArgWithDefault:
		return fmt.Sprintf("\"${%d:-%s}\"", x.Position, escapeForDoubleQuotes(x.Default)), nil

	case ir.ArgCount:
		return "\"$#\"", nil

	case ir.ExitCode:
		return "$?", nil

	case ir.DynamicArrayAccess:
		idx, err := emitBareOperand(x.Index)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(`"$(eval "printf '%%s' \"\$%s_%s\"")"`, x.ArrayName, idx), nil

	case ir.Comparison, ir.LogicalAnd, ir.LogicalOr, ir.LogicalNot:
		cond, err := emitCondition(v)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("\"$(if %s; then echo true; else echo false; fi)\"", cond), nil

	default:
		return "", fmt.Errorf("emit: unsupported ShellValue %T", v)
	}
}

// emitAssignValue renders v as the right-hand side of a NAME=value
// assignment, where plain command substitutions and arithmetic are
// conventionally left unquoted (the assignment itself is a single
// word already, so word-splitting is not a concern).
func emitAssignValue(v ir.ShellValue) (string, error) {
	switch x := v.(type) {
	case ir.CommandSubst:
		inner, err := emitCommandWords(x.Cmd)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("$(%s)", inner), nil
	default:
		return emitValue(v)
	}
}

// emitBareOperand renders v without the outer double-quoting emitValue
// normally applies, for use inside an already-delimited context such
// as $(( ... )) or an eval'd indirect reference.
func emitBareOperand(v ir.ShellValue) (string, error) {
	s, err := emitValue(v)
	if err != nil {
		return "", err
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1], nil
	}
	return s, nil
}

// emitCommandWords renders cmd's program and arguments space-joined,
// for embedding inside $( ... ).
func emitCommandWords(cmd ir.Command) (string, error) {
	parts := make([]string, 0, len(cmd.Args)+1)
	parts = append(parts, cmd.Program)
	for _, a := range cmd.Args {
		v, err := emitValue(a)
		if err != nil {
			return "", err
		}
		parts = append(parts, v)
	}
	return joinSpace(parts), nil
}

// emitInterpolated renders a Concat as one double-quoted string,
// inlining each part's interpolation form (bare `$name` rather than a
// separately-quoted word) the way Rust string interpolation collapses
// to a single shell string.
func emitInterpolated(c ir.Concat) (string, error) {
	var b strings.Builder
	b.WriteByte('"')
	for _, p := range c.Parts {
		seg, err := interpolationSegment(p)
		if err != nil {
			return "", err
		}
		b.WriteString(seg)
	}
	b.WriteByte('"')
	return b.String(), nil
}

func interpolationSegment(v ir.ShellValue) (string, error) {
	switch x := v.(type) {
	case ir.String:
		return escapeForDoubleQuotes(string(x)), nil
	case ir.Variable:
		return "$" + x.Name, nil
	case ir.EnvVar:
		if x.Default == nil {
			return "$" + x.Name, nil
		}
		return fmt.Sprintf("${%s:-%s}", x.Name, escapeForDoubleQuotes(*x.Default)), nil
	case ir.Arg:
		if x.Position == nil {
			return "$@", nil
		}
		return fmt.Sprintf("$%d", *x.Position), nil
	case ir.ArgCount:
		return "$#", nil
	case ir.ExitCode:
		return "$?", nil
	case ir.Concat:
		var b strings.Builder
		for _, p := range x.Parts {
			seg, err := interpolationSegment(p)
			if err != nil {
				return "", err
			}
			b.WriteString(seg)
		}
		return b.String(), nil
	case ir.CommandSubst:
		inner, err := emitCommandWords(x.Cmd)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("$(%s)", inner), nil
	default:
		rendered, err := emitBareOperand(v)
		if err != nil {
			return "", err
		}
		return rendered, nil
	}
}

func arithmeticOpText(op ir.ArithmeticOp) string {
	switch op {
	case ir.Add:
		return "+"
	case ir.Sub:
		return "-"
	case ir.Mul:
		return "*"
	case ir.Div:
		return "/"
	case ir.Mod:
		return "%"
	default:
		return "?"
	}
}

func comparisonOpText(op ir.ComparisonOp) string {
	switch op {
	case ir.NumEq:
		return "-eq"
	case ir.NumNe:
		return "-ne"
	case ir.Gt:
		return "-gt"
	case ir.Ge:
		return "-ge"
	case ir.Lt:
		return "-lt"
	case ir.Le:
		return "-le"
	case ir.StrEq:
		return "="
	case ir.StrNe:
		return "!="
	default:
		return "?"
	}
}

// emitCondition renders v as text suitable to follow `if`/`while`,
// i.e. a command whose exit status is the condition's truth value.
func emitCondition(v ir.ShellValue) (string, error) {
	switch x := v.(type) {
	case ir.Comparison:
		l, err := emitValue(x.Left)
		if err != nil {
			return "", err
		}
		r, err := emitValue(x.Right)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("[ %s %s %s ]", l, comparisonOpText(x.Op), r), nil

	case ir.LogicalAnd:
		l, err := emitCondition(x.Left)
		if err != nil {
			return "", err
		}
		r, err := emitCondition(x.Right)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s && %s", l, r), nil

	case ir.LogicalOr:
		l, err := emitCondition(x.Left)
		if err != nil {
			return "", err
		}
		r, err := emitCondition(x.Right)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s || %s", l, r), nil

	case ir.LogicalNot:
		inner, err := emitCondition(x.Operand)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("! %s", inner), nil

	case ir.Bool:
		if x {
			return "true", nil
		}
		return "false", nil

	case ir.CommandSubst:
		return emitCommandWords(x.Cmd)

	default:
		val, err := emitValue(v)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("[ -n %s ]", val), nil
	}
}

// quoteWord renders a literal word per §4.8: integers pass through
// unquoted; every other string is always single-quoted, unless it
// contains a single quote itself, in which case it is double-quoted
// with per-character escaping (the interpolation case), grounded on
// emitter.rs's quote_argument/quote_value but generalized from the
// original's "only quote if special characters are present" heuristic
// to the spec's unconditional string-quoting rule.
func quoteWord(s string) string {
	if isIntegerLiteral(s) {
		return s
	}
	if strings.ContainsRune(s, '\'') {
		return "\"" + escapeForDoubleQuotes(s) + "\""
	}
	return "'" + s + "'"
}

func isIntegerLiteral(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func escapeForDoubleQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, ch := range s {
		switch ch {
		case '"':
			b.WriteString("\\\"")
		case '\\':
			b.WriteString("\\\\")
		case '$':
			b.WriteString("\\$")
		case '`':
			b.WriteString("\\`")
		case '\n':
			b.WriteString("\\n")
		default:
			b.WriteRune(ch)
		}
	}
	return b.String()
}

// quoteStringLiteral always double-quotes, for positions (like an
// Exit message) where the value is known to be literal text rather
// than a reusable word.
func quoteStringLiteral(s string) string {
	return "\"" + escapeForDoubleQuotes(s) + "\""
}
