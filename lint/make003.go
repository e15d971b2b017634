package lint

import "strings"

var make003DangerousCommands = []string{"rm", "cp", "mv", "chmod", "chown"}

func isQuotedBefore(chars []rune, pos int) bool {
	if pos == 0 {
		return false
	}
	before := chars[pos-1]
	return before == '"' || before == '\''
}

func isQuotedAfter(chars []rune, pos int) bool {
	if pos >= len(chars) {
		return false
	}
	after := chars[pos]
	return after == '"' || after == '\''
}

func findClosingChar(chars []rune, start int, closing rune) int {
	depth := 1
	for i := start; i < len(chars); i++ {
		if chars[i] == '(' || chars[i] == '{' {
			depth++
		} else if chars[i] == closing {
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// parseVariableReference returns the [start,end) extent of a
// `$VAR`/`$(VAR)`/`${VAR}` reference beginning at i, or ok=false.
func parseVariableReference(chars []rune, i int) (start, end int, ok bool) {
	start = i
	if i+1 >= len(chars) {
		return 0, 0, false
	}
	if chars[i+1] == '(' || chars[i+1] == '{' {
		closing := ')'
		if chars[i+1] == '{' {
			closing = '}'
		}
		pos := findClosingChar(chars, i+2, closing)
		if pos < 0 {
			return 0, 0, false
		}
		return start, pos + 1, true
	}
	end = i + 1
	for end < len(chars) && (isAlnumRune(chars[end]) || chars[end] == '_') {
		end++
	}
	return start, end, true
}

func isAlnumRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func checkUnquotedVarsInRecipe(line string, lineNum int, result *LintResult) {
	chars := []rune(line)
	i := 0
	inDouble, inSingle := false, false

	for i < len(chars) {
		ch := chars[i]

		if ch == '"' && !inSingle {
			inDouble = !inDouble
			i++
			continue
		}
		if ch == '\'' && !inDouble {
			inSingle = !inSingle
			i++
			continue
		}

		if ch == '$' && i+1 < len(chars) {
			if inDouble || inSingle {
				i++
				continue
			}
			if isQuotedBefore(chars, i) {
				i++
				continue
			}
			start, end, ok := parseVariableReference(chars, i)
			if !ok {
				i++
				continue
			}
			i = end
			if !isQuotedAfter(chars, end) {
				varText := string(chars[start:end])
				result.Add(Diagnostic{
					Code:     "MAKE003",
					Severity: Warning,
					Message:  "Unquoted variable in command - may cause word splitting issues",
					Span:     NewSpan(lineNum, start+1, end+1),
				}.WithFix(`"` + varText + `"`))
			}
		} else {
			i++
		}
	}
}

// CheckMAKE003 flags unquoted `$VAR`/`$(VAR)` references in Makefile
// recipe lines running dangerous commands (§4.7).
func CheckMAKE003(source string) LintResult {
	var result LintResult

	for lineIdx, line := range strings.Split(source, "\n") {
		lineNum := lineIdx + 1
		if !strings.HasPrefix(line, "\t") {
			continue
		}
		for _, cmd := range make003DangerousCommands {
			if strings.Contains(line, cmd) {
				checkUnquotedVarsInRecipe(line, lineNum, &result)
				break
			}
		}
	}

	return result
}
