package lint

import (
	"fmt"
	"strings"
)

var dangerousModes = []string{"777", "666", "664", "776", "677"}

func containsMode(line, mode string) bool {
	for _, word := range strings.Fields(line) {
		if word == mode || strings.HasSuffix(word, " "+mode) {
			return true
		}
		pos := strings.Index(word, mode)
		if pos < 0 {
			continue
		}
		beforeOK := pos == 0 || word[pos-1] < '0' || word[pos-1] > '9'
		afterIdx := pos + len(mode)
		afterOK := afterIdx >= len(word) || word[afterIdx] < '0' || word[afterIdx] > '9'
		if beforeOK && afterOK {
			return true
		}
	}
	return false
}

// CheckSEC017 flags `chmod` invocations granting dangerous numeric
// permission modes; 777/666 are errors, the rest are warnings (§4.7).
func CheckSEC017(source string) LintResult {
	var result LintResult

	for lineIdx, line := range strings.Split(source, "\n") {
		lineNum := lineIdx + 1
		chmodCol := findCommand(line, "chmod")
		if chmodCol < 0 {
			continue
		}
		for _, mode := range dangerousModes {
			if !containsMode(line, mode) {
				continue
			}
			severity := Warning
			if mode == "777" || mode == "666" {
				severity = Error
			}
			result.Add(Diagnostic{
				Code:     "SEC017",
				Severity: severity,
				Message:  fmt.Sprintf("Unsafe file permissions: chmod %s grants excessive permissions - use principle of least privilege", mode),
				Span:     NewSpan(lineNum, chmodCol+1, len(line)),
			})
			break
		}
	}

	return result
}
