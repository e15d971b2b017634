package lint

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	bracketPattern = regexp.MustCompile(`\[\[([^\]]+)\]\]`)
	bareVarPattern = regexp.MustCompile(`\$(?:\{([A-Za-z_][A-Za-z0-9_]*)\}|([A-Za-z_][A-Za-z0-9_]*))`)
)

// CheckSC2066 flags unquoted `$var`/`${var}` inside `[[ ... ]]`
// conditionals, grounded on sc2066.rs.
func CheckSC2066(source string) LintResult {
	var result LintResult

	for lineIdx, line := range strings.Split(source, "\n") {
		lineNum := lineIdx + 1
		if isCommentLine(line) {
			continue
		}
		for _, br := range bracketPattern.FindAllStringSubmatchIndex(line, -1) {
			inner := line[br[2]:br[3]]
			offset := br[2]
			for _, m := range bareVarPattern.FindAllStringSubmatchIndex(inner, -1) {
				start := m[0]
				end := m[1]
				absStart := offset + start
				if absStart > 0 && line[absStart-1] == '"' {
					continue
				}
				var varName string
				braced := m[2] >= 0
				if braced {
					varName = inner[m[2]:m[3]]
				} else {
					varName = inner[m[4]:m[5]]
				}
				varText := "$" + varName
				if braced {
					varText = "${" + varName + "}"
				}
				result.Add(Diagnostic{
					Code:     "SC2066",
					Severity: Warning,
					Message:  fmt.Sprintf("Quote %s inside [[ ... ]] to prevent globbing and word splitting", varText),
					Span:     NewSpan(lineNum, absStart+1, offset+end+1),
				}.WithFix(`"` + varText + `"`))
			}
		}
	}

	return result
}
