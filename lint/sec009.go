package lint

import (
	"fmt"
	"strings"
)

var dbCommands = []string{"mysql", "psql", "sqlite3", "mariadb", "mongodb"}
var sqlKeywords = []string{"SELECT", "INSERT", "UPDATE", "DELETE", "DROP", "CREATE", "ALTER", "WHERE"}

func containsSQLWithVariable(line string) bool {
	upper := strings.ToUpper(line)
	hasKeyword := false
	for _, word := range strings.Fields(upper) {
		for _, kw := range sqlKeywords {
			if strings.Contains(word, kw) {
				hasKeyword = true
			}
		}
	}
	if !hasKeyword {
		return false
	}
	hasVariableInQuery := strings.Contains(line, `"`) || strings.Contains(line, "'")
	hasUnquotedVar := strings.Contains(line, "$") && !strings.Contains(line, `\$`)
	return hasVariableInQuery && hasUnquotedVar
}

// CheckSEC009 flags database-tool commands whose query text embeds an
// unescaped `$var`, a SQL injection vector — no auto-fix, since the
// remediation is parameterization (§4.7).
func CheckSEC009(source string) LintResult {
	var result LintResult

	for lineIdx, line := range strings.Split(source, "\n") {
		lineNum := lineIdx + 1
		for _, dbCmd := range dbCommands {
			cmdCol := findCommand(line, dbCmd)
			if cmdCol < 0 {
				continue
			}
			if !containsSQLWithVariable(line) {
				continue
			}
			result.Add(Diagnostic{
				Code:     "SEC009",
				Severity: Error,
				Message:  fmt.Sprintf("SQL injection risk in %s command - use parameterized queries", dbCmd),
				Span:     NewSpan(lineNum, cmdCol+1, len(line)),
			})
		}
	}

	return result
}
