package lint

import "strings"

// isCommentLine matches the original rule files' universal
// comment-skip convention: a line whose first non-blank rune is '#'.
func isCommentLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "#")
}

// findCommand returns the 0-based column of cmd as a standalone word
// in line, or -1. Grounded on sec002.rs/sec009.rs/sec017.rs's shared
// find_command helper.
func findCommand(line, cmd string) int {
	idx := 0
	for {
		pos := strings.Index(line[idx:], cmd)
		if pos < 0 {
			return -1
		}
		start := idx + pos
		end := start + len(cmd)
		beforeOK := start == 0 || !isWordByte(line[start-1])
		afterOK := end == len(line) || !isWordByte(line[end])
		if beforeOK && afterOK {
			return start
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
