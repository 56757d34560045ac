// Package quote reconstructs shell-safe command lines for failure reports
// and logs. It quotes, it does not parse: PipeKit has no shell grammar.
package quote

import "strings"

// safeChars never require quoting in a POSIX shell word.
const safeChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789" +
	"@%+=:,./-_"

// Arg quotes a single argument for safe display as a POSIX shell word.
func Arg(s string) string {
	if s == "" {
		return "''"
	}

	clean := true
	for _, r := range s {
		if !strings.ContainsRune(safeChars, r) {
			clean = false
			break
		}
	}
	if clean {
		return s
	}

	// Single quotes preserve everything except single quotes themselves.
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// Join quotes every argument and joins them with spaces.
func Join(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = Arg(a)
	}
	return strings.Join(quoted, " ")
}
