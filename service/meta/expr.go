package meta

import (
	"os"
	"strings"
	"unicode"
)

// expandEnvExpr replaces every ${env.KEY} in value with the environment
// variable KEY, or "" when unset.  Keys may contain letters, digits and
// underscores; anything else leaves the expression as literal text.
func expandEnvExpr(value string) string {
	const prefix = "${env."
	var b strings.Builder
	i := 0
	for {
		idx := strings.Index(value[i:], prefix)
		if idx < 0 {
			b.WriteString(value[i:])
			break
		}
		b.WriteString(value[i : i+idx])
		startKey := i + idx + len(prefix)

		endKey := strings.IndexByte(value[startKey:], '}')
		if endKey < 0 {
			// Unterminated expression stays literal.
			b.WriteString(value[i+idx:])
			break
		}

		key := value[startKey : startKey+endKey]
		valid := true
		for _, r := range key {
			if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
				valid = false
				break
			}
		}
		if !valid {
			// Emit the prefix as literal text and rescan from right
			// after it so nested expressions still expand.
			b.WriteString(value[i+idx : startKey])
			i = startKey
			continue
		}

		b.WriteString(os.Getenv(key))
		i = startKey + endKey + 1
	}
	return b.String()
}
