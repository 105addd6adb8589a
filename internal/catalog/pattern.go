package catalog

import (
	"time"

	"github.com/dlclark/regexp2"
)

// patternTimeout bounds a single title match; backtracking patterns are
// user supplied.
const patternTimeout = 100 * time.Millisecond

// CompilePattern compiles a window title pattern. Lookahead and lookbehind
// assertions are accepted, e.g. `^(.*?)(?= - FL Studio)`.
func CompilePattern(pattern string) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = patternTimeout
	return re, nil
}

func checkPattern(pattern string) error {
	if pattern == "" {
		return nil
	}
	_, err := CompilePattern(pattern)
	return err
}
