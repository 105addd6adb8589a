package monitor

import (
	"strings"
	"sync"

	"github.com/dlclark/regexp2"

	"dawpresence/internal/catalog"
)

// ExtractProjectName applies pattern to a window title. Capture group 1 is
// preferred over the full match; trailing unsaved markers ("*") are removed.
// Any failure yields UnknownProject.
func ExtractProjectName(title, pattern string) string {
	if title == "" {
		return UnknownProject
	}
	re, err := catalog.CompilePattern(pattern)
	if err != nil {
		return UnknownProject
	}
	return extract(re, title)
}

func extract(re *regexp2.Regexp, title string) string {
	if title == "" || re == nil {
		return UnknownProject
	}
	m, err := re.FindStringMatch(title)
	if err != nil || m == nil {
		return UnknownProject
	}
	text := m.String()
	if g := m.GroupByNumber(1); g != nil && len(g.Captures) > 0 {
		text = g.String()
	}
	name := strings.TrimSpace(text)
	name = strings.TrimSpace(strings.TrimRight(name, "*"))
	if name == "" {
		return UnknownProject
	}
	return name
}

// patternCache compiles title patterns once. Invalid patterns are remembered
// so they are reported a single time.
type patternCache struct {
	mu       sync.Mutex
	compiled map[string]*regexp2.Regexp
	invalid  map[string]error
}

func newPatternCache() *patternCache {
	return &patternCache{
		compiled: make(map[string]*regexp2.Regexp),
		invalid:  make(map[string]error),
	}
}

// get returns the compiled pattern, or the compile error along with whether
// this is the first time the error was seen.
func (c *patternCache) get(pattern string) (*regexp2.Regexp, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if re, ok := c.compiled[pattern]; ok {
		return re, false, nil
	}
	if err, ok := c.invalid[pattern]; ok {
		return nil, false, err
	}
	re, err := catalog.CompilePattern(pattern)
	if err != nil {
		c.invalid[pattern] = err
		return nil, true, err
	}
	c.compiled[pattern] = re
	return re, false, nil
}
