package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"dawpresence/internal/logging"
	"dawpresence/internal/services"
)

// Entry describes one recognizable DAW. JSON keys match the daws.json format.
type Entry struct {
	ProcessName string `json:"ProcessName"`
	DisplayText string `json:"DisplayText"`
	TitleRegex  string `json:"TitleRegex"`
	ClientID    string `json:"ClientID"`
	HideVersion bool   `json:"HideVersion,omitempty"`
}

// Catalog is the immutable, ordered list of known DAWs.
type Catalog struct {
	entries []Entry
	keys    []string
}

// New builds a catalog from entries, preserving their order.
func New(entries []Entry) *Catalog {
	c := &Catalog{entries: append([]Entry(nil), entries...)}
	c.keys = make([]string, len(c.entries))
	for i, entry := range c.entries {
		c.keys[i] = Normalize(entry.ProcessName)
	}
	return c
}

// Entries returns a copy of the catalog entries in match order.
func (c *Catalog) Entries() []Entry {
	if c == nil {
		return nil
	}
	return append([]Entry(nil), c.entries...)
}

// Len reports the number of entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Match returns the first entry, in catalog order, whose normalized process
// name is a key of running, along with the value stored under that key.
func (c *Catalog) Match(running map[string]int) (Entry, int, bool) {
	if c == nil || len(running) == 0 {
		return Entry{}, 0, false
	}
	for i, key := range c.keys {
		if key == "" {
			continue
		}
		if v, ok := running[key]; ok {
			return c.entries[i], v, true
		}
	}
	return Entry{}, 0, false
}

// Parse decodes a daws.json document. Entries with an empty process name are
// dropped and reported through the returned skipped count.
func Parse(data []byte) (*Catalog, int, error) {
	var raw []Entry
	decoder := json.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&raw); err != nil {
		return nil, 0, services.Wrap(services.ErrConfiguration, "catalog", "parse", "decode daws.json", err)
	}
	entries := make([]Entry, 0, len(raw))
	skipped := 0
	for _, entry := range raw {
		if strings.TrimSpace(entry.ProcessName) == "" {
			skipped++
			continue
		}
		entries = append(entries, entry)
	}
	return New(entries), skipped, nil
}

// Read loads and parses the catalog file, returning any error.
func Read(path string) (*Catalog, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, services.Wrap(services.ErrConfiguration, "catalog", "read", path, err)
	}
	return Parse(data)
}

// Load reads the catalog at path. A missing or malformed file yields an empty
// catalog and a warning; it is never fatal.
func Load(path string, logger *slog.Logger) *Catalog {
	logger = logging.NewComponentLogger(logger, "catalog")
	cat, skipped, err := Read(path)
	if err != nil {
		hint := "create the DAW catalog file"
		if !errors.Is(err, os.ErrNotExist) {
			hint = "fix the JSON syntax in the DAW catalog"
		}
		logging.WarnWithContext(logger, "DAW catalog unavailable; no DAWs will be detected",
			"catalog_load_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hint),
			logging.String(logging.FieldImpact, "presence stays idle"),
		)
		return New(nil)
	}
	if skipped > 0 {
		logging.WarnWithContext(logger, "skipped catalog entries without a process name",
			"catalog_entry_skipped",
			logging.Int("skipped", skipped),
			logging.String(logging.FieldErrorHint, "set ProcessName on every entry"),
		)
	}
	logger.Debug("loaded DAW catalog", logging.String("path", path), logging.Int("entries", cat.Len()))
	return cat
}

// Validate reports problems that would keep entries from ever matching or
// producing a presence. It does not reject the catalog.
func (c *Catalog) Validate() []error {
	var problems []error
	seen := map[string]int{}
	for i, entry := range c.Entries() {
		key := c.keys[i]
		if prev, ok := seen[key]; ok {
			problems = append(problems, fmt.Errorf("entry %d (%s): shadowed by entry %d with the same process name", i, entry.ProcessName, prev))
		} else {
			seen[key] = i
		}
		if strings.TrimSpace(entry.ClientID) == "" {
			problems = append(problems, fmt.Errorf("entry %d (%s): ClientID is empty", i, entry.ProcessName))
		}
		if strings.TrimSpace(entry.DisplayText) == "" {
			problems = append(problems, fmt.Errorf("entry %d (%s): DisplayText is empty", i, entry.ProcessName))
		}
		if err := checkPattern(entry.TitleRegex); err != nil {
			problems = append(problems, fmt.Errorf("entry %d (%s): TitleRegex: %w", i, entry.ProcessName, err))
		}
	}
	return problems
}

var lower = cases.Lower(language.Und)

// Normalize produces the comparison key for a process name: trimmed,
// lowercased and with a single trailing ".exe" removed.
func Normalize(name string) string {
	key := lower.String(strings.TrimSpace(name))
	return strings.TrimSuffix(key, ".exe")
}
