package monitor

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"dawpresence/internal/catalog"
	"dawpresence/internal/logging"
	"dawpresence/internal/platform"
	"dawpresence/internal/services"
)

const bytesPerMB = 1024 * 1024

// Monitor scans the process table for the first catalog entry that is running.
type Monitor struct {
	catalog  *catalog.Catalog
	provider platform.Provider
	source   processSource
	logger   *slog.Logger
	patterns *patternCache
	cpu      *cpuSampler
}

// Option customizes a Monitor.
type Option func(*Monitor)

// WithClock overrides the time source used for CPU sampling.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.cpu.now = now
		}
	}
}

func withSource(src processSource) Option {
	return func(m *Monitor) {
		m.source = src
		m.cpu.cores = src.LogicalCores
	}
}

// New constructs a monitor over the OS process table.
func New(cat *catalog.Catalog, provider platform.Provider, logger *slog.Logger, opts ...Option) *Monitor {
	if cat == nil {
		cat = catalog.New(nil)
	}
	if provider == nil {
		provider = platform.Static{}
	}
	src := gopsutilSource{}
	m := &Monitor{
		catalog:  cat,
		provider: provider,
		source:   src,
		logger:   logging.NewComponentLogger(logger, "monitor"),
		patterns: newPatternCache(),
		cpu:      &cpuSampler{now: time.Now, cores: src.LogicalCores},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Scan refreshes the process table once and returns the first catalog entry
// found running, or nil when none is. hideProjectName skips title parsing.
func (m *Monitor) Scan(ctx context.Context, hideProjectName bool) (*Status, error) {
	procs, err := m.source.Processes(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "monitor", "scan", "enumerate processes", err)
	}

	// First enumerated process wins for each name.
	running := make(map[string]int, len(procs))
	for i, p := range procs {
		name, err := p.Name(ctx)
		if err != nil || strings.TrimSpace(name) == "" {
			continue
		}
		key := catalog.Normalize(name)
		if _, seen := running[key]; !seen {
			running[key] = i
		}
	}

	if entry, i, ok := m.catalog.Match(running); ok {
		return m.describe(ctx, entry, procs[i], hideProjectName), nil
	}
	m.cpu.reset()
	return nil, nil
}

func (m *Monitor) describe(ctx context.Context, entry catalog.Entry, p proc, hideProjectName bool) *Status {
	pid := p.PID()
	project := HiddenProject
	if !hideProjectName {
		project = m.projectName(m.provider.WindowTitle(ctx, pid), entry.TitleRegex)
	}

	exe, err := p.Exe(ctx)
	if err != nil {
		exe = ""
	}
	version := strings.TrimSpace(m.provider.ProcessVersion(ctx, exe))
	if version == "" {
		version = platform.UnknownVersion
	}

	var memoryMB uint64
	if rss, err := p.RSS(ctx); err == nil {
		memoryMB = rss / bytesPerMB
	}
	cpuUsage := m.cpu.sample(ctx, p)

	m.logger.Log(ctx, logging.LevelTrace, "found DAW process",
		logging.String(logging.FieldDAW, entry.DisplayText),
		logging.Int(logging.FieldPID, int(pid)),
		logging.Int64("memory_mb", int64(memoryMB)),
		logging.Float64("cpu", cpuUsage),
	)

	return &Status{
		Running:     true,
		DisplayName: entry.DisplayText,
		ProjectName: project,
		CPUUsage:    cpuUsage,
		MemoryMB:    memoryMB,
		Version:     version,
		PID:         pid,
		ClientID:    entry.ClientID,
		HideVersion: entry.HideVersion,
	}
}

func (m *Monitor) projectName(title, pattern string) string {
	if title == "" {
		return UnknownProject
	}
	re, first, err := m.patterns.get(pattern)
	if err != nil {
		if first {
			m.logger.Error("invalid title pattern",
				logging.String("pattern", pattern),
				logging.Error(err),
				logging.String(logging.FieldEventType, "title_pattern_invalid"),
				logging.String(logging.FieldErrorHint, "fix TitleRegex in the DAW catalog"),
			)
		}
		return UnknownProject
	}
	return extract(re, title)
}
