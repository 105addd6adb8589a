package monitor

import (
	"context"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// proc is the subset of process information a scan needs.
type proc interface {
	PID() int32
	Name(ctx context.Context) (string, error)
	Exe(ctx context.Context) (string, error)
	// CPUSeconds is the total user+system CPU time consumed so far.
	CPUSeconds(ctx context.Context) (float64, error)
	// LifetimeCPUPercent is the average usage since the process started.
	LifetimeCPUPercent(ctx context.Context) (float64, error)
	RSS(ctx context.Context) (uint64, error)
}

type processSource interface {
	Processes(ctx context.Context) ([]proc, error)
	LogicalCores(ctx context.Context) int
}

type gopsutilSource struct{}

func (gopsutilSource) Processes(ctx context.Context) ([]proc, error) {
	list, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]proc, 0, len(list))
	for _, p := range list {
		out = append(out, gopsutilProc{p: p})
	}
	return out, nil
}

func (gopsutilSource) LogicalCores(ctx context.Context) int {
	n, err := cpu.CountsWithContext(ctx, true)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

type gopsutilProc struct {
	p *process.Process
}

func (g gopsutilProc) PID() int32 { return g.p.Pid }

func (g gopsutilProc) Name(ctx context.Context) (string, error) { return g.p.NameWithContext(ctx) }

func (g gopsutilProc) Exe(ctx context.Context) (string, error) { return g.p.ExeWithContext(ctx) }

func (g gopsutilProc) CPUSeconds(ctx context.Context) (float64, error) {
	times, err := g.p.TimesWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return times.User + times.System, nil
}

func (g gopsutilProc) LifetimeCPUPercent(ctx context.Context) (float64, error) {
	return g.p.CPUPercentWithContext(ctx)
}

func (g gopsutilProc) RSS(ctx context.Context) (uint64, error) {
	info, err := g.p.MemoryInfoWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return info.RSS, nil
}
