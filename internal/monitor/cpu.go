package monitor

import (
	"context"
	"time"
)

type cpuSample struct {
	pid     int32
	seconds float64
	at      time.Time
}

// cpuSampler turns cumulative CPU time into a usage percentage over the
// interval since the previous scan that saw the same pid.
type cpuSampler struct {
	last  *cpuSample
	now   func() time.Time
	cores func(context.Context) int
}

func (s *cpuSampler) sample(ctx context.Context, p proc) float64 {
	cores := s.cores(ctx)
	if cores < 1 {
		cores = 1
	}
	now := s.now()
	seconds, err := p.CPUSeconds(ctx)
	if err != nil {
		s.last = nil
		return s.lifetime(ctx, p, cores)
	}

	prev := s.last
	s.last = &cpuSample{pid: p.PID(), seconds: seconds, at: now}
	if prev == nil || prev.pid != p.PID() {
		return s.lifetime(ctx, p, cores)
	}
	wall := now.Sub(prev.at).Seconds()
	delta := seconds - prev.seconds
	if wall <= 0 || delta < 0 {
		return s.lifetime(ctx, p, cores)
	}
	return delta / wall * 100 / float64(cores)
}

func (s *cpuSampler) lifetime(ctx context.Context, p proc, cores int) float64 {
	pct, err := p.LifetimeCPUPercent(ctx)
	if err != nil || pct < 0 {
		return 0
	}
	return pct / float64(cores)
}

func (s *cpuSampler) reset() {
	s.last = nil
}
