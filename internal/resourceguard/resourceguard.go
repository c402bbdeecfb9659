// Package resourceguard gives every acceptor a cheap admission check based
// on recent process CPU usage, grounded on the teacher's
// internal/shared/limits/resource_guard.go but trimmed to the one thing
// every protohack server needs: reject new connections while the process is
// pegged, rather than degrade every existing connection's latency.
package resourceguard

import (
	"context"
	"os"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// Guard samples CPU percent on an interval and answers Allow() from the
// last sample — never blocks the caller on a syscall.
type Guard struct {
	rejectThreshold float64
	currentCPU      atomic.Value // float64
	proc            *process.Process
}

// New creates a Guard. rejectThreshold is a percentage (0,100]; Allow
// returns false once sampled CPU usage is at or above it.
func New(rejectThreshold float64) *Guard {
	g := &Guard{rejectThreshold: rejectThreshold}
	g.currentCPU.Store(0.0)
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		g.proc = p
	}
	return g
}

// Run samples CPU usage every interval until ctx is cancelled. Run in its
// own goroutine from main.
func (g *Guard) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.sample()
		}
	}
}

func (g *Guard) sample() {
	if g.proc != nil {
		if pct, err := g.proc.Percent(0); err == nil {
			g.currentCPU.Store(pct)
			return
		}
	}
	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		g.currentCPU.Store(pcts[0])
	}
}

// CurrentCPU returns the last sampled CPU percentage.
func (g *Guard) CurrentCPU() float64 {
	return g.currentCPU.Load().(float64)
}

// Allow reports whether a new connection should be accepted right now.
func (g *Guard) Allow() bool {
	return g.CurrentCPU() < g.rejectThreshold
}
