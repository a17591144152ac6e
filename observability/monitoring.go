package observability

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

// ProcessSnapshot describes the running server process
type ProcessSnapshot struct {
	PID        int32   `json:"pid"`
	RssMb      uint64  `json:"rss_mb"`
	CPUPercent float64 `json:"cpu_percent"`
	AllocMemMb uint64  `json:"alloc_mem_mb"`
	NumGC      uint32  `json:"num_gc"`
	Goroutines int     `json:"goroutines"`
}

// DeliveryStats aggregates delivery counters for GET /stats
type DeliveryStats struct {
	Stored          uint64          `json:"stored"`
	Delivered       uint64          `json:"delivered"`
	Queued          uint64          `json:"queued"`
	Rejected        uint64          `json:"rejected"`
	LiveConnections int             `json:"live_connections"`
	Uptime          string          `json:"uptime"`
	Process         ProcessSnapshot `json:"process"`
}

type ConnectionCounter interface {
	Count() int
}

// Monitoring holds cumulative delivery counters since startup
type Monitoring struct {
	log         *slog.Logger
	startedAt   time.Time
	connections ConnectionCounter
	stored      atomic.Uint64
	delivered   atomic.Uint64
	queued      atomic.Uint64
	rejected    atomic.Uint64
}

func NewMonitoring(log *slog.Logger, connections ConnectionCounter) *Monitoring {
	return &Monitoring{log: log, startedAt: time.Now(), connections: connections}
}

func (m *Monitoring) IncrStored()    { m.stored.Add(1) }
func (m *Monitoring) IncrDelivered() { m.delivered.Add(1) }
func (m *Monitoring) IncrQueued()    { m.queued.Add(1) }
func (m *Monitoring) IncrRejected()  { m.rejected.Add(1) }

// Snapshot reads counters then samples the process.
// A failing process probe is logged and leaves its fields at zero.
func (m *Monitoring) Snapshot(ctx context.Context) DeliveryStats {
	stats := DeliveryStats{
		Stored:    m.stored.Load(),
		Delivered: m.delivered.Load(),
		Queued:    m.queued.Load(),
		Rejected:  m.rejected.Load(),
		Uptime:    time.Since(m.startedAt).Truncate(time.Second).String(),
		Process:   m.sampleProcess(ctx),
	}
	if m.connections != nil {
		stats.LiveConnections = m.connections.Count()
	}
	return stats
}

func (m *Monitoring) sampleProcess(ctx context.Context) ProcessSnapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	snapshot := ProcessSnapshot{
		PID:        int32(os.Getpid()),
		AllocMemMb: mem.Alloc / 1024 / 1024,
		NumGC:      mem.NumGC,
		Goroutines: runtime.NumGoroutine(),
	}

	p, err := process.NewProcess(snapshot.PID)
	if err != nil {
		m.log.Debug("Error while retrieving process", "pid", snapshot.PID, "err", err)
		return snapshot
	}
	if info, err := p.MemoryInfoWithContext(ctx); err != nil {
		m.log.Debug("Error while finding process ram usage", "err", err)
	} else {
		snapshot.RssMb = info.RSS / 1024 / 1024
	}
	if cpu, err := p.CPUPercentWithContext(ctx); err != nil {
		m.log.Debug("Error while finding process cpu usage", "err", err)
	} else {
		snapshot.CPUPercent = cpu
	}
	return snapshot
}
