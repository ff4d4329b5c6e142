package distroav

import (
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"

	"github.com/MartinSandstromRimsbo/DistroAV/pkg/task"
)

type NetWorkInfo struct {
	Name         string `json:"name"`
	Receive      uint64 `json:"receive"`
	Sent         uint64 `json:"sent"`
	ReceiveSpeed uint64 `json:"receiveSpeed"`
	SentSpeed    uint64 `json:"sentSpeed"`
}

// Summary is one system snapshot. Memory is in MB, disk in GB, network
// speeds in bytes per second.
type Summary struct {
	CollectedAt time.Time `json:"collectedAt"`
	CPUUsage    float64   `json:"cpuUsage"`
	Memory      struct {
		Total uint64  `json:"total"`
		Free  uint64  `json:"free"`
		Used  uint64  `json:"used"`
		Usage float64 `json:"usage"`
	} `json:"memory"`
	HardDisk struct {
		Total uint64  `json:"total"`
		Free  uint64  `json:"free"`
		Used  uint64  `json:"used"`
		Usage float64 `json:"usage"`
	} `json:"hardDisk"`
	NetWork []NetWorkInfo `json:"netWork"`
}

func collectSummary(prev *Summary) *Summary {
	s := &Summary{CollectedAt: time.Now()}
	if v, err := mem.VirtualMemory(); err == nil {
		s.Memory.Total = v.Total / 1024 / 1024
		s.Memory.Free = v.Available / 1024 / 1024
		s.Memory.Used = v.Used / 1024 / 1024
		s.Memory.Usage = v.UsedPercent
	}
	if cc, err := cpu.Percent(0, false); err == nil && len(cc) > 0 {
		s.CPUUsage = cc[0]
	}
	if d, err := disk.Usage("/"); err == nil {
		s.HardDisk.Total = d.Total / 1024 / 1024 / 1024
		s.HardDisk.Free = d.Free / 1024 / 1024 / 1024
		s.HardDisk.Used = d.Used / 1024 / 1024 / 1024
		s.HardDisk.Usage = d.UsedPercent
	}
	if nv, err := net.IOCounters(true); err == nil {
		var elapsed float64
		if prev != nil {
			elapsed = s.CollectedAt.Sub(prev.CollectedAt).Seconds()
		}
		s.NetWork = make([]NetWorkInfo, len(nv))
		for i, n := range nv {
			s.NetWork[i].Name = n.Name
			s.NetWork[i].Receive = n.BytesRecv
			s.NetWork[i].Sent = n.BytesSent
			if elapsed > 0 && len(prev.NetWork) > i {
				s.NetWork[i].ReceiveSpeed = uint64(float64(n.BytesRecv-prev.NetWork[i].Receive) / elapsed)
				s.NetWork[i].SentSpeed = uint64(float64(n.BytesSent-prev.NetWork[i].Sent) / elapsed)
			}
		}
	}
	return s
}

func (h *Host) refreshSummary() *Summary {
	h.summaryMu.Lock()
	defer h.summaryMu.Unlock()
	h.lastSummary = collectSummary(h.lastSummary)
	return h.lastSummary
}

// Summary returns the latest snapshot, collecting one on first use.
func (h *Host) Summary() *Summary {
	h.summaryMu.RLock()
	s := h.lastSummary
	h.summaryMu.RUnlock()
	if s == nil {
		return h.refreshSummary()
	}
	return s
}

type summaryTask struct {
	task.Task
	host *Host
}

func (t *summaryTask) Go() error {
	interval := t.host.Engine.PulseInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-t.Done():
			return t.StopReason()
		case <-ticker.C:
			t.host.refreshSummary()
		}
	}
}
