package observability

import (
	"os"

	"github.com/shirou/gopsutil/process"
)

// ProcessStats samples memory and CPU usage of the current process.
type ProcessStats struct {
	proc *process.Process
}

func NewProcessStats() (*ProcessStats, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &ProcessStats{proc: p}, nil
}

// Fill completes the snapshot with the resident set size and CPU percentage.
func (s *ProcessStats) Fill(snapshot *Snapshot) error {
	memInfo, err := s.proc.MemoryInfo()
	if err != nil {
		return err
	}
	cpuPercent, err := s.proc.CPUPercent()
	if err != nil {
		return err
	}
	snapshot.RSSBytes = memInfo.RSS
	snapshot.CPUPercent = cpuPercent
	return nil
}
