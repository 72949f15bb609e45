package services

import (
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"
)

// PerformanceMonitor samples process host resources so long scans over
// large candle series can be watched from the logs.
type PerformanceMonitor struct {
	logger *logrus.Logger
}

// NewPerformanceMonitor creates a monitor writing to the given logger.
func NewPerformanceMonitor(logger *logrus.Logger) *PerformanceMonitor {
	return &PerformanceMonitor{logger: logger}
}

// LogStats emits one resource snapshot. Sampling failures are logged
// and otherwise ignored; monitoring never interrupts a scan.
func (pm *PerformanceMonitor) LogStats(progress, total int) {
	fields := logrus.Fields{
		"progress": progress,
		"total":    total,
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		fields["mem_used_pct"] = vm.UsedPercent
	} else {
		pm.logger.WithError(err).Debug("memory sampling failed")
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		fields["cpu_pct"] = percents[0]
	} else if err != nil {
		pm.logger.WithError(err).Debug("cpu sampling failed")
	}

	pm.logger.WithFields(fields).Debug("scan progress")
}
