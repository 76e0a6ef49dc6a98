package bench

import (
	"bytes"
	"fmt"
	"runtime"

	"github.com/olekukonko/tablewriter"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
)

// Information about the machine running the benchmark.
type HostInfo struct {
	CPUModel   string
	Cores      int
	ClockGHz   float64
	TotalRAMGB float64
	GoVersion  string
	GOARCH     string
}

// Collect host information.
func GetHostInfo() (HostInfo, error) {
	info := HostInfo{
		GoVersion: runtime.Version(),
		GOARCH:    runtime.GOARCH,
		Cores:     runtime.NumCPU(),
	}

	cpuInfo, err := cpu.Info()
	if err != nil {
		return info, fmt.Errorf("bench: could not query cpu info: %w", err)
	}
	if len(cpuInfo) != 0 {
		info.CPUModel = cpuInfo[0].ModelName
		info.ClockGHz = cpuInfo[0].Mhz / 1000
	}

	memInfo, err := mem.VirtualMemory()
	if err != nil {
		return info, fmt.Errorf("bench: could not query memory info: %w", err)
	}
	info.TotalRAMGB = float64(memInfo.Total) / (1024 * 1024 * 1024)

	return info, nil
}

// Render host information as a table.
func (h HostInfo) Table() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"Host", "Value"})
	table.Append([]string{"CPU", h.CPUModel})
	table.Append([]string{"Cores", fmt.Sprintf("%d", h.Cores)})
	table.Append([]string{"Clock", fmt.Sprintf("%.2f GHz", h.ClockGHz)})
	table.Append([]string{"RAM", fmt.Sprintf("%.1f GB", h.TotalRAMGB)})
	table.Append([]string{"Go", fmt.Sprintf("%s (%s)", h.GoVersion, h.GOARCH)})
	table.Render()
	return buf.String()
}
