package renderer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
)

type TracerStat struct {
	// The tracer id.
	Id string

	// True if this is the primary tracer
	IsPrimary bool

	// The block height and the percentage of total frame area it represents.
	BlockH       uint32
	FramePercent float32

	// Render time for assigned block
	RenderTime time.Duration
}

type FrameStats struct {
	// Individual tracer stats.
	Tracers []TracerStat

	// Total render time for entire frame.
	RenderTime time.Duration

	// Time spent building the BVH for the current scene. Zero if the
	// BVH is disabled.
	BVHBuildTime time.Duration

	// BVH node count for the current scene.
	BVHNodes int

	// Running totals over all frames rendered so far.
	Frames            int
	TotalRenderTime   time.Duration
	AverageRenderTime time.Duration
	FPS               float64
}

// Summarize the running frame statistics.
func (stats FrameStats) Summary() string {
	summary := fmt.Sprintf("frames: %d, average frame time: %s, fps: %.2f", stats.Frames, stats.AverageRenderTime, stats.FPS)
	if stats.BVHNodes > 0 {
		summary += fmt.Sprintf(", bvh: %d nodes built in %s", stats.BVHNodes, stats.BVHBuildTime)
	} else {
		summary += ", bvh: disabled"
	}
	return summary
}

// Render frame statistics as a table.
func (stats FrameStats) Table() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Tracer", "Primary", "Block height", "% of frame", "Render time"})
	for _, stat := range stats.Tracers {
		table.Append([]string{
			stat.Id,
			fmt.Sprintf("%t", stat.IsPrimary),
			fmt.Sprintf("%d", stat.BlockH),
			fmt.Sprintf("%02.1f %%", stat.FramePercent),
			stat.RenderTime.String(),
		})
	}
	if stats.BVHNodes > 0 {
		table.Append([]string{"bvh", "", fmt.Sprintf("%d nodes", stats.BVHNodes), "", stats.BVHBuildTime.String()})
	}
	table.SetFooter([]string{"", "", "", "TOTAL", stats.RenderTime.String()})

	table.Render()
	return buf.String()
}
