package bench

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fogleman/gg"
	"github.com/olekukonko/tablewriter"
)

const (
	linearSeriesColor = "#0060ad"
	bvhSeriesColor    = "#dd181f"

	plotMargin = 70.0
	yTicks     = 5
)

// Render the results as a table.
func (r *Report) Table() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetHeader([]string{"Spheres", "Linear", "BVH", "Speedup", "Build", "Nodes", "Depth", "Hits", "Sphere tests (linear/BVH)"})

	var linearTotal, bvhTotal time.Duration
	for _, res := range r.Results {
		table.Append([]string{
			fmt.Sprintf("%d", res.Spheres),
			res.LinearTime.String(),
			res.BVHTime.String(),
			fmt.Sprintf("%.2fx", res.Speedup()),
			res.BuildTime.String(),
			fmt.Sprintf("%d", res.BVHNodes),
			fmt.Sprintf("%d", res.BVHMaxDepth),
			fmt.Sprintf("%d/%d", res.LinearHits, res.BVHHits),
			fmt.Sprintf("%d/%d", res.LinearTests, res.BVHSphereTests),
		})
		linearTotal += res.LinearTime
		bvhTotal += res.BVHTime
	}
	table.SetFooter([]string{"Total", linearTotal.String(), bvhTotal.String(), "", "", "", "", "", ""})

	table.Render()
	return buf.String()
}

// Write the results as whitespace separated "count linear bvh" lines with
// times expressed in seconds.
func (r *Report) WriteData(w io.Writer) error {
	for _, res := range r.Results {
		if _, err := fmt.Fprintf(w, "%d %f %f\n", res.Spheres, res.LinearTime.Seconds(), res.BVHTime.Seconds()); err != nil {
			return err
		}
	}
	return nil
}

// Save a line chart comparing linear and BVH timings as a PNG file.
func (r *Report) Plot(filename string, width, height int) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}

	err = r.PlotTo(f, width, height)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return err
}

// Encode a line chart comparing linear and BVH timings as PNG.
func (r *Report) PlotTo(w io.Writer, width, height int) error {
	if width <= 2*plotMargin || height <= 2*plotMargin {
		return fmt.Errorf("%w: plot size %dx%d is too small", ErrInvalidConfig, width, height)
	}

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	left, top := plotMargin, plotMargin
	right, bottom := float64(width)-plotMargin, float64(height)-plotMargin

	// Axis ranges
	var maxCount int
	var maxTime float64
	for _, res := range r.Results {
		if res.Spheres > maxCount {
			maxCount = res.Spheres
		}
		for _, t := range []float64{res.LinearTime.Seconds(), res.BVHTime.Seconds()} {
			if t > maxTime {
				maxTime = t
			}
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}
	if maxTime == 0 {
		maxTime = 1
	}

	toX := func(count int) float64 {
		return left + float64(count)/float64(maxCount)*(right-left)
	}
	toY := func(seconds float64) float64 {
		return bottom - seconds/maxTime*(bottom-top)
	}

	// Grid and tick labels
	dc.SetLineWidth(1)
	for tick := 0; tick <= yTicks; tick++ {
		seconds := maxTime * float64(tick) / yTicks
		y := toY(seconds)
		dc.SetRGB(0.85, 0.85, 0.85)
		dc.DrawLine(left, y, right, y)
		dc.Stroke()
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(fmt.Sprintf("%.4f", seconds), left-8, y, 1, 0.5)
	}
	for _, res := range r.Results {
		x := toX(res.Spheres)
		dc.SetRGB(0.85, 0.85, 0.85)
		dc.DrawLine(x, top, x, bottom)
		dc.Stroke()
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(fmt.Sprintf("%d", res.Spheres), x, bottom+16, 0.5, 0.5)
	}

	// Axes
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1.5)
	dc.DrawLine(left, bottom, right, bottom)
	dc.DrawLine(left, bottom, left, top)
	dc.Stroke()

	// Titles
	dc.DrawStringAnchored("Ray Tracing Performance: BVH vs No BVH", float64(width)/2, top/2, 0.5, 0.5)
	dc.DrawStringAnchored("Number of Spheres", float64(width)/2, float64(height)-plotMargin/3, 0.5, 0.5)
	dc.Push()
	dc.RotateAbout(gg.Radians(-90), plotMargin/4, float64(height)/2)
	dc.DrawStringAnchored("Time (seconds)", plotMargin/4, float64(height)/2, 0.5, 0.5)
	dc.Pop()

	// Series
	series := []struct {
		label string
		color string
		value func(Result) time.Duration
	}{
		{"No BVH", linearSeriesColor, func(res Result) time.Duration { return res.LinearTime }},
		{"With BVH", bvhSeriesColor, func(res Result) time.Duration { return res.BVHTime }},
	}
	for index, s := range series {
		dc.SetHexColor(s.color)
		dc.SetLineWidth(2)
		for pointIndex, res := range r.Results {
			x, y := toX(res.Spheres), toY(s.value(res).Seconds())
			if pointIndex == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.Stroke()
		for _, res := range r.Results {
			dc.DrawCircle(toX(res.Spheres), toY(s.value(res).Seconds()), 4)
			dc.Fill()
		}

		// Legend entry
		legendY := top + 12 + float64(index)*18
		dc.DrawLine(left+12, legendY, left+36, legendY)
		dc.Stroke()
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(s.label, left+44, legendY, 0, 0.5)
	}

	return dc.EncodePNG(w)
}
