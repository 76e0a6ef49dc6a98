package scene

import (
	"bytes"
	"fmt"
	"unsafe"

	"github.com/olekukonko/tablewriter"
)

// Build a tabular representation of scene statistics.
func (sc *Scene) Stats() string {
	var lights, glass, reflective int
	for index := range sc.Spheres {
		s := &sc.Spheres[index]
		switch {
		case s.IsLight:
			lights++
		case s.Transparency > 0:
			glass++
		case s.Reflectivity > 0:
			reflective++
		}
	}
	opaque := len(sc.Spheres) - lights - glass - reflective

	bbox := sc.BBox()
	var bboxText string
	if bbox.IsEmpty() {
		bboxText = "empty"
	} else {
		bboxText = fmt.Sprintf("(%.1f, %.1f, %.1f) - (%.1f, %.1f, %.1f)",
			bbox.Min[0], bbox.Min[1], bbox.Min[2],
			bbox.Max[0], bbox.Max[1], bbox.Max[2],
		)
	}

	sphereSize := int(unsafe.Sizeof(Sphere{}))

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Asset Type", "Asset", "Value"})
	table.Append([]string{"Geometry", "Spheres", fmt.Sprintf("%d", len(sc.Spheres))})
	table.Append([]string{"", "Lights", fmt.Sprintf("%d", lights)})
	table.Append([]string{"", "Glass", fmt.Sprintf("%d", glass)})
	table.Append([]string{"", "Reflective", fmt.Sprintf("%d", reflective)})
	table.Append([]string{"", "Opaque", fmt.Sprintf("%d", opaque)})
	table.Append([]string{"", "Bounds", bboxText})
	table.Append([]string{" ", " ", " "})
	if sc.Camera != nil {
		table.Append([]string{"Camera", "Position", fmt.Sprintf("(%.2f, %.2f, %.2f)", sc.Camera.Position[0], sc.Camera.Position[1], sc.Camera.Position[2])})
		table.Append([]string{"", "Yaw/Pitch", fmt.Sprintf("%.3f / %.3f", sc.Camera.Yaw, sc.Camera.Pitch)})
		table.Append([]string{" ", " ", " "})
	}
	table.SetFooter([]string{"Total", " ", fmtSize(sphereSize * len(sc.Spheres))})

	table.Render()
	return buf.String()
}

// Format a byte count using the appropriate byte/kb/mb unit.
func fmtSize(totalBytes int) string {
	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", totalBytes)
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", float32(totalBytes)/1e3)
	}
	return fmt.Sprintf("%5.1f mb", float32(totalBytes)/1e6)
}
