package tracer

import "math"

// The BlockScheduler interface is implemented by all block scheduling algorithms.
type BlockScheduler interface {
	// Split frame into blocks of variable height and assign to the pool
	// of tracers using feedback collected from previous frames.
	//
	// This function returns the block height assignment for each tracer
	// in the input list. The assigned heights always add up to frameH.
	Schedule(tracers []Tracer, frameH uint32) []uint32
}

// The naive scheduler splits the frame based on the speed estimate of each tracer.
type naiveScheduler struct {
	blockAssignment []uint32
}

// Create a new naive scheduler instance.
func NaiveScheduler() BlockScheduler {
	return &naiveScheduler{}
}

// Assign rows to tracers proportionally to their speed estimates.
func (sch *naiveScheduler) Schedule(tracers []Tracer, frameH uint32) []uint32 {
	if len(sch.blockAssignment) != len(tracers) {
		sch.blockAssignment = make([]uint32, len(tracers))
	}
	if len(tracers) == 0 {
		return sch.blockAssignment
	}
	assignBySpeed(sch.blockAssignment, tracers, frameH)
	return sch.blockAssignment
}

// The perfect scheduler assumes that the volume of tracing work between two
// subsequent frames is approximately the same.
type perfectScheduler struct {
	blockAssignment []uint32
}

// Create a new perfect scheduler instance.
func PerfectScheduler() BlockScheduler {
	return &perfectScheduler{}
}

// Split frame into blocks of variable height and assign to the pool
// of tracers using feedback collected from previous frames.
//
// This function returns the block height assignment for each tracer in the
// input list. When previous frame information is available the scheduler
// uses the following formula for estimating the workload for tracer w and frame i+1:
// w_i, f_i+1 = (blockH,w_i / time,w_i) / Σ(blockH_i-1 / time,i-1)
func (sch *perfectScheduler) Schedule(tracers []Tracer, frameH uint32) []uint32 {
	if len(tracers) == 0 {
		sch.blockAssignment = sch.blockAssignment[:0]
		return sch.blockAssignment
	}

	// If this is the first time we try to schedule or the number of tracers
	// has changed we need to reset the block assignments
	if len(sch.blockAssignment) != len(tracers) {
		sch.blockAssignment = make([]uint32, len(tracers))
		assignBySpeed(sch.blockAssignment, tracers, frameH)
		return sch.blockAssignment
	}

	// Use last frame statistics
	var total float64
	rates := make([]float64, len(tracers))
	for idx, tr := range tracers {
		stats := tr.Stats()
		renderTime := math.Max(1.0, float64(stats.RenderTime))
		rates[idx] = float64(stats.BlockH) / renderTime
		total += rates[idx]
	}

	if total == 0 {
		assignBySpeed(sch.blockAssignment, tracers, frameH)
		return sch.blockAssignment
	}

	scaler := float64(frameH) / total
	for idx := range tracers {
		sch.blockAssignment[idx] = uint32(math.Max(1.0, math.Floor(rates[idx]*scaler)))
	}
	fitRows(sch.blockAssignment, frameH)

	return sch.blockAssignment
}

// Distribute frameH rows according to each tracer's speed estimate.
func assignBySpeed(blockAssignment []uint32, tracers []Tracer, frameH uint32) {
	var total float64
	for _, tr := range tracers {
		total += float64(tr.Speed())
	}

	for idx, tr := range tracers {
		if total == 0 {
			blockAssignment[idx] = 1
			continue
		}
		blockAssignment[idx] = uint32(math.Max(1.0, math.Floor(float64(tr.Speed())*float64(frameH)/total)))
	}
	fitRows(blockAssignment, frameH)
}

// Adjust the block assignment so that rows add up to frameH. Missing rows
// are appended to the first tracer while excess rows are removed from the
// largest blocks.
func fitRows(blockAssignment []uint32, frameH uint32) {
	var scheduledRows uint32
	for _, rows := range blockAssignment {
		scheduledRows += rows
	}

	if scheduledRows <= frameH {
		blockAssignment[0] += frameH - scheduledRows
		return
	}

	for excess := scheduledRows - frameH; excess > 0; excess-- {
		largest := 0
		for idx, rows := range blockAssignment {
			if rows > blockAssignment[largest] {
				largest = idx
			}
		}
		blockAssignment[largest]--
	}
}
