package bench

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/achilleasa/spheretrace/bvh"
	"github.com/achilleasa/spheretrace/log"
	"github.com/achilleasa/spheretrace/scene"
	"github.com/achilleasa/spheretrace/types"
)

var (
	ErrInvalidConfig = errors.New("bench: invalid configuration")
)

// Benchmark configuration.
type Config struct {
	// Sphere counts to benchmark.
	Counts []int

	// Number of random rays cast for each sphere count.
	Rays int

	// Spheres are scattered inside a cube of this side centered at the origin.
	WorldSize float32

	// Rays start from this point.
	Origin types.Vec3

	// Seed for the sphere and ray generators.
	Seed int64
}

// Get the default benchmark configuration: 50 to 500 spheres in steps of 50
// with 10000 rays cast from (-1000, -1000, -1000) into a 2000 unit world.
func DefaultConfig() Config {
	counts := make([]int, 0, 10)
	for count := 50; count <= 500; count += 50 {
		counts = append(counts, count)
	}

	return Config{
		Counts:    counts,
		Rays:      10000,
		WorldSize: 2000,
		Origin:    types.XYZ(-1000, -1000, -1000),
		Seed:      time.Now().UnixNano(),
	}
}

func (cfg Config) validate() error {
	if len(cfg.Counts) == 0 {
		return fmt.Errorf("%w: no sphere counts specified", ErrInvalidConfig)
	}
	for _, count := range cfg.Counts {
		if count <= 0 {
			return fmt.Errorf("%w: sphere count must be positive; got %d", ErrInvalidConfig, count)
		}
	}
	if cfg.Rays <= 0 {
		return fmt.Errorf("%w: ray count must be positive; got %d", ErrInvalidConfig, cfg.Rays)
	}
	if !(cfg.WorldSize > 0) {
		return fmt.Errorf("%w: world size must be positive; got %f", ErrInvalidConfig, cfg.WorldSize)
	}
	return nil
}

// Benchmark result for a single sphere count.
type Result struct {
	Spheres int

	LinearTime time.Duration
	BVHTime    time.Duration
	BuildTime  time.Duration

	// Number of rays that hit a sphere.
	LinearHits int
	BVHHits    int

	// Number of ray-sphere and ray-box tests.
	LinearTests    int64
	BVHSphereTests int64
	BVHBoxTests    int64

	// Rays for which the BVH and the linear scan disagree on the hit sphere.
	Mismatches int

	BVHNodes    int
	BVHMaxDepth int
}

// Speedup of the BVH over the linear scan.
func (r Result) Speedup() float64 {
	if r.BVHTime <= 0 {
		return 0
	}
	return float64(r.LinearTime) / float64(r.BVHTime)
}

// The results of a benchmark run.
type Report struct {
	Config  Config
	Results []Result
}

// Run the benchmark. For each sphere count a new scene is generated and the
// same set of random rays is intersected against it using a linear scan and
// a BVH. Cancelling ctx stops the run before the next sphere count; the
// report contains all results gathered so far.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := log.New("bench")
	rng := rand.New(rand.NewSource(cfg.Seed))
	report := &Report{Config: cfg}

	for _, count := range cfg.Counts {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		logger.Infof("benchmarking %d spheres with %d rays", count, cfg.Rays)
		sc := scene.NewBenchmarkScene(rng, count, cfg.WorldSize)
		rays := randomRays(rng, cfg.Rays, cfg.Origin)

		res, err := runOne(sc, rays)
		if err != nil {
			return report, err
		}
		report.Results = append(report.Results, res)

		logger.Infof(
			"%d spheres: linear %s (%d hits), bvh %s (%d hits), build %s, speedup %.2fx",
			count, res.LinearTime, res.LinearHits, res.BVHTime, res.BVHHits, res.BuildTime, res.Speedup(),
		)
		if res.Mismatches != 0 {
			logger.Warningf("%d spheres: BVH disagrees with linear scan for %d rays", count, res.Mismatches)
		}
	}

	return report, nil
}

func runOne(sc *scene.Scene, rays []types.Ray) (Result, error) {
	res := Result{Spheres: len(sc.Spheres)}

	tree, err := bvh.Build(sc.Spheres)
	if err != nil {
		return res, err
	}
	defer tree.Release()

	stats := tree.Stats()
	res.BuildTime = stats.BuildTime
	res.BVHNodes = stats.Nodes
	res.BVHMaxDepth = stats.MaxDepth

	linearHits := make([]*scene.Sphere, len(rays))
	start := time.Now()
	for index, r := range rays {
		hit := sc.Intersect(r)
		if hit.Hit {
			res.LinearHits++
			linearHits[index] = hit.Object
		}
	}
	res.LinearTime = time.Since(start)
	res.LinearTests = int64(len(rays)) * int64(len(sc.Spheres))

	start = time.Now()
	for index, r := range rays {
		hit, counters := tree.IntersectCount(r)
		res.BVHBoxTests += int64(counters.BoxTests)
		res.BVHSphereTests += int64(counters.SphereTests)
		if hit.Hit {
			res.BVHHits++
		}
		if hit.Object != linearHits[index] {
			res.Mismatches++
		}
	}
	res.BVHTime = time.Since(start)

	return res, nil
}

// Generate rays from origin with uniformly distributed components in
// [-1, 1] normalized to unit length.
func randomRays(rng *rand.Rand, count int, origin types.Vec3) []types.Ray {
	rays := make([]types.Ray, count)
	for index := range rays {
		dir := types.XYZ(
			rng.Float32()*2-1,
			rng.Float32()*2-1,
			rng.Float32()*2-1,
		)
		rays[index] = types.NewRay(origin, dir.Normalize())
	}
	return rays
}
