// Package edt implements the squared Euclidean distance transform using
// the Saito-Toriwaki three-step separable algorithm: an x-axis pass, a
// y-axis pass, and a z-axis pass, each reducing the squared distance to
// the nearest background voxel along one more dimension.
package edt

import (
	"errors"
	"fmt"
	"math"
	"runtime"

	"gonum.org/v1/gonum/floats"

	"localthickness/pkg/config"
	"localthickness/pkg/voxel"
	"localthickness/pkg/workerpool"
)

// ErrInvalidShape and ErrInvalidThreshold are the precondition errors
// this stage can return.
var (
	ErrInvalidShape     = errors.New("edt: invalid shape")
	ErrInvalidThreshold = errors.New("edt: invalid threshold")
)

// sentinel returns 3*(n+1)^2, a value larger than the squared distance
// between any two voxels in a volume with longest dimension n, used as
// "no background found yet" during the nearest-background search. Kept
// as float64 throughout rather than a fixed-width integer: Go's float64
// mantissa is exact up to 2^53, far past any n this transform will see.
func sentinel(n int) float64 {
	return 3 * float64(n+1) * float64(n+1)
}

func hasBackground(input *voxel.BinaryVolume, cfg config.Config) bool {
	for _, value := range input.Data {
		if !voxel.Foreground(value, cfg.Threshold, cfg.Inverse) {
			return true
		}
	}
	return false
}

func maxInt(a, b, c int) int {
	n := a
	if b > n {
		n = b
	}
	if c > n {
		n = c
	}
	return n
}

// Compute runs the full three-step transform and returns a FloatVolume
// holding, for every foreground voxel, the Euclidean distance (not
// squared) to the nearest background voxel; background voxels hold 0.
func Compute(input *voxel.BinaryVolume, cfg config.Config) (*voxel.FloatVolume, error) {
	if input == nil {
		return nil, fmt.Errorf("edt: %w: nil input volume", ErrInvalidShape)
	}
	if input.Width == 0 || input.Height == 0 || input.Depth == 0 {
		return nil, fmt.Errorf("edt: %w: dimensions %dx%dx%d", ErrInvalidShape, input.Width, input.Height, input.Depth)
	}
	if cfg.Threshold < 1 {
		return nil, fmt.Errorf("edt: %w: threshold %d out of [1,255]", ErrInvalidThreshold, cfg.Threshold)
	}

	return ComputeWithWorkers(input, cfg, 0)
}

// ComputeWithWorkers is Compute with an explicit worker-pool size
// (numWorkers <= 0 means runtime.NumCPU(), see workerpool.RunShards).
// Exposed separately so the driver can thread its RunConfig.NumWorkers
// through without this package importing the driver's config type.
func ComputeWithWorkers(input *voxel.BinaryVolume, cfg config.Config, numWorkers int) (*voxel.FloatVolume, error) {
	w, h, d := input.Width, input.Height, input.Depth

	// A volume with no background voxel at all has nothing to measure
	// distance to; every foreground voxel's distance is defined to be 0
	// rather than the sentinel-derived result the three steps would
	// otherwise produce.
	if !hasBackground(input, cfg) {
		return voxel.NewFloatVolume(w, h, d), nil
	}

	n := maxInt(w, h, d)
	noResult := sentinel(n)

	// s is the shared squared-distance working buffer passed across all
	// three steps; each step reads the previous step's output and writes
	// its own, never mutating input.
	s := make([]float64, w*h*d)

	if err := step1(input, cfg, s, w, h, d, noResult, numWorkers); err != nil {
		return nil, fmt.Errorf("edt: step1: %w", err)
	}
	if err := step2(s, w, h, d, noResult, numWorkers); err != nil {
		return nil, fmt.Errorf("edt: step2: %w", err)
	}
	if err := step3(input, cfg, s, w, h, d, noResult, numWorkers); err != nil {
		return nil, fmt.Errorf("edt: step3: %w", err)
	}

	return finalize(input, cfg, s, w, h, d), nil
}

// step1 is the x-axis pass, partitioned round-robin over z-slices.
func step1(input *voxel.BinaryVolume, cfg config.Config, s []float64, w, h, d int, noResult float64, numWorkers int) error {
	wh := w * h
	return workerpool.RunShards("edt.step1", numWorkers, func(shard int) {
		background := make([]bool, w)
		for k := shard; k < d; k += max1(numWorkers) {
			base := k * wh
			for j := 0; j < h; j++ {
				rowBase := base + w*j
				for x := 0; x < w; x++ {
					background[x] = !voxel.Foreground(input.Data[rowBase+x], cfg.Threshold, cfg.Inverse)
				}
				for i := 0; i < w; i++ {
					min := noResult
					for x := i; x < w; x++ {
						if background[x] {
							dist := float64(i - x)
							min = dist * dist
							break
						}
					}
					for x := i - 1; x >= 0; x-- {
						if background[x] {
							dist := float64(i - x)
							test := dist * dist
							if test < min {
								min = test
							}
							break
						}
					}
					s[rowBase+i] = min
				}
			}
		}
	})
}

// max1 mirrors workerpool's own clamping so step1/step2/step3's
// round-robin stride matches the number of shards RunShards actually
// launched; RunShards defaults numWorkers<=0 to runtime.NumCPU()
// internally, so a caller-visible equivalent is needed here for the
// stride used inside each shard closure.
func max1(numWorkers int) int {
	if numWorkers <= 0 {
		return runtime.NumCPU()
	}
	return numWorkers
}

// step2 is the y-axis pass. The inner loop tracks a decrementing delta
// (delta = j; test = tempS[y] + delta*delta; delta--) rather than
// recomputing (j-y)*(j-y) afresh each iteration; the two are numerically
// identical.
func step2(s []float64, w, h, d int, noResult float64, numWorkers int) error {
	wh := w * h
	return workerpool.RunShards("edt.step2", numWorkers, func(shard int) {
		tempS := make([]int, h)
		tempOut := make([]int, h)
		for k := shard; k < d; k += max1(numWorkers) {
			base := k * wh
			for i := 0; i < w; i++ {
				nonempty := false
				for j := 0; j < h; j++ {
					tempS[j] = int(s[base+i+w*j])
					if tempS[j] > 0 {
						nonempty = true
					}
				}
				if !nonempty {
					continue
				}
				for j := 0; j < h; j++ {
					min := int(noResult)
					delta := j
					for y := 0; y < h; y++ {
						test := tempS[y] + delta*delta
						delta--
						if test < min {
							min = test
						}
					}
					tempOut[j] = min
				}
				for j := 0; j < h; j++ {
					s[base+i+w*j] = float64(tempOut[j])
				}
			}
		}
	})
}

// step3 is the z-axis pass. Only foreground voxels (re-classified
// against the original binary data) are recomputed; background voxels
// are left untouched since finalize() zeroes them regardless.
// Partitioned round-robin over y-rows.
func step3(input *voxel.BinaryVolume, cfg config.Config, s []float64, w, h, d int, noResult float64, numWorkers int) error {
	wh := w * h
	return workerpool.RunShards("edt.step3", numWorkers, func(shard int) {
		tempS := make([]int, d)
		tempOut := make([]int, d)
		for j := shard; j < h; j += max1(numWorkers) {
			wj := w * j
			for i := 0; i < w; i++ {
				nonempty := false
				for k := 0; k < d; k++ {
					tempS[k] = int(s[k*wh+i+wj])
					if tempS[k] > 0 {
						nonempty = true
					}
				}
				if !nonempty {
					continue
				}

				zStart := 0
				for zStart < d-1 && tempS[zStart] == 0 {
					zStart++
				}
				if zStart > 0 {
					zStart--
				}
				zStop := d - 1
				for zStop > 0 && tempS[zStop] == 0 {
					zStop--
				}
				if zStop < d-1 {
					zStop++
				}

				for k := 0; k < d; k++ {
					if !input.IsForeground(i, j, k, cfg.Threshold, cfg.Inverse) {
						continue
					}
					min := int(noResult)
					zBegin, zEnd := zStart, zStop
					if zBegin > k {
						zBegin = k
					}
					if zEnd < k {
						zEnd = k
					}
					delta := k - zBegin
					for z := zBegin; z <= zEnd; z++ {
						test := tempS[z] + delta*delta
						delta--
						if test < min {
							min = test
						}
					}
					tempOut[k] = min
				}
				for k := 0; k < d; k++ {
					if input.IsForeground(i, j, k, cfg.Threshold, cfg.Inverse) {
						s[k*wh+i+wj] = float64(tempOut[k])
					}
				}
			}
		}
	})
}

// finalize zeroes background voxels and takes the square root of every
// foreground voxel's accumulated squared distance.
func finalize(input *voxel.BinaryVolume, cfg config.Config, s []float64, w, h, d int) *voxel.FloatVolume {
	out := voxel.NewFloatVolume(w, h, d)
	wh := w * h
	for k := 0; k < d; k++ {
		base := k * wh
		for idx := 0; idx < wh; idx++ {
			flat := base + idx
			if voxel.Foreground(input.Data[flat], cfg.Threshold, cfg.Inverse) {
				out.Data[flat] = float32(math.Sqrt(s[flat]))
			} else {
				out.Data[flat] = 0
			}
		}
	}
	return out
}

// MaxDistance returns the largest value in a FloatVolume. Exposed for
// callers that want the overall maximum distance for display scaling.
func MaxDistance(v *voxel.FloatVolume) float64 {
	if len(v.Data) == 0 {
		return 0
	}
	f64 := make([]float64, len(v.Data))
	for i, x := range v.Data {
		f64[i] = float64(x)
	}
	return floats.Max(f64)
}
