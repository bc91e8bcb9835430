// Package cleanup implements a two-phase border-averaging pass that
// smooths the jagged underestimates the ball-covering stage leaves at
// the foreground surface, then doubles every radius into a diameter.
// A voxel at the edge of the volume is treated as bordering background
// (an out-of-bounds neighbor counts as background), so volume-edge
// voxels are flagged as borders rather than silently treated as
// interior.
package cleanup

import (
	"runtime"

	"gonum.org/v1/gonum/floats"

	"localthickness/pkg/voxel"
	"localthickness/pkg/workerpool"
)

// offsets26 holds the 26 3D neighbor displacements, generated rather
// than hand-enumerated; any ordering of the 26 is equivalent since the
// aggregation below is commutative.
var offsets26 = buildOffsets26()

func buildOffsets26() [][3]int {
	var offsets [][3]int
	for dz := -1; dz <= 1; dz++ {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				offsets = append(offsets, [3]int{dx, dy, dz})
			}
		}
	}
	return offsets
}

// Compute runs the clean-up pass over a pre-cleanup local-thickness
// (radius) volume and returns the diameter volume.
func Compute(lt *voxel.FloatVolume) (*voxel.FloatVolume, error) {
	return ComputeWithWorkers(lt, 0)
}

// ComputeWithWorkers is Compute with an explicit worker-pool size.
func ComputeWithWorkers(lt *voxel.FloatVolume, numWorkers int) (*voxel.FloatVolume, error) {
	w, h, d := lt.Width, lt.Height, lt.Depth
	out := voxel.NewFloatVolume(w, h, d)

	if err := phase1Flag(lt, out, w, h, d, numWorkers); err != nil {
		return nil, err
	}
	if err := phase2Average(lt, out, w, h, d, numWorkers); err != nil {
		return nil, err
	}
	if err := phase3Finalize(out, numWorkers); err != nil {
		return nil, err
	}

	return out, nil
}

// phase1Flag classifies every voxel as background (0), border
// (-1, unresolved), or interior (its own magnitude). Partitioned
// round-robin over z; every worker only reads lt.
func phase1Flag(lt, out *voxel.FloatVolume, w, h, d, numWorkers int) error {
	wh := w * h
	return workerpool.RunShards("cleanup.phase1", numWorkers, func(shard int) {
		for k := shard; k < d; k += shardStride(numWorkers) {
			base := k * wh
			for j := 0; j < h; j++ {
				rowBase := base + w*j
				for i := 0; i < w; i++ {
					out.Data[rowBase+i] = flagVoxel(lt, w, h, d, i, j, k)
				}
			}
		}
	})
}

func flagVoxel(lt *voxel.FloatVolume, w, h, d, i, j, k int) float32 {
	if lt.At(i, j, k) == 0 {
		return 0
	}
	for _, off := range offsets26 {
		ni, nj, nk := i+off[0], j+off[1], k+off[2]
		if !inBounds(ni, nj, nk, w, h, d) || lt.At(ni, nj, nk) == 0 {
			return -1
		}
	}
	return lt.At(i, j, k)
}

// phase2Average resolves every border voxel to minus the mean of its
// interior (positive, already-resolved) neighbors, or minus its own
// pre-cleanup magnitude if it has no interior neighbor. This is a
// barrier after phase 1: only positive values, fixed since phase 1,
// are ever read, so any z-partitioning of this phase is race-free.
func phase2Average(lt, out *voxel.FloatVolume, w, h, d, numWorkers int) error {
	wh := w * h
	return workerpool.RunRange("cleanup.phase2", d, numWorkers, func(zLo, zHi int) {
		buf := make([]float64, 0, len(offsets26))
		for k := zLo; k < zHi; k++ {
			base := k * wh
			for j := 0; j < h; j++ {
				rowBase := base + w*j
				for i := 0; i < w; i++ {
					idx := rowBase + i
					if out.Data[idx] != -1 {
						continue
					}
					buf = buf[:0]
					for _, off := range offsets26 {
						ni, nj, nk := i+off[0], j+off[1], k+off[2]
						if !inBounds(ni, nj, nk, w, h, d) {
							continue
						}
						if v := out.At(ni, nj, nk); v > 0 {
							buf = append(buf, float64(v))
						}
					}
					if len(buf) > 0 {
						out.Data[idx] = float32(-floats.Sum(buf) / float64(len(buf)))
					} else {
						out.Data[idx] = -lt.At(i, j, k)
					}
				}
			}
		}
	})
}

// phase3Finalize replaces every voxel by twice its absolute value,
// converting the in-band-encoded radius estimate into a diameter.
func phase3Finalize(out *voxel.FloatVolume, numWorkers int) error {
	return workerpool.RunRange("cleanup.phase3", len(out.Data), numWorkers, func(lo, hi int) {
		for idx := lo; idx < hi; idx++ {
			v := out.Data[idx]
			if v < 0 {
				v = -v
			}
			out.Data[idx] = 2 * v
		}
	})
}

func inBounds(x, y, z, w, h, d int) bool {
	return x >= 0 && x < w && y >= 0 && y < h && z >= 0 && z < d
}

// shardStride mirrors workerpool.RunShards' internal worker-count
// clamp so a round-robin stage's stride matches the shard count
// RunShards actually launched.
func shardStride(numWorkers int) int {
	if numWorkers <= 0 {
		return runtime.NumCPU()
	}
	return numWorkers
}
