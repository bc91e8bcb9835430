// Package thickness implements the ball-covering local thickness pass:
// for every ridge voxel, stamp its covering ball into the output,
// keeping the maximum radius observed at every voxel.
package thickness

import (
	"math"

	"localthickness/pkg/voxel"
	"localthickness/pkg/workerpool"
)

type ridgePoint struct {
	i, j, k int
	radius  float32
}

// Compute runs the ball-covering pass over a distance-ridge volume.
func Compute(ridge *voxel.FloatVolume) (*voxel.FloatVolume, error) {
	return ComputeWithWorkers(ridge, 0)
}

// ComputeWithWorkers is Compute with an explicit worker-pool size.
// Each worker owns an output z-range and pulls every ridge voxel whose
// ball intersects that range, so writes across workers never overlap
// and no lock is needed.
func ComputeWithWorkers(ridge *voxel.FloatVolume, numWorkers int) (*voxel.FloatVolume, error) {
	w, h, d := ridge.Width, ridge.Height, ridge.Depth
	out := voxel.NewFloatVolume(w, h, d)

	points := collectRidgePoints(ridge)
	if len(points) == 0 {
		return out, nil
	}

	wh := w * h
	err := workerpool.RunRange("thickness", d, numWorkers, func(zLo, zHi int) {
		for _, p := range points {
			stampBall(out, p, w, h, d, wh, zLo, zHi)
		}
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func collectRidgePoints(ridge *voxel.FloatVolume) []ridgePoint {
	var points []ridgePoint
	for k := 0; k < ridge.Depth; k++ {
		for j := 0; j < ridge.Height; j++ {
			for i := 0; i < ridge.Width; i++ {
				if r := ridge.At(i, j, k); r > 0 {
					points = append(points, ridgePoint{i: i, j: j, k: k, radius: r})
				}
			}
		}
	}
	return points
}

// stampBall updates out[i,j,k] = max(out[i,j,k], p.radius) for every
// voxel inside p's ball that falls within the worker's owned z-range
// [zLo, zHi), scanning a bounding cube and testing each candidate voxel
// against the ball.
func stampBall(out *voxel.FloatVolume, p ridgePoint, w, h, d, wh, zLo, zHi int) {
	radius := float64(p.radius)
	rSq := radius * radius
	span := int(math.Ceil(radius))

	zStart, zEnd := clampRange(p.k-span, p.k+span, zLo, zHi, d)
	if zStart > zEnd {
		return
	}
	yStart, yEnd := clampRange(p.j-span, p.j+span, 0, h, h)
	xStart, xEnd := clampRange(p.i-span, p.i+span, 0, w, w)

	for z := zStart; z <= zEnd; z++ {
		dz := z - p.k
		base := z * wh
		for y := yStart; y <= yEnd; y++ {
			dy := y - p.j
			rowBase := base + w*y
			dzy := float64(dz*dz + dy*dy)
			for x := xStart; x <= xEnd; x++ {
				dx := x - p.i
				if dzy+float64(dx*dx) > rSq {
					continue
				}
				idx := rowBase + x
				if p.radius > out.Data[idx] {
					out.Data[idx] = p.radius
				}
			}
		}
	}
}

// clampRange intersects [lo, hi] with the worker's [rangeLo, rangeHi)
// and with the volume bound [0, bound).
func clampRange(lo, hi, rangeLo, rangeHi, bound int) (int, int) {
	if lo < rangeLo {
		lo = rangeLo
	}
	if lo < 0 {
		lo = 0
	}
	if hi >= rangeHi {
		hi = rangeHi - 1
	}
	if hi >= bound {
		hi = bound - 1
	}
	return lo, hi
}
