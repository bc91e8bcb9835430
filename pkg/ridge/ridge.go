// Package ridge extracts the distance ridge from an EDT distance
// volume: the set of foreground voxels whose covering ball is not
// already covered by one of its 26 neighbors' balls.
package ridge

import (
	"math"

	"golang.org/x/exp/slices"

	"localthickness/pkg/voxel"
	"localthickness/pkg/workerpool"
)

// template holds the three displacement-class rows of minimum covering
// radii-squared, indexed [class][radiusIndex]. class 0, 1, 2 correspond
// to face (1,0,0), edge (1,1,0), and corner (1,1,1) neighbor
// displacements respectively.
type template [3][]int

// distIndex maps an observed integer squared distance to its position
// in the sorted list of distinct squared distances occurring in the
// volume.
type distIndex struct {
	values []int
	lookup map[int]int
}

func roundSq(d float32) int {
	fd := float64(d)
	return int(fd*fd + 0.5)
}

func buildIndex(v *voxel.FloatVolume) distIndex {
	raw := make([]int, len(v.Data))
	for i, d := range v.Data {
		raw[i] = roundSq(d)
	}
	slices.Sort(raw)
	values := slices.Compact(raw)

	lookup := make(map[int]int, len(values))
	for i, val := range values {
		lookup[val] = i
	}
	return distIndex{values: values, lookup: lookup}
}

// Compute extracts the distance ridge from dist, an EDT output volume.
func Compute(dist *voxel.FloatVolume) (*voxel.FloatVolume, error) {
	return ComputeWithWorkers(dist, 0)
}

// ComputeWithWorkers is Compute with an explicit worker-pool size. A
// worker panic is recovered by workerpool and returned here as a
// *workerpool.Fault.
func ComputeWithWorkers(dist *voxel.FloatVolume, numWorkers int) (*voxel.FloatVolume, error) {
	w, h, d := dist.Width, dist.Height, dist.Depth
	out := voxel.NewFloatVolume(w, h, d)

	idx := buildIndex(dist)
	tmpl := buildTemplate(idx.values)
	wh := w * h

	// Workers partition over z; each worker reads neighbor slabs outside
	// its own range but never mutates them, so contiguous ranges need no
	// locking.
	err := workerpool.RunRange("ridge", d, numWorkers, func(zLo, zHi int) {
		for k := zLo; k < zHi; k++ {
			base := k * wh
			for j := 0; j < h; j++ {
				rowBase := base + w*j
				for i := 0; i < w; i++ {
					dv := dist.Data[rowBase+i]
					if dv <= 0 {
						continue
					}
					if isRidgePoint(dist, tmpl, idx, w, h, d, i, j, k, dv) {
						out.Data[rowBase+i] = dv
					}
				}
			}
		}
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// isRidgePoint reports whether v's ball is not already covered by any
// of its 26 neighbors' balls.
func isRidgePoint(dist *voxel.FloatVolume, tmpl template, idx distIndex, w, h, d, i, j, k int, dv float32) bool {
	sk0SqInd := idx.lookup[roundSq(dv)]

	for dz := -1; dz <= 1; dz++ {
		k1 := k + dz
		if k1 < 0 || k1 >= d {
			continue
		}
		for dy := -1; dy <= 1; dy++ {
			j1 := j + dy
			if j1 < 0 || j1 >= h {
				continue
			}
			for dx := -1; dx <= 1; dx++ {
				i1 := i + dx
				if i1 < 0 || i1 >= w {
					continue
				}
				numComp := absInt(dx) + absInt(dy) + absInt(dz)
				if numComp == 0 {
					continue
				}
				neighborSq := roundSq(dist.At(i1, j1, k1))
				if neighborSq >= tmpl[numComp-1][sk0SqInd] {
					return false
				}
			}
		}
	}
	return true
}

// buildTemplate computes the three representative displacement-class
// rows; by lattice symmetry (1,0,0), (1,1,0), and (1,1,1) cover all 26
// neighbors within their respective class.
func buildTemplate(values []int) template {
	return template{
		scanCube(1, 0, 0, values),
		scanCube(1, 1, 0, values),
		scanCube(1, 1, 1, values),
	}
}

// scanCube finds, for every observed squared radius rSq, the smallest
// r1Sq such that a ball of squared radius r1Sq centered at (dx,dy,dz)
// fully covers a ball of squared radius rSq centered at the origin.
func scanCube(dx, dy, dz int, values []int) []int {
	dxAbs, dyAbs, dzAbs := absInt(dx), absInt(dy), absInt(dz)
	r1Sq := make([]int, len(values))

	for rSqInd, rSq := range values {
		r := 1 + int(math.Sqrt(float64(rSq)))
		max := 0
		for k := 0; k <= r; k++ {
			dk := (k + dzAbs) * (k + dzAbs)
			for j := 0; j <= r; j++ {
				scankj := k*k + j*j
				if scankj > rSq {
					continue
				}
				iPlus := int(math.Sqrt(float64(rSq-scankj))) + dxAbs
				dkji := dk + (j+dyAbs)*(j+dyAbs) + iPlus*iPlus
				if dkji > max {
					max = dkji
				}
			}
		}
		r1Sq[rSqInd] = max
	}
	return r1Sq
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
