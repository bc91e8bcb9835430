// Package masktrim zeroes out thickness-map voxels whose corresponding
// input voxel is background, undoing the volume dilation that
// ball-covering leaves at the foreground boundary.
package masktrim

import (
	"errors"
	"fmt"

	"localthickness/pkg/config"
	"localthickness/pkg/voxel"
	"localthickness/pkg/workerpool"
)

// ErrShapeMismatch is returned when the original volume and the
// thickness map disagree in shape.
var ErrShapeMismatch = errors.New("masktrim: shape mismatch")

// Compute duplicates thicknessMap, zeroing every voxel whose
// corresponding voxel in original classifies as background under cfg.
// Neither input is mutated.
func Compute(original *voxel.BinaryVolume, thicknessMap *voxel.FloatVolume, cfg config.Config) (*voxel.FloatVolume, error) {
	return ComputeWithWorkers(original, thicknessMap, cfg, 0)
}

// ComputeWithWorkers is Compute with an explicit worker-pool size.
func ComputeWithWorkers(original *voxel.BinaryVolume, thicknessMap *voxel.FloatVolume, cfg config.Config, numWorkers int) (*voxel.FloatVolume, error) {
	if original == nil || thicknessMap == nil {
		return nil, fmt.Errorf("masktrim: %w: nil input", ErrShapeMismatch)
	}
	if !voxel.ShapesMatch(original.Width, original.Height, original.Depth, thicknessMap.Width, thicknessMap.Height, thicknessMap.Depth) {
		return nil, fmt.Errorf("masktrim: %w: original %dx%dx%d vs thickness map %dx%dx%d",
			ErrShapeMismatch, original.Width, original.Height, original.Depth,
			thicknessMap.Width, thicknessMap.Height, thicknessMap.Depth)
	}

	out := thicknessMap.Clone()
	err := workerpool.RunRange("masktrim", len(out.Data), numWorkers, func(lo, hi int) {
		for idx := lo; idx < hi; idx++ {
			if !voxel.Foreground(original.Data[idx], cfg.Threshold, cfg.Inverse) {
				out.Data[idx] = 0
			}
		}
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
