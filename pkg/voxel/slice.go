package voxel

import "fmt"

// Slice extracts a 2D cross-section from the volume along the given axis
// ("x", "y", or "z") at the given position, returned as a flat row-major
// []float32.
func (v *FloatVolume) Slice(axis string, position int) ([]float32, int, int, error) {
	if position < 0 {
		return nil, 0, 0, fmt.Errorf("voxel: position must be non-negative, got %d", position)
	}

	switch axis {
	case "x", "X":
		if position >= v.Width {
			return nil, 0, 0, fmt.Errorf("voxel: position %d exceeds width %d", position, v.Width)
		}
		out := make([]float32, v.Depth*v.Height)
		for z := 0; z < v.Depth; z++ {
			for y := 0; y < v.Height; y++ {
				out[z*v.Height+y] = v.At(position, y, z)
			}
		}
		return out, v.Height, v.Depth, nil

	case "y", "Y":
		if position >= v.Height {
			return nil, 0, 0, fmt.Errorf("voxel: position %d exceeds height %d", position, v.Height)
		}
		out := make([]float32, v.Width*v.Depth)
		for z := 0; z < v.Depth; z++ {
			for x := 0; x < v.Width; x++ {
				out[z*v.Width+x] = v.At(x, position, z)
			}
		}
		return out, v.Width, v.Depth, nil

	case "z", "Z":
		if position >= v.Depth {
			return nil, 0, 0, fmt.Errorf("voxel: position %d exceeds depth %d", position, v.Depth)
		}
		out := make([]float32, v.Width*v.Height)
		for y := 0; y < v.Height; y++ {
			for x := 0; x < v.Width; x++ {
				out[y*v.Width+x] = v.At(x, y, position)
			}
		}
		return out, v.Width, v.Height, nil

	default:
		return nil, 0, 0, fmt.Errorf("voxel: invalid axis %q (must be x, y, or z)", axis)
	}
}
