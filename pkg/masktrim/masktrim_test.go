package masktrim

import (
	"errors"
	"testing"

	"localthickness/pkg/config"
	"localthickness/pkg/voxel"
)

// spec.md section 8 scenario 4: a horizontal slab, x<5 foreground.
func TestComputeHorizontalSlab(t *testing.T) {
	original := voxel.NewBinaryVolume(10, 10, 2)
	for z := 0; z < 2; z++ {
		for y := 0; y < 10; y++ {
			for x := 0; x < 5; x++ {
				original.Data[original.Index(x, y, z)] = 255
			}
		}
	}
	thickness := voxel.NewFloatVolume(10, 10, 2)
	for i := range thickness.Data {
		thickness.Data[i] = 1.0
	}

	out, err := Compute(original, thickness, config.Config{Threshold: 128, Inverse: false})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	for z := 0; z < 2; z++ {
		for y := 0; y < 10; y++ {
			for x := 0; x < 10; x++ {
				want := float32(1.0)
				if x >= 5 {
					want = 0
				}
				if got := out.At(x, y, z); got != want {
					t.Errorf("At(%d,%d,%d) = %v, want %v", x, y, z, got, want)
				}
			}
		}
	}
}

func TestComputeInverseComplement(t *testing.T) {
	original := voxel.NewBinaryVolume(10, 10, 2)
	for z := 0; z < 2; z++ {
		for y := 0; y < 10; y++ {
			for x := 0; x < 5; x++ {
				original.Data[original.Index(x, y, z)] = 255
			}
		}
	}
	thickness := voxel.NewFloatVolume(10, 10, 2)
	for i := range thickness.Data {
		thickness.Data[i] = 1.0
	}

	out, err := Compute(original, thickness, config.Config{Threshold: 128, Inverse: true})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got := out.At(0, 0, 0); got != 0 {
		t.Errorf("At(0,0,0) = %v, want 0 under inverse", got)
	}
	if got := out.At(7, 0, 0); got != 1.0 {
		t.Errorf("At(7,0,0) = %v, want 1.0 under inverse", got)
	}
}

func TestComputeRejectsShapeMismatch(t *testing.T) {
	original := voxel.NewBinaryVolume(10, 10, 2)
	thickness := voxel.NewFloatVolume(11, 10, 2)

	_, err := Compute(original, thickness, config.DefaultConfig())
	if err == nil {
		t.Fatalf("expected ShapeMismatch error")
	}
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("errors.Is(err, ErrShapeMismatch) = false, got %v", err)
	}
}

func TestComputeDoesNotMutateInputs(t *testing.T) {
	original := voxel.NewBinaryVolume(4, 4, 4)
	thickness := voxel.NewFloatVolume(4, 4, 4)
	for i := range thickness.Data {
		thickness.Data[i] = 3.5
	}
	originalBefore := original.Clone()
	thicknessBefore := thickness.Clone()

	if _, err := Compute(original, thickness, config.DefaultConfig()); err != nil {
		t.Fatalf("Compute: %v", err)
	}
	for i := range original.Data {
		if original.Data[i] != originalBefore.Data[i] {
			t.Fatalf("original mutated at %d", i)
		}
	}
	for i := range thickness.Data {
		if thickness.Data[i] != thicknessBefore.Data[i] {
			t.Fatalf("thickness map mutated at %d", i)
		}
	}
}

// spec.md section 8: idempotence of mask_trim.
func TestComputeIsIdempotent(t *testing.T) {
	original := voxel.NewBinaryVolume(5, 5, 5)
	for i := range original.Data {
		if i%3 == 0 {
			original.Data[i] = 255
		}
	}
	thickness := voxel.NewFloatVolume(5, 5, 5)
	for i := range thickness.Data {
		thickness.Data[i] = float32(i%4) + 1
	}

	cfg := config.DefaultConfig()
	once, err := Compute(original, thickness, cfg)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	twice, err := Compute(original, once, cfg)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	for i := range once.Data {
		if once.Data[i] != twice.Data[i] {
			t.Fatalf("Data[%d]: first pass %v != second pass %v", i, once.Data[i], twice.Data[i])
		}
	}
}
