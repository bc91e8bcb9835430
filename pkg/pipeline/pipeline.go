// Package pipeline sequences the local-thickness stages and owns the
// error taxonomy and cancellation flag.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"localthickness/pkg/cleanup"
	"localthickness/pkg/config"
	"localthickness/pkg/edt"
	"localthickness/pkg/masktrim"
	"localthickness/pkg/ridge"
	"localthickness/pkg/thickness"
	"localthickness/pkg/voxel"
)

var (
	ErrNullInput        = errors.New("pipeline: null input")
	ErrInvalidShape     = errors.New("pipeline: invalid shape")
	ErrInvalidThreshold = errors.New("pipeline: invalid threshold")
	ErrCancelled        = errors.New("pipeline: computation cancelled")
)

// WorkerFault wraps a worker-pool panic recovered during a stage. It
// satisfies error and unwraps to the underlying *workerpool.Fault so
// callers can still recover the stage name and panic value.
type WorkerFault struct {
	Stage string
	Err   error
}

func (f *WorkerFault) Error() string {
	return fmt.Sprintf("pipeline: worker fault in %s: %v", f.Stage, f.Err)
}

func (f *WorkerFault) Unwrap() error { return f.Err }

func workerFault(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &WorkerFault{Stage: stage, Err: err}
}

// Result carries the pipeline's output alongside the original input
// volume, so a caller applying a background-to-NaN display convention
// can classify backgrounds without recomputing anything.
type Result struct {
	Output *voxel.FloatVolume
	Input  *voxel.BinaryVolume
}

// Driver owns the pipeline's runtime configuration and a cooperative
// cancellation flag, checked between stages.
type Driver struct {
	RunConfig config.RunConfig

	// Log receives one line per stage transition when RunConfig.Verbose
	// is set. Defaults to os.Stderr.
	Log io.Writer

	cancelled atomic.Bool
}

// New returns a Driver configured with cfg.
func New(cfg config.RunConfig) *Driver {
	return &Driver{RunConfig: cfg, Log: os.Stderr}
}

// Cancel requests that Compute stop at the next stage boundary.
func (d *Driver) Cancel() {
	d.cancelled.Store(true)
}

func (d *Driver) logStage(format string, args ...any) {
	if !d.RunConfig.Verbose {
		return
	}
	w := d.Log
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// Compute runs the distance transform, ridge extraction, thickness,
// clean-up, and optional mask-trim stages over input in order.
func (d *Driver) Compute(input *voxel.BinaryVolume) (Result, error) {
	if input == nil {
		return Result{}, fmt.Errorf("%w", ErrNullInput)
	}
	if input.Width == 0 || input.Height == 0 || input.Depth == 0 {
		return Result{}, fmt.Errorf("%w: dimensions %dx%dx%d", ErrInvalidShape, input.Width, input.Height, input.Depth)
	}

	cfg := d.RunConfig.Config
	if cfg.Threshold < 1 {
		return Result{}, fmt.Errorf("%w: threshold %d out of [1,255]", ErrInvalidThreshold, cfg.Threshold)
	}

	d.logStage("Step 1: computing squared Euclidean distance transform")
	dist, err := edt.ComputeWithWorkers(input, cfg, d.RunConfig.NumWorkers)
	if err != nil {
		return Result{}, fmt.Errorf("edt: %w", workerFault("edt", err))
	}
	if d.cancelled.Load() {
		return Result{}, ErrCancelled
	}

	d.logStage("Step 2: extracting distance ridge")
	ridgeVol, err := ridge.ComputeWithWorkers(dist, d.RunConfig.NumWorkers)
	if err != nil {
		return Result{}, fmt.Errorf("ridge: %w", workerFault("ridge", err))
	}
	if d.cancelled.Load() {
		return Result{}, ErrCancelled
	}

	d.logStage("Step 3: running ball-covering local thickness pass")
	lt, err := thickness.ComputeWithWorkers(ridgeVol, d.RunConfig.NumWorkers)
	if err != nil {
		return Result{}, fmt.Errorf("thickness: %w", workerFault("thickness", err))
	}
	if d.cancelled.Load() {
		return Result{}, ErrCancelled
	}

	d.logStage("Step 4: cleaning up jagged borders and doubling to diameters")
	diameters, err := cleanup.ComputeWithWorkers(lt, d.RunConfig.NumWorkers)
	if err != nil {
		return Result{}, fmt.Errorf("cleanup: %w", workerFault("cleanup", err))
	}
	if d.cancelled.Load() {
		return Result{}, ErrCancelled
	}

	output := diameters
	if cfg.MaskTrim {
		d.logStage("Step 5: trimming mask overhang")
		output, err = masktrim.ComputeWithWorkers(input, diameters, cfg, d.RunConfig.NumWorkers)
		if err != nil {
			return Result{}, fmt.Errorf("masktrim: %w", err)
		}
	}

	return Result{Output: output, Input: input}, nil
}
