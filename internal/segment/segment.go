package segment

import (
	"context"
	"errors"
	"image"
)

// ErrEmptyMask is returned when an oracle produces no usable mask.
var ErrEmptyMask = errors.New("segmentation returned an empty mask")

// ProgressFunc receives human-readable status updates such as
// "Downloading model... 40%" or "Processing...". It may be nil.
type ProgressFunc func(status string)

// Result is the output of one segmentation pass.
type Result struct {
	// Mask holds foreground opacity per pixel, 0 = background. Its size may
	// differ from the segmented image.
	Mask *image.Alpha

	// Label is the class name reported by the oracle.
	Label string

	// Score is the oracle's confidence in [0, 1].
	Score float64
}

// Validate checks that r carries a non-empty mask.
func (r *Result) Validate() error {
	if r == nil || r.Mask == nil || r.Mask.Bounds().Empty() {
		return ErrEmptyMask
	}
	return nil
}

// Segmenter computes a foreground mask for an image.
//
// Implementations must honor ctx cancellation and must not modify img.
type Segmenter interface {
	Segment(ctx context.Context, img image.Image, progress ProgressFunc) (*Result, error)
}

// Func adapts an ordinary function to the Segmenter interface.
type Func func(ctx context.Context, img image.Image, progress ProgressFunc) (*Result, error)

// Segment calls f.
func (f Func) Segment(ctx context.Context, img image.Image, progress ProgressFunc) (*Result, error) {
	return f(ctx, img, progress)
}

// report calls progress if it is set.
func report(progress ProgressFunc, status string) {
	if progress != nil {
		progress(status)
	}
}
