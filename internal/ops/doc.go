// Package ops defines the closed set of editing operations.
//
// Every operation is a value implementing Operation: Apply turns the current
// full-resolution image into a new one without modifying its input, and
// Description returns the label recorded in history. The set is sealed;
// only this package can add variants.
//
//	op := ops.Rotate{Degrees: 90}
//	out, err := op.Apply(ctx, current)
//	history.Push(imaging.NewBitmap(out), op.Description()) // "Rotate 90°"
package ops
