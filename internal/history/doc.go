// Package history implements the bounded undo/redo stack of committed
// editor snapshots.
//
// Each Entry pairs an immutable imaging.Bitmap with the human-readable
// description shown in the history list ("Original", "Rotate 90°",
// "Crop to 640x480"). The Stack owns every Bitmap pushed into it and releases
// it when the entry leaves the stack:
//
//   - pushing while not at the tail discards and releases every entry ahead
//     of the pointer, so redo is no longer possible
//   - pushing past the limit evicts and releases the oldest entry and moves
//     the pointer back by one
//   - Clear releases every entry
//
// Undo and Redo only move the pointer; they never create or release
// snapshots. Once anything has been pushed the pointer always addresses a
// valid entry.
//
// # Example Usage
//
//	h := history.New(history.DefaultLimit)
//	h.Push(original, "Original")
//	h.Push(rotated, "Rotate 90°")
//	if e, ok := h.Undo(); ok {
//	    canvas.SetImage(e.Bitmap) // back to original
//	}
package history
