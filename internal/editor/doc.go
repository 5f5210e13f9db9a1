// Package editor implements the editing session: a Canvas holding the
// current image and its preview, and an Editor that sequences operations
// over it.
//
// # Committed and Pending State
//
// Every committed edit produces a new immutable bitmap that is pushed onto
// the history stack and installed on the canvas. Two kinds of edits can sit
// in front of history without being part of it:
//
//   - pending adjustments (brightness, contrast, saturation) shown as a
//     filter over the preview
//   - a pending background removal whose threshold can be tuned against the
//     cached mask at preview resolution
//
// Any committing operation flushes both into history before it runs, so
// operations always act on a history-backed image. Undo, redo and loading a
// new image discard them.
//
// # Coordinates
//
// Methods named Apply* take full-resolution pixels. Methods named
// ApplyPreview* and Preview* take preview coordinates, as produced by
// pointer gestures over the preview image, and scale by PreviewScale.
//
// # Concurrency
//
// Editor serializes edits with a mutex. Segmentation runs without the lock;
// a result that arrives after the current image changed is dropped with
// ErrStale. Observers registered with Subscribe are called after each change
// with no lock held.
//
// # Example Usage
//
//	ed := editor.New(editor.Options{})
//	if _, err := ed.LoadFile(ctx, "photo.jpg"); err != nil {
//	    return err
//	}
//	_ = ed.Rotate(ctx, 90)
//	_ = ed.SetPendingAdjustments(imaging.Adjustments{Brightness: 120, Contrast: 100, Saturation: 100})
//	_ = ed.Export(ctx, w, imaging.FormatPNG, 0) // commits the adjustment first
package editor
