// Package segment defines the background-removal oracle used by the editor.
//
// A Segmenter turns an image into a per-pixel foreground mask. The mask may
// be smaller than the image (ML models usually run at a fixed input size);
// consumers remap it with nearest-neighbor lookup, see imaging.ApplyMask.
//
// MaskCache keeps the most recent mask so that threshold changes can be
// previewed without running the oracle again. BorderSegmenter is a
// dependency-free oracle that treats the dominant border color as
// background; hosts with access to a real matting model can plug it in
// through the Segmenter interface or the Func adapter.
package segment
