// Package imaging provides the pixel-level primitives behind the editor.
//
// Every function here is stateless: it takes an image.Image (plus
// parameters) and returns a new *image.NRGBA anchored at the origin, never
// modifying its input. Higher layers (ops, editor) decide when a result is
// committed to history.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner,
// X increasing rightward and Y increasing downward. Regions are expressed as
// a Rect (origin plus size). Gesture payloads (ShapeData, LineData,
// PencilStroke, MaskStroke, Rect) carry a Scaled method that converts
// preview-space coordinates into full-resolution coordinates.
//
// # Color Representation
//
// Pixel buffers are non-premultiplied NRGBA so that alpha edits (background
// removal, mask refinement) never destroy color information. Colors are
// parsed from CSS-style hex strings ("#rgb", "#rrggbb", "#rrggbbaa").
//
// # Resources
//
// Bitmap wraps a pixel buffer with an explicit Release so that the owner of
// an evicted or superseded image can drop it promptly.
//
// # Error Handling
//
// Functions return errors for invalid parameters such as unknown formats,
// posterize levels outside [2, 256], non-positive scale factors or
// unparseable colors. User-gesture edge cases such as crop rectangles that
// fall outside the image are clamped instead of rejected.
package imaging
