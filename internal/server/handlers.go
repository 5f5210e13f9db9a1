package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ironsheep/image-editor-mcp/internal/editor"
	"github.com/ironsheep/image-editor-mcp/internal/history"
	"github.com/ironsheep/image-editor-mcp/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "editor_load", "editor_rotate").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		editor.Logger().Debug("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Editing tools return the editor State after the change so the client
// does not need a separate editor_state round trip.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Session
	case "editor_load":
		return s.handleLoad(ctx, args)
	case "editor_state":
		return s.editor.State(), nil
	case "editor_preview":
		return s.handlePreview()
	case "editor_resize_view":
		return s.handleResizeView(args)
	case "editor_export":
		return s.handleExport(ctx, args)
	case "editor_sample_color":
		return s.handleSampleColor(args)

	// Structural operations
	case "editor_flip":
		return s.handleFlip(ctx, args)
	case "editor_rotate":
		return s.handleRotate(ctx, args)
	case "editor_crop":
		return s.handleCrop(ctx, args)
	case "editor_merge":
		return s.handleMerge(ctx, args)
	case "editor_upscale":
		return s.handleUpscale(ctx, args)

	// Filters
	case "editor_adjust":
		return s.handleAdjust(ctx, args)
	case "editor_adjust_reset":
		s.editor.ResetPreview()
		return s.editor.State(), nil
	case "editor_posterize":
		return s.handlePosterize(ctx, args)

	// Drawing
	case "editor_draw_shape":
		return s.handleDrawShape(ctx, args)
	case "editor_draw_line":
		return s.handleDrawLine(ctx, args)
	case "editor_draw_pencil":
		return s.handleDrawPencil(ctx, args)

	// Background removal
	case "editor_remove_bg":
		return s.handleRemoveBg(ctx, args)
	case "editor_remove_bg_threshold":
		return s.handleRemoveBgThreshold(args)
	case "editor_remove_bg_commit":
		return s.stateAfter(s.editor.CommitRemoveBg(ctx))
	case "editor_remove_bg_cancel":
		s.editor.CancelRemoveBg()
		return s.editor.State(), nil
	case "editor_refine_mask":
		return s.handleRefineMask(ctx, args)

	// History
	case "editor_undo":
		return s.stepResult(s.editor.Undo()), nil
	case "editor_redo":
		return s.stepResult(s.editor.Redo()), nil
	case "editor_history":
		return historyResult{Entries: s.editor.HistoryEntries(), State: s.editor.State()}, nil
	case "editor_compare":
		return s.handleCompare(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments. Missing arguments decode as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(bytes.TrimSpace(args)) == 0 || bytes.Equal(bytes.TrimSpace(args), []byte("null")) {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// stateAfter returns the editor state when err is nil.
func (s *Server) stateAfter(err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	return s.editor.State(), nil
}

// boolOr dereferences b, falling back to def.
func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// threshold validates a 0-255 mask threshold, defaulting when absent.
func threshold(v *int) (uint8, error) {
	if v == nil {
		return editor.DefaultRemoveBgThreshold, nil
	}
	if *v < 0 || *v > 255 {
		return 0, fmt.Errorf("threshold must be between 0 and 255, got %d", *v)
	}
	return uint8(*v), nil
}

// === Session Handlers ===

type loadArgs struct {
	Path string `json:"path"`
}

type loadResult struct {
	Image *imaging.ImageInfo `json:"image"`
	State editor.State       `json:"state"`
}

func (s *Server) handleLoad(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a loadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	info, err := s.editor.LoadFile(ctx, a.Path)
	if err != nil {
		return nil, err
	}
	return loadResult{Image: info, State: s.editor.State()}, nil
}

// PreviewResult carries the current preview as a base64 PNG.
type PreviewResult struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Scale       float64 `json:"scale"`
	MimeType    string  `json:"mime_type"`
	ImageBase64 string  `json:"image_base64"`
}

func (s *Server) handlePreview() (interface{}, error) {
	preview := s.editor.Preview()
	if preview == nil {
		return nil, editor.ErrNoImage
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, preview, imaging.FormatPNG, 0); err != nil {
		return nil, err
	}
	return &PreviewResult{
		Width:       preview.Rect.Dx(),
		Height:      preview.Rect.Dy(),
		Scale:       s.editor.PreviewScale(),
		MimeType:    imaging.FormatPNG.MimeType(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

type resizeViewArgs struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s *Server) handleResizeView(args json.RawMessage) (interface{}, error) {
	var a resizeViewArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Width <= 0 || a.Height <= 0 {
		return nil, fmt.Errorf("view size must be positive, got %dx%d", a.Width, a.Height)
	}
	s.editor.ResizeView(a.Width, a.Height)
	return s.editor.State(), nil
}

type exportArgs struct {
	Path    string  `json:"path"`
	Format  string  `json:"format"`
	Quality float64 `json:"quality"`
}

// ExportResult describes a written file.
type ExportResult struct {
	Path          string `json:"path"`
	Format        string `json:"format"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	FileSizeBytes int64  `json:"file_size_bytes"`
}

func (s *Server) handleExport(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a exportArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	name := a.Format
	if name == "" {
		name = filepath.Ext(a.Path)
	}
	format, err := imaging.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	if a.Quality == 0 {
		a.Quality = imaging.DefaultQuality
	}

	var buf bytes.Buffer
	if err := s.editor.Export(ctx, &buf, format, a.Quality); err != nil {
		return nil, err
	}
	if err := os.WriteFile(a.Path, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", a.Path, err)
	}

	w, h, _ := s.editor.Dimensions()
	return &ExportResult{
		Path:          a.Path,
		Format:        string(format),
		Width:         w,
		Height:        h,
		FileSizeBytes: int64(buf.Len()),
	}, nil
}

type sampleColorArgs struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (s *Server) handleSampleColor(args json.RawMessage) (interface{}, error) {
	var a sampleColorArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.editor.SampleColor(a.X, a.Y)
}

// === Structural Operation Handlers ===

type flipArgs struct {
	Direction string `json:"direction"`
}

func (s *Server) handleFlip(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a flipArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	switch a.Direction {
	case "horizontal", "":
		return s.stateAfter(s.editor.FlipHorizontal(ctx))
	case "vertical":
		return s.stateAfter(s.editor.FlipVertical(ctx))
	}
	return nil, fmt.Errorf("unknown flip direction: %s", a.Direction)
}

type rotateArgs struct {
	Degrees float64 `json:"degrees"`
}

func (s *Server) handleRotate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a rotateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.stateAfter(s.editor.Rotate(ctx, a.Degrees))
}

type cropArgs struct {
	imaging.Rect
	// Preview means the rectangle is in preview coordinates.
	Preview bool `json:"preview"`
}

func (s *Server) handleCrop(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a cropArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Preview {
		return s.stateAfter(s.editor.CropFromPreview(ctx, a.Rect))
	}
	return s.stateAfter(s.editor.Crop(ctx, a.Rect))
}

type mergeArgs struct {
	Path     string `json:"path"`
	Position string `json:"position"`
}

func (s *Server) handleMerge(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a mergeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if a.Position == "" {
		a.Position = string(imaging.MergeRight)
	}
	pos, err := imaging.ParseMergePosition(a.Position)
	if err != nil {
		return nil, err
	}
	return s.stateAfter(s.editor.MergeFile(ctx, a.Path, pos))
}

type upscaleArgs struct {
	Scale float64 `json:"scale"`
}

func (s *Server) handleUpscale(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a upscaleArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 2
	}
	return s.stateAfter(s.editor.Upscale(ctx, a.Scale))
}

// === Filter Handlers ===

type adjustArgs struct {
	Brightness *int `json:"brightness"`
	Contrast   *int `json:"contrast"`
	Saturation *int `json:"saturation"`
	Commit     bool `json:"commit"`
}

func (s *Server) handleAdjust(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a adjustArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	adj := imaging.DefaultAdjustments()
	if a.Brightness != nil {
		adj.Brightness = *a.Brightness
	}
	if a.Contrast != nil {
		adj.Contrast = *a.Contrast
	}
	if a.Saturation != nil {
		adj.Saturation = *a.Saturation
	}
	if a.Commit {
		return s.stateAfter(s.editor.ApplyAdjustments(ctx, adj))
	}
	return s.stateAfter(s.editor.SetPendingAdjustments(adj))
}

type posterizeArgs struct {
	Levels int `json:"levels"`
	// Preview renders the effect on the preview without committing.
	Preview bool `json:"preview"`
}

func (s *Server) handlePosterize(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a posterizeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Levels == 0 {
		a.Levels = 4
	}
	if a.Preview {
		return s.stateAfter(s.editor.PreviewPosterize(a.Levels))
	}
	return s.stateAfter(s.editor.Posterize(ctx, a.Levels))
}

// === Drawing Handlers ===

// drawMode holds the options shared by the drawing tools.
type drawMode struct {
	// Preview means coordinates are in preview space.
	Preview bool `json:"preview"`
	// Commit false draws over the preview only. Defaults to true.
	Commit *bool `json:"commit"`
}

type drawShapeArgs struct {
	imaging.ShapeData
	drawMode
}

func (s *Server) handleDrawShape(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a drawShapeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Color == "" {
		a.Color = "#FF0000"
	}
	switch {
	case !boolOr(a.Commit, true):
		return s.stateAfter(s.editor.PreviewShape(a.ShapeData))
	case a.Preview:
		return s.stateAfter(s.editor.ApplyPreviewShape(ctx, a.ShapeData))
	default:
		return s.stateAfter(s.editor.ApplyShape(ctx, a.ShapeData))
	}
}

type drawLineArgs struct {
	imaging.LineData
	drawMode
}

func (s *Server) handleDrawLine(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a drawLineArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Color == "" {
		a.Color = "#FF0000"
	}
	switch {
	case !boolOr(a.Commit, true):
		return s.stateAfter(s.editor.PreviewLine(a.LineData))
	case a.Preview:
		return s.stateAfter(s.editor.ApplyPreviewLine(ctx, a.LineData))
	default:
		return s.stateAfter(s.editor.ApplyLine(ctx, a.LineData))
	}
}

type drawPencilArgs struct {
	imaging.PencilStroke
	drawMode
}

func (s *Server) handleDrawPencil(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a drawPencilArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Color == "" {
		a.Color = "#FF0000"
	}
	switch {
	case !boolOr(a.Commit, true):
		return s.stateAfter(s.editor.PreviewPencil(a.PencilStroke))
	case a.Preview:
		return s.stateAfter(s.editor.ApplyPreviewPencil(ctx, a.PencilStroke))
	default:
		return s.stateAfter(s.editor.ApplyPencil(ctx, a.PencilStroke))
	}
}

// === Background Removal Handlers ===

type removeBgArgs struct {
	Threshold *int `json:"threshold"`
}

func (s *Server) handleRemoveBg(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a removeBgArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	t, err := threshold(a.Threshold)
	if err != nil {
		return nil, err
	}
	progress := func(status string) {
		s.notify(NotifyProgress, progressParams{Status: status})
	}
	return s.stateAfter(s.editor.RunRemoveBg(ctx, t, progress))
}

func (s *Server) handleRemoveBgThreshold(args json.RawMessage) (interface{}, error) {
	var a removeBgArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Threshold == nil {
		return nil, fmt.Errorf("threshold is required")
	}
	t, err := threshold(a.Threshold)
	if err != nil {
		return nil, err
	}
	return s.stateAfter(s.editor.PreviewRemoveBgThreshold(t))
}

type refineMaskArgs struct {
	Strokes []imaging.MaskStroke `json:"strokes"`
	drawMode
}

func (s *Server) handleRefineMask(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a refineMaskArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	for _, st := range a.Strokes {
		if st.Mode != imaging.MaskErase && st.Mode != imaging.MaskRestore {
			return nil, fmt.Errorf("unknown brush mode: %s", st.Mode)
		}
	}
	switch {
	case !boolOr(a.Commit, true):
		return s.stateAfter(s.editor.PreviewRefineMask(a.Strokes))
	case a.Preview:
		return s.stateAfter(s.editor.ApplyPreviewRefineMask(ctx, a.Strokes))
	default:
		return s.stateAfter(s.editor.ApplyRefineMask(ctx, a.Strokes))
	}
}

// === History Handlers ===

type stepResult struct {
	Moved bool         `json:"moved"`
	State editor.State `json:"state"`
}

func (s *Server) stepResult(moved bool) stepResult {
	return stepResult{Moved: moved, State: s.editor.State()}
}

type historyResult struct {
	Entries []history.Info `json:"entries"`
	State   editor.State   `json:"state"`
}

type compareArgs struct {
	Index     *int `json:"index"`
	Tolerance int  `json:"tolerance"`
}

func (s *Server) handleCompare(args json.RawMessage) (interface{}, error) {
	var a compareArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	index := s.editor.State().HistoryIndex - 1
	if a.Index != nil {
		index = *a.Index
	}
	if index < 0 {
		index = 0
	}
	return s.editor.CompareWithHistory(index, a.Tolerance)
}
