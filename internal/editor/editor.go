package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/fogleman/gg"
	"github.com/ironsheep/image-editor-mcp/internal/history"
	"github.com/ironsheep/image-editor-mcp/internal/imaging"
	"github.com/ironsheep/image-editor-mcp/internal/ops"
	"github.com/ironsheep/image-editor-mcp/internal/segment"
)

var (
	// ErrNoImage is returned by operations that need a loaded image.
	ErrNoImage = errors.New("no image loaded")

	// ErrNoPendingRemoveBg is returned when a threshold preview or commit is
	// requested without a pending background removal.
	ErrNoPendingRemoveBg = errors.New("no pending background removal")

	// ErrStale is returned when a segmentation result arrives after the
	// current image changed. The result is discarded.
	ErrStale = errors.New("image changed while segmentation was running")
)

// DefaultRemoveBgThreshold is the mask cutoff used when none is given.
const DefaultRemoveBgThreshold = 128

// minDrag is the largest preview-space drag, in pixels, that is still
// treated as a click rather than a shape.
const minDrag = 2

// Options configures an Editor. Zero values select defaults.
type Options struct {
	ViewWidth  int
	ViewHeight int

	// Padding is subtracted from the view before fitting the preview.
	// Zero selects DefaultPadding; negative disables padding.
	Padding int

	// HistoryLimit caps the undo stack. Zero selects history.DefaultLimit.
	HistoryLimit int

	// Segmenter computes background-removal masks. Nil selects a
	// segment.BorderSegmenter with default settings.
	Segmenter segment.Segmenter
}

// State is a snapshot of the editor delivered to observers.
type State struct {
	HasImage           bool                 `json:"has_image"`
	Width              int                  `json:"width"`
	Height             int                  `json:"height"`
	PreviewWidth       int                  `json:"preview_width"`
	PreviewHeight      int                  `json:"preview_height"`
	PreviewScale       float64              `json:"preview_scale"`
	CanUndo            bool                 `json:"can_undo"`
	CanRedo            bool                 `json:"can_redo"`
	HistoryIndex       int                  `json:"history_index"`
	HistoryLen         int                  `json:"history_len"`
	Description        string               `json:"description,omitempty"`
	PendingAdjustments *imaging.Adjustments `json:"pending_adjustments,omitempty"`
	PendingRemoveBg    bool                 `json:"pending_remove_bg"`
	RemoveBgThreshold  int                  `json:"remove_bg_threshold,omitempty"`
	CanRefineMask      bool                 `json:"can_refine_mask"`
}

// pendingRemoveBg is an uncommitted background removal. source is the
// current image it was computed for.
type pendingRemoveBg struct {
	source    *imaging.Bitmap
	mask      *image.Alpha
	threshold uint8
}

// Editor sequences operations over a Canvas and a history Stack.
//
// Committing operations flush any pending adjustment or background removal
// into history first, then apply, push and notify observers. Preview-only
// calls render at preview resolution and never touch history.
//
// Editor is safe for concurrent use; edits are serialized by an internal
// mutex. Segmentation runs outside the mutex.
type Editor struct {
	mu sync.Mutex

	canvas    *Canvas
	history   *history.Stack
	segmenter segment.Segmenter
	masks     *segment.MaskCache

	pendingAdj    *imaging.Adjustments
	pendingBg     *pendingRemoveBg
	beforeRemoval *imaging.Bitmap

	// generation changes whenever the current image is replaced.
	generation uint64
	// version changes on every observable state change.
	version uint64

	obsMu     sync.Mutex
	observers map[int]func(State)
	nextObs   int
}

// New creates an editor with no image.
func New(opts Options) *Editor {
	padding := opts.Padding
	switch {
	case padding == 0:
		padding = DefaultPadding
	case padding < 0:
		padding = 0
	}
	limit := opts.HistoryLimit
	if limit == 0 {
		limit = history.DefaultLimit
	}
	seg := opts.Segmenter
	if seg == nil {
		seg = segment.NewBorderSegmenter(segment.DefaultTolerance)
	}

	return &Editor{
		canvas:    NewCanvas(opts.ViewWidth, opts.ViewHeight, padding),
		history:   history.New(limit),
		segmenter: seg,
		masks:     segment.NewMaskCache(),
		observers: make(map[int]func(State)),
	}
}

// Subscribe registers fn to receive a State after every change. The returned
// function removes the subscription. fn is called without editor locks held
// and may call back into the editor.
func (e *Editor) Subscribe(fn func(State)) (unsubscribe func()) {
	e.obsMu.Lock()
	id := e.nextObs
	e.nextObs++
	e.observers[id] = fn
	e.obsMu.Unlock()

	return func() {
		e.obsMu.Lock()
		delete(e.observers, id)
		e.obsMu.Unlock()
	}
}

func (e *Editor) notify(st State) {
	e.obsMu.Lock()
	fns := make([]func(State), 0, len(e.observers))
	for _, fn := range e.observers {
		fns = append(fns, fn)
	}
	e.obsMu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

// update runs fn under the editor lock and notifies observers afterwards if
// fn changed anything, even when it also returned an error.
func (e *Editor) update(fn func() error) error {
	e.mu.Lock()
	before := e.version
	err := fn()
	changed := e.version != before
	st := e.stateLocked()
	e.mu.Unlock()

	if changed {
		e.notify(st)
	}
	return err
}

func (e *Editor) touch() { e.version++ }

// State returns a snapshot of the editor.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *Editor) stateLocked() State {
	st := State{
		HistoryIndex: e.history.Index(),
		HistoryLen:   e.history.Len(),
		CanUndo:      e.history.CanUndo(),
		CanRedo:      e.history.CanRedo(),
		PreviewScale: e.canvas.PreviewScale(),
	}
	if b := e.canvas.Image(); b != nil {
		st.HasImage = true
		st.Width, st.Height = b.Width(), b.Height()
	}
	if p := e.canvas.Preview(); p != nil {
		st.PreviewWidth, st.PreviewHeight = p.Rect.Dx(), p.Rect.Dy()
	}
	if cur, ok := e.history.Current(); ok {
		st.Description = cur.Description
	}
	if e.pendingAdj != nil {
		adj := *e.pendingAdj
		st.PendingAdjustments = &adj
	}
	if e.pendingBg != nil {
		st.PendingRemoveBg = true
		st.RemoveBgThreshold = int(e.pendingBg.threshold)
	}
	st.CanRefineMask = e.beforeRemoval != nil && !e.beforeRemoval.Released()
	return st
}

// LoadImage decodes r and installs it as a new editing session.
func (e *Editor) LoadImage(ctx context.Context, r io.Reader) error {
	img, err := imaging.Decode(r)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	e.LoadBitmap(img)
	return nil
}

// LoadFile decodes the image at path and installs it as a new editing
// session.
func (e *Editor) LoadFile(ctx context.Context, path string) (*imaging.ImageInfo, error) {
	img, info, err := imaging.DecodeFile(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.LoadBitmap(img)
	return info, nil
}

// LoadBitmap starts a new session from img: history is reset to a single
// "Original" entry and every pending state and the mask cache are cleared.
// An *image.NRGBA is adopted without copying.
func (e *Editor) LoadBitmap(img image.Image) {
	_ = e.update(func() error {
		e.pendingAdj = nil
		e.pendingBg = nil
		e.beforeRemoval = nil
		e.masks.Invalidate()
		e.history.Clear()

		b := imaging.NewBitmap(img)
		e.history.Push(b, "Original")
		e.canvas.SetImage(b)
		e.generation++
		e.touch()

		Logger().Info("image loaded", "width", b.Width(), "height", b.Height())
		return nil
	})
}

// currentLocked returns the current bitmap and its pixels.
func (e *Editor) currentLocked() (*imaging.Bitmap, *image.NRGBA, error) {
	b := e.canvas.Image()
	if b == nil {
		return nil, nil, ErrNoImage
	}
	src := b.Image()
	if src == nil {
		return nil, nil, ErrNoImage
	}
	return b, src, nil
}

// apply flushes pending state, then commits op.
func (e *Editor) apply(ctx context.Context, op ops.Operation) error {
	return e.update(func() error {
		if err := e.flushLocked(ctx); err != nil {
			return err
		}
		return e.commitLocked(ctx, op)
	})
}

// commitLocked applies op to the current image and pushes the result.
func (e *Editor) commitLocked(ctx context.Context, op ops.Operation) error {
	_, src, err := e.currentLocked()
	if err != nil {
		return err
	}

	out, err := op.Apply(ctx, src)
	if err != nil {
		return fmt.Errorf("%s: %w", op.Description(), err)
	}

	b := imaging.NewBitmap(out)
	e.history.Push(b, op.Description())
	e.canvas.SetImage(b)
	e.generation++
	e.touch()

	switch op.(type) {
	case ops.RemoveBackground, ops.RefineMask:
	default:
		e.beforeRemoval = nil
	}

	Logger().Debug("operation committed",
		"op", op.Description(),
		"width", b.Width(),
		"height", b.Height(),
		"history", e.history.Len())
	return nil
}

// flushLocked commits a pending background removal, then pending
// adjustments. Both pending fields are cleared before anything is applied.
func (e *Editor) flushLocked(ctx context.Context) error {
	adj, bg := e.pendingAdj, e.pendingBg
	e.pendingAdj, e.pendingBg = nil, nil
	if adj == nil && bg == nil {
		return nil
	}
	e.touch()

	if bg != nil {
		if err := e.commitRemoveBgLocked(ctx, bg); err != nil {
			return err
		}
	}
	if adj != nil && !adj.IsIdentity() {
		if err := e.commitLocked(ctx, ops.Adjust{Values: *adj}); err != nil {
			return err
		}
	}
	e.canvas.UpdatePreview(nil)
	return nil
}

// FlushAdjustments commits pending adjustments and a pending background
// removal, if any.
func (e *Editor) FlushAdjustments(ctx context.Context) error {
	return e.update(func() error { return e.flushLocked(ctx) })
}

// refreshPreviewLocked redraws the preview from the pending state.
func (e *Editor) refreshPreviewLocked() {
	if e.pendingBg == nil {
		e.canvas.UpdatePreview(e.pendingAdj)
		return
	}

	base := e.canvas.PreviewBase()
	if base == nil {
		return
	}
	out, err := imaging.ApplyMask(base, e.pendingBg.mask, e.pendingBg.threshold)
	if err != nil {
		Logger().Warn("remove background preview failed", "error", err)
		e.canvas.UpdatePreview(e.pendingAdj)
		return
	}
	if e.pendingAdj != nil {
		out = imaging.Adjust(out, *e.pendingAdj)
	}
	e.canvas.SetPreviewImage(out)
}

// FlipHorizontal mirrors the image left to right.
func (e *Editor) FlipHorizontal(ctx context.Context) error {
	return e.apply(ctx, ops.Flip{Horizontal: true})
}

// FlipVertical mirrors the image top to bottom.
func (e *Editor) FlipVertical(ctx context.Context) error {
	return e.apply(ctx, ops.Flip{})
}

// Rotate turns the image clockwise by degrees.
func (e *Editor) Rotate(ctx context.Context, degrees float64) error {
	return e.apply(ctx, ops.Rotate{Degrees: degrees})
}

// Crop keeps region, given in full-resolution pixels.
func (e *Editor) Crop(ctx context.Context, region imaging.Rect) error {
	return e.apply(ctx, ops.Crop{Region: region})
}

// CropFromPreview crops to a selection made on the preview. Empty
// selections are ignored.
func (e *Editor) CropFromPreview(ctx context.Context, sel imaging.Rect) error {
	sel = sel.Normalized()
	if sel.Width <= 0 || sel.Height <= 0 {
		return nil
	}
	return e.Crop(ctx, sel.Scaled(e.canvas.PreviewScale()))
}

// PreviewCrop shows the crop selection, given in preview coordinates, over
// the preview.
func (e *Editor) PreviewCrop(sel imaging.Rect) error {
	return e.update(func() error {
		if _, _, err := e.currentLocked(); err != nil {
			return err
		}
		e.refreshPreviewLocked()
		full := sel.Normalized().Scaled(e.canvas.PreviewScale())
		label := fmt.Sprintf("%dx%d", full.Width, full.Height)
		e.touch()
		return e.canvas.OverlayPreview(func(img *image.NRGBA) *image.NRGBA {
			return imaging.CropOverlay(img, sel, label)
		})
	})
}

// Merge joins second to the current image. second is released once the
// merge has been applied.
func (e *Editor) Merge(ctx context.Context, second image.Image, pos imaging.MergePosition) error {
	sb := imaging.NewBitmap(second)
	defer sb.Release()
	return e.apply(ctx, ops.Merge{Second: sb.Image(), Position: pos})
}

// MergeReader decodes the second image from r and merges it.
func (e *Editor) MergeReader(ctx context.Context, r io.Reader, pos imaging.MergePosition) error {
	img, err := imaging.Decode(r)
	if err != nil {
		return err
	}
	return e.Merge(ctx, img, pos)
}

// MergeFile decodes the second image from path and merges it.
func (e *Editor) MergeFile(ctx context.Context, path string, pos imaging.MergePosition) error {
	img, _, err := imaging.DecodeFile(path)
	if err != nil {
		return err
	}
	return e.Merge(ctx, img, pos)
}

// ApplyAdjustments commits a brightness/contrast/saturation change. The
// identity adds no history entry.
func (e *Editor) ApplyAdjustments(ctx context.Context, a imaging.Adjustments) error {
	if err := a.Validate(); err != nil {
		return err
	}
	return e.update(func() error {
		if err := e.flushLocked(ctx); err != nil {
			return err
		}
		if _, _, err := e.currentLocked(); err != nil {
			return err
		}
		if a.IsIdentity() {
			return nil
		}
		return e.commitLocked(ctx, ops.Adjust{Values: a})
	})
}

// SetPendingAdjustments previews a at preview resolution without touching
// history.
func (e *Editor) SetPendingAdjustments(a imaging.Adjustments) error {
	if err := a.Validate(); err != nil {
		return err
	}
	return e.update(func() error {
		if _, _, err := e.currentLocked(); err != nil {
			return err
		}
		e.pendingAdj = &a
		e.refreshPreviewLocked()
		e.touch()
		Logger().Debug("pending adjustments", "filter", a.Filter())
		return nil
	})
}

// ClearPendingAdjustments drops pending adjustments.
func (e *Editor) ClearPendingAdjustments() {
	_ = e.update(func() error {
		e.pendingAdj = nil
		e.refreshPreviewLocked()
		e.touch()
		return nil
	})
}

// ResetPreview drops pending adjustments and redraws the preview, e.g.
// after the view changed.
func (e *Editor) ResetPreview() {
	e.ClearPendingAdjustments()
}

// HasPendingAdjustments reports whether non-identity adjustments are waiting
// to be committed.
func (e *Editor) HasPendingAdjustments() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pendingAdj != nil && !e.pendingAdj.IsIdentity()
}

// ApplyShape draws s, given in full-resolution pixels.
func (e *Editor) ApplyShape(ctx context.Context, s imaging.ShapeData) error {
	return e.apply(ctx, ops.Shape{Data: normalizeShape(s)})
}

// ApplyPreviewShape draws s, given in preview coordinates. Drags of at most
// two pixels in either direction are ignored.
func (e *Editor) ApplyPreviewShape(ctx context.Context, s imaging.ShapeData) error {
	s = normalizeShape(s)
	if s.Width <= minDrag || s.Height <= minDrag {
		return nil
	}
	return e.ApplyShape(ctx, s.Scaled(e.canvas.PreviewScale()))
}

// PreviewShape draws s, in preview coordinates, over the preview only.
func (e *Editor) PreviewShape(s imaging.ShapeData) error {
	s = normalizeShape(s)
	return e.previewDraw(func(dc *gg.Context) error { return imaging.DrawShape(dc, s) })
}

// ApplyLine draws l, given in full-resolution pixels.
func (e *Editor) ApplyLine(ctx context.Context, l imaging.LineData) error {
	return e.apply(ctx, ops.Line{Data: l})
}

// ApplyPreviewLine draws l, given in preview coordinates. Lines shorter than
// the click threshold are ignored.
func (e *Editor) ApplyPreviewLine(ctx context.Context, l imaging.LineData) error {
	if imaging.Distance(imaging.Point{X: l.X1, Y: l.Y1}, imaging.Point{X: l.X2, Y: l.Y2}) <= minDrag {
		return nil
	}
	return e.ApplyLine(ctx, l.Scaled(e.canvas.PreviewScale()))
}

// PreviewLine draws l, in preview coordinates, over the preview only.
func (e *Editor) PreviewLine(l imaging.LineData) error {
	return e.previewDraw(func(dc *gg.Context) error { return imaging.DrawLine(dc, l) })
}

// ApplyPencil draws p, given in full-resolution pixels.
func (e *Editor) ApplyPencil(ctx context.Context, p imaging.PencilStroke) error {
	return e.apply(ctx, ops.Pencil{Stroke: p})
}

// ApplyPreviewPencil draws p, given in preview coordinates. Empty strokes
// are ignored.
func (e *Editor) ApplyPreviewPencil(ctx context.Context, p imaging.PencilStroke) error {
	if len(p.Points) == 0 {
		return nil
	}
	return e.ApplyPencil(ctx, p.Scaled(e.canvas.PreviewScale()))
}

// PreviewPencil draws p, in preview coordinates, over the preview only.
func (e *Editor) PreviewPencil(p imaging.PencilStroke) error {
	return e.previewDraw(func(dc *gg.Context) error { return imaging.DrawPencil(dc, p) })
}

// previewDraw redraws the preview from pending state and paints on top.
func (e *Editor) previewDraw(draw func(dc *gg.Context) error) error {
	return e.update(func() error {
		if _, _, err := e.currentLocked(); err != nil {
			return err
		}
		e.refreshPreviewLocked()
		e.touch()
		return e.canvas.DrawOnPreview(draw)
	})
}

// Posterize reduces every RGB channel to levels values.
func (e *Editor) Posterize(ctx context.Context, levels int) error {
	return e.apply(ctx, ops.Posterize{Levels: levels})
}

// PreviewPosterize shows the posterized image at preview resolution.
func (e *Editor) PreviewPosterize(levels int) error {
	return e.update(func() error {
		if _, _, err := e.currentLocked(); err != nil {
			return err
		}
		out, err := imaging.Posterize(e.canvas.PreviewBase(), levels)
		if err != nil {
			return err
		}
		e.canvas.SetPreviewImage(out)
		e.touch()
		return nil
	})
}

// Upscale resizes the image by scale.
func (e *Editor) Upscale(ctx context.Context, scale float64) error {
	return e.apply(ctx, ops.Upscale{Scale: scale})
}

// RunRemoveBg computes the foreground mask of the current image and enters
// the pending background-removal state with a preview at threshold.
//
// While a removal is already pending, only its threshold changes: the
// pending removal is not committed and the segmenter does not run again.
// A cached mask for the current image is reused. Otherwise the segmenter
// runs without holding the editor lock; if the current image changes in the
// meantime the result is discarded and ErrStale is returned.
func (e *Editor) RunRemoveBg(ctx context.Context, threshold uint8, progress segment.ProgressFunc) error {
	var (
		cur     *imaging.Bitmap
		src     *image.NRGBA
		gen     uint64
		mask    *image.Alpha
		hit     bool
		pending bool
	)
	err := e.update(func() error {
		if e.pendingBg != nil {
			pending = true
			e.pendingBg.threshold = threshold
			e.refreshPreviewLocked()
			e.touch()
			return nil
		}
		if err := e.flushLocked(ctx); err != nil {
			return err
		}
		var err error
		if cur, src, err = e.currentLocked(); err != nil {
			return err
		}
		gen = e.generation
		mask, hit = e.masks.Get(cur)
		return nil
	})
	if err != nil || pending {
		return err
	}

	if !hit {
		res, err := e.segmenter.Segment(ctx, src, progress)
		if err == nil {
			err = res.Validate()
		}
		if err != nil {
			Logger().Warn("segmentation failed", "error", err)
			return fmt.Errorf("segmentation failed: %w", err)
		}
		mask = res.Mask
		Logger().Debug("segmentation finished",
			"label", res.Label,
			"score", res.Score,
			"mask_width", mask.Rect.Dx(),
			"mask_height", mask.Rect.Dy())
	}

	return e.update(func() error {
		if e.generation != gen || e.canvas.Image() != cur {
			Logger().Warn("discarding stale segmentation result")
			return ErrStale
		}
		if !hit {
			e.masks.Put(cur, mask)
		}
		e.pendingBg = &pendingRemoveBg{source: cur, mask: mask, threshold: threshold}
		e.refreshPreviewLocked()
		e.touch()
		return nil
	})
}

// PreviewRemoveBgThreshold re-renders the pending removal preview with a new
// threshold. Only the preview is recomputed.
func (e *Editor) PreviewRemoveBgThreshold(threshold uint8) error {
	return e.update(func() error {
		if e.pendingBg == nil {
			return ErrNoPendingRemoveBg
		}
		e.pendingBg.threshold = threshold
		e.refreshPreviewLocked()
		e.touch()
		return nil
	})
}

// CommitRemoveBg applies the pending removal at full resolution and keeps
// the pre-removal image for the refine brush. Pending adjustments are
// committed afterwards.
func (e *Editor) CommitRemoveBg(ctx context.Context) error {
	return e.update(func() error {
		if e.pendingBg == nil {
			return ErrNoPendingRemoveBg
		}
		return e.flushLocked(ctx)
	})
}

func (e *Editor) commitRemoveBgLocked(ctx context.Context, bg *pendingRemoveBg) error {
	if e.canvas.Image() != bg.source {
		return ErrStale
	}
	if err := e.commitLocked(ctx, ops.RemoveBackground{Mask: bg.mask, Threshold: bg.threshold}); err != nil {
		return err
	}
	e.beforeRemoval = bg.source
	return nil
}

// CancelRemoveBg drops the pending removal and restores the preview.
func (e *Editor) CancelRemoveBg() {
	_ = e.update(func() error {
		if e.pendingBg == nil {
			return nil
		}
		e.pendingBg = nil
		e.refreshPreviewLocked()
		e.touch()
		return nil
	})
}

// HasPendingRemoveBg reports whether a background removal awaits commit.
func (e *Editor) HasPendingRemoveBg() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pendingBg != nil
}

// ApplyRefineMask erases or restores areas of a background-removed image.
// Strokes are in full-resolution pixels. Restore strokes need the
// pre-removal image at the current size and are skipped without it; when
// no stroke is left nothing is committed.
func (e *Editor) ApplyRefineMask(ctx context.Context, strokes []imaging.MaskStroke) error {
	return e.update(func() error {
		if err := e.flushLocked(ctx); err != nil {
			return err
		}
		_, cur, err := e.currentLocked()
		if err != nil {
			return err
		}
		var original image.Image
		if e.beforeRemoval != nil {
			if img := e.beforeRemoval.Image(); img != nil && img.Bounds().Size() == cur.Bounds().Size() {
				original = img
			}
		}
		effective := make([]imaging.MaskStroke, 0, len(strokes))
		for _, s := range strokes {
			if s.Mode == imaging.MaskRestore && original == nil {
				continue
			}
			effective = append(effective, s)
		}
		if len(effective) == 0 {
			return nil
		}
		return e.commitLocked(ctx, ops.RefineMask{Strokes: effective, Original: original})
	})
}

// ApplyPreviewRefineMask is ApplyRefineMask with strokes in preview
// coordinates.
func (e *Editor) ApplyPreviewRefineMask(ctx context.Context, strokes []imaging.MaskStroke) error {
	if len(strokes) == 0 {
		return nil
	}
	scale := e.canvas.PreviewScale()
	full := make([]imaging.MaskStroke, len(strokes))
	for i, s := range strokes {
		full[i] = s.Scaled(scale)
	}
	return e.ApplyRefineMask(ctx, full)
}

// PreviewRefineMask shows the effect of strokes, in preview coordinates,
// without committing them.
func (e *Editor) PreviewRefineMask(strokes []imaging.MaskStroke) error {
	return e.update(func() error {
		if _, _, err := e.currentLocked(); err != nil {
			return err
		}
		e.refreshPreviewLocked()
		var original image.Image
		if e.beforeRemoval != nil {
			if img := e.beforeRemoval.Image(); img != nil {
				original = e.canvas.ScaleToPreview(img)
			}
		}
		out, err := imaging.RefineMask(e.canvas.PreviewBase(), original, strokes)
		if err != nil {
			return err
		}
		e.canvas.SetPreviewImage(out)
		e.touch()
		return nil
	})
}

// OriginalBeforeRemoval returns the image as it was before the last
// committed background removal, or nil.
func (e *Editor) OriginalBeforeRemoval() *imaging.Bitmap {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.beforeRemoval == nil || e.beforeRemoval.Released() {
		return nil
	}
	return e.beforeRemoval
}

// ReleaseOriginalBeforeRemoval drops the editor's reference to the
// pre-removal image. The bitmap itself stays owned by history.
func (e *Editor) ReleaseOriginalBeforeRemoval() {
	_ = e.update(func() error {
		if e.beforeRemoval != nil {
			e.beforeRemoval = nil
			e.touch()
		}
		return nil
	})
}

// Undo steps back one history entry. Pending state is discarded. It
// reports whether the pointer moved.
func (e *Editor) Undo() bool {
	return e.step(e.history.Undo, "undo")
}

// Redo steps forward one history entry. Pending state is discarded. It
// reports whether the pointer moved.
func (e *Editor) Redo() bool {
	return e.step(e.history.Redo, "redo")
}

func (e *Editor) step(move func() (history.Entry, bool), name string) bool {
	moved := false
	_ = e.update(func() error {
		entry, ok := move()
		if !ok {
			return nil
		}
		e.pendingAdj = nil
		e.pendingBg = nil
		e.beforeRemoval = nil
		e.canvas.SetImage(entry.Bitmap)
		e.generation++
		e.touch()
		moved = true

		Logger().Debug(name, "description", entry.Description, "history_index", e.history.Index())
		return nil
	})
	return moved
}

// CanUndo reports whether Undo would move.
func (e *Editor) CanUndo() bool { return e.history.CanUndo() }

// CanRedo reports whether Redo would move.
func (e *Editor) CanRedo() bool { return e.history.CanRedo() }

// HasImage reports whether an image is loaded.
func (e *Editor) HasImage() bool { return e.canvas.Image() != nil }

// Dimensions returns the size of the current image.
func (e *Editor) Dimensions() (width, height int, ok bool) {
	b := e.canvas.Image()
	if b == nil {
		return 0, 0, false
	}
	return b.Width(), b.Height(), true
}

// Image returns the current full-resolution pixels, or nil. Callers must not
// modify the result.
func (e *Editor) Image() *image.NRGBA {
	if b := e.canvas.Image(); b != nil {
		return b.Image()
	}
	return nil
}

// Preview returns the displayed preview, or nil. Callers must not modify
// the result.
func (e *Editor) Preview() *image.NRGBA { return e.canvas.Preview() }

// PreviewScale returns preview width / image width.
func (e *Editor) PreviewScale() float64 { return e.canvas.PreviewScale() }

// ResizeView changes the view size and redraws the preview, keeping pending
// state.
func (e *Editor) ResizeView(width, height int) {
	_ = e.update(func() error {
		e.canvas.Resize(width, height)
		e.refreshPreviewLocked()
		e.touch()
		return nil
	})
}

// HistoryEntries lists the history, oldest first.
func (e *Editor) HistoryEntries() []history.Info { return e.history.Entries() }

// CompareWithHistory compares the current image with history entry index.
// A pixel differs when a channel differs by more than tolerance.
func (e *Editor) CompareWithHistory(index, tolerance int) (*imaging.CompareResult, error) {
	cur := e.Image()
	if cur == nil {
		return nil, ErrNoImage
	}
	entry, ok := e.history.At(index)
	if !ok {
		return nil, fmt.Errorf("history index %d out of range [0, %d)", index, e.history.Len())
	}
	other := entry.Bitmap.Image()
	if other == nil {
		return nil, fmt.Errorf("history entry %d has been released", index)
	}
	return imaging.Compare(cur, other, tolerance), nil
}

// SampleColor reads the color at (x, y) of the current image.
func (e *Editor) SampleColor(x, y int) (*imaging.ColorResult, error) {
	src := e.Image()
	if src == nil {
		return nil, ErrNoImage
	}
	return imaging.SampleColor(src, x, y)
}

// Export flushes pending state and writes the full-resolution image.
func (e *Editor) Export(ctx context.Context, w io.Writer, format imaging.Format, quality float64) error {
	err := e.update(func() error {
		if _, _, err := e.currentLocked(); err != nil {
			return err
		}
		return e.flushLocked(ctx)
	})
	if err != nil {
		return err
	}
	if err := e.canvas.Export(w, format, quality); err != nil {
		return err
	}
	Logger().Info("image exported", "format", string(format))
	return nil
}

// normalizeShape makes width and height non-negative.
func normalizeShape(s imaging.ShapeData) imaging.ShapeData {
	if s.Width < 0 {
		s.X += s.Width
		s.Width = -s.Width
	}
	if s.Height < 0 {
		s.Y += s.Height
		s.Height = -s.Height
	}
	return s
}
