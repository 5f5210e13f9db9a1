package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func noArgs() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// withDrawMode adds the preview/commit switches shared by the drawing and
// refine tools.
func withDrawMode(props map[string]interface{}) map[string]interface{} {
	props["preview"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Coordinates are in preview space (as returned by editor_preview) instead of image pixels. Default false",
		"default":     false,
	}
	props["commit"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Commit to history. false only draws over the preview, in preview coordinates. Default true",
		"default":     true,
	}
	return props
}

func colorProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Hex color (#RGB, #RRGGBB or #RRGGBBAA). Default #FF0000",
		"default":     "#FF0000",
	}
}

func thresholdProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"minimum":     0,
		"maximum":     255,
		"description": "Mask cutoff: pixels whose mask value is at least this stay opaque. 0 keeps the soft mask. Default 128",
		"default":     128,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Session
		{
			Name:        "editor_load",
			Description: "Load an image file into the editor. Starts a new session: history is reset to a single 'Original' entry.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "editor_state",
			Description: "Report the editor state: image and preview size, history position, pending adjustments and background removal.",
			InputSchema: noArgs(),
		},
		{
			Name:        "editor_preview",
			Description: "Return the current preview, including any pending adjustment or background removal, as a base64-encoded PNG.",
			InputSchema: noArgs(),
		},
		{
			Name:        "editor_resize_view",
			Description: "Change the view size the preview is fitted into. Pending state is kept.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "View width in pixels",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "View height in pixels",
					},
				},
				"required": []string{"width", "height"},
			},
		},
		{
			Name:        "editor_export",
			Description: "Commit pending changes and write the full-resolution image to a file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path of the output file",
					},
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"png", "jpeg", "jpg"},
						"description": "Output format. Default: from the file extension, else png",
					},
					"quality": map[string]interface{}{
						"type":        "number",
						"description": "JPEG quality in (0, 1]. Default 0.92",
						"default":     0.92,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "editor_sample_color",
			Description: "Get the exact color of the current image at a pixel coordinate.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based, from left)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based, from top)",
					},
				},
				"required": []string{"x", "y"},
			},
		},

		// Structural operations
		{
			Name:        "editor_flip",
			Description: "Mirror the image horizontally or vertically.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"direction": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"horizontal", "vertical"},
						"description": "Flip direction. Default horizontal",
						"default":     "horizontal",
					},
				},
			},
		},
		{
			Name:        "editor_rotate",
			Description: "Rotate the image clockwise. The canvas grows to the rotated bounding box; uncovered corners are transparent. Multiples of 90 are lossless.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"degrees": map[string]interface{}{
						"type":        "number",
						"description": "Clockwise angle in degrees, may be negative",
					},
				},
				"required": []string{"degrees"},
			},
		},
		{
			Name:        "editor_crop",
			Description: "Crop the image to a rectangle. Out-of-range rectangles are clamped into the image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "Left edge",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Top edge",
					},
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Width; negative values extend to the left",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Height; negative values extend upwards",
					},
					"preview": map[string]interface{}{
						"type":        "boolean",
						"description": "Rectangle is in preview coordinates. Empty selections are ignored. Default false",
						"default":     false,
					},
				},
				"required": []string{"x", "y", "width", "height"},
			},
		},
		{
			Name:        "editor_merge",
			Description: "Join a second image to the current one. The second image is scaled to match the shared edge.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the second image",
					},
					"position": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"left", "right", "top", "bottom"},
						"description": "Where the second image goes. Default right",
						"default":     "right",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "editor_upscale",
			Description: "Resize the image by a factor using Lanczos resampling.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Scale factor. Default 2",
						"default":     2,
					},
				},
			},
		},

		// Filters
		{
			Name:        "editor_adjust",
			Description: "Set brightness, contrast and saturation as percentages (100 = unchanged). Without commit the change is pending: shown on the preview and committed by the next operation or export.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"brightness": map[string]interface{}{
						"type":        "integer",
						"minimum":     0,
						"description": "Brightness percentage. Default 100",
						"default":     100,
					},
					"contrast": map[string]interface{}{
						"type":        "integer",
						"minimum":     0,
						"description": "Contrast percentage. Default 100",
						"default":     100,
					},
					"saturation": map[string]interface{}{
						"type":        "integer",
						"minimum":     0,
						"description": "Saturation percentage. Default 100",
						"default":     100,
					},
					"commit": map[string]interface{}{
						"type":        "boolean",
						"description": "Commit immediately instead of leaving the adjustment pending. Default false",
						"default":     false,
					},
				},
			},
		},
		{
			Name:        "editor_adjust_reset",
			Description: "Discard pending adjustments and redraw the preview.",
			InputSchema: noArgs(),
		},
		{
			Name:        "editor_posterize",
			Description: "Reduce each color channel to a number of evenly spaced levels.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"levels": map[string]interface{}{
						"type":        "integer",
						"minimum":     2,
						"maximum":     256,
						"description": "Levels per channel. Default 4",
						"default":     4,
					},
					"preview": map[string]interface{}{
						"type":        "boolean",
						"description": "Only render the effect on the preview. Default false",
						"default":     false,
					},
				},
			},
		},

		// Drawing
		{
			Name:        "editor_draw_shape",
			Description: "Draw a rectangle or an ellipse inscribed in a box. In preview coordinates, drags of 2 pixels or less are ignored.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withDrawMode(map[string]interface{}{
					"type": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"rect", "ellipse"},
						"description": "Shape kind",
					},
					"x":      map[string]interface{}{"type": "number"},
					"y":      map[string]interface{}{"type": "number"},
					"width":  map[string]interface{}{"type": "number"},
					"height": map[string]interface{}{"type": "number"},
					"color":  colorProp(),
					"line_width": map[string]interface{}{
						"type":        "number",
						"description": "Outline width. Default 1",
					},
					"filled": map[string]interface{}{
						"type":        "boolean",
						"description": "Fill instead of outline. Default false",
						"default":     false,
					},
				}),
				"required": []string{"type", "x", "y", "width", "height"},
			},
		},
		{
			Name:        "editor_draw_line",
			Description: "Draw a straight line, optionally with an arrowhead at the end point.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withDrawMode(map[string]interface{}{
					"x1":    map[string]interface{}{"type": "number"},
					"y1":    map[string]interface{}{"type": "number"},
					"x2":    map[string]interface{}{"type": "number"},
					"y2":    map[string]interface{}{"type": "number"},
					"color": colorProp(),
					"line_width": map[string]interface{}{
						"type":        "number",
						"description": "Line width. Default 1",
					},
					"arrowhead": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw an arrowhead at (x2, y2). Default false",
						"default":     false,
					},
				}),
				"required": []string{"x1", "y1", "x2", "y2"},
			},
		},
		{
			Name:        "editor_draw_pencil",
			Description: "Draw a freehand stroke through a list of points.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withDrawMode(map[string]interface{}{
					"points": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x": map[string]interface{}{"type": "number"},
								"y": map[string]interface{}{"type": "number"},
							},
							"required": []string{"x", "y"},
						},
						"description": "Stroke points in drawing order",
					},
					"color": colorProp(),
					"line_width": map[string]interface{}{
						"type":        "number",
						"description": "Stroke width. Default 1",
					},
				}),
				"required": []string{"points"},
			},
		},

		// Background removal
		{
			Name:        "editor_remove_bg",
			Description: "Compute a foreground mask and preview the image with its background removed. The removal stays pending until committed, cancelled or flushed by the next operation; calling it again while pending only changes the threshold. Progress is sent as notifications/editor/progress.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"threshold": thresholdProp(),
				},
			},
		},
		{
			Name:        "editor_remove_bg_threshold",
			Description: "Re-render the pending background removal preview with a new threshold.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"threshold": thresholdProp(),
				},
				"required": []string{"threshold"},
			},
		},
		{
			Name:        "editor_remove_bg_commit",
			Description: "Apply the pending background removal at full resolution.",
			InputSchema: noArgs(),
		},
		{
			Name:        "editor_remove_bg_cancel",
			Description: "Discard the pending background removal.",
			InputSchema: noArgs(),
		},
		{
			Name:        "editor_refine_mask",
			Description: "Erase or restore areas of a background-removed image with circular brush dabs. Restore copies pixels from the image as it was before removal.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withDrawMode(map[string]interface{}{
					"strokes": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x":      map[string]interface{}{"type": "number"},
								"y":      map[string]interface{}{"type": "number"},
								"radius": map[string]interface{}{"type": "number"},
								"mode": map[string]interface{}{
									"type": "string",
									"enum": []string{"erase", "restore"},
								},
							},
							"required": []string{"x", "y", "radius", "mode"},
						},
						"description": "Brush dabs in application order",
					},
				}),
				"required": []string{"strokes"},
			},
		},

		// History
		{
			Name:        "editor_undo",
			Description: "Step back one history entry. Pending changes are discarded.",
			InputSchema: noArgs(),
		},
		{
			Name:        "editor_redo",
			Description: "Step forward one history entry. Pending changes are discarded.",
			InputSchema: noArgs(),
		},
		{
			Name:        "editor_history",
			Description: "List history entries, oldest first, with the current position.",
			InputSchema: noArgs(),
		},
		{
			Name:        "editor_compare",
			Description: "Compare the current image with a history entry pixel by pixel. Use this to verify what an operation changed.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"index": map[string]interface{}{
						"type":        "integer",
						"description": "History index to compare against. Default: the entry before the current one",
					},
					"tolerance": map[string]interface{}{
						"type":        "integer",
						"description": "Per-channel difference still counted as equal. Default 0",
						"default":     0,
					},
				},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
