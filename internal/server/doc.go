// Package server implements the MCP (Model Context Protocol) server for the
// image editor.
//
// This package exposes one editor.Editor session through JSON-RPC 2.0 so an
// MCP client can load an image, edit it step by step with undo and redo,
// inspect the preview and export the result.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses and notifications on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Session:
//   - editor_load, editor_state, editor_preview, editor_resize_view
//   - editor_export, editor_sample_color
//
// Structural operations:
//   - editor_flip, editor_rotate, editor_crop, editor_merge, editor_upscale
//
// Filters:
//   - editor_adjust, editor_adjust_reset, editor_posterize
//
// Drawing:
//   - editor_draw_shape, editor_draw_line, editor_draw_pencil
//
// Background removal:
//   - editor_remove_bg, editor_remove_bg_threshold
//   - editor_remove_bg_commit, editor_remove_bg_cancel, editor_refine_mask
//
// History:
//   - editor_undo, editor_redo, editor_history, editor_compare
//
// Editing tools return the editor state after the change.
//
// # Notifications
//
// While Serve runs, every editor state change is pushed as
// notifications/editor/state with the State as params, and segmentation
// progress as notifications/editor/progress with {"status": "..."}.
// Notifications and responses share one writer and never interleave.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(editor.New(editor.Options{}))
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
