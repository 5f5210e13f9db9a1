package server

import (
	"testing"
)

func toolMap() map[string]Tool {
	m := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		m[tool.Name] = tool
	}
	return m
}

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	if len(tools) == 0 {
		t.Fatal("GetToolDefinitions returned empty slice")
	}

	expectedTools := []string{
		"editor_load",
		"editor_state",
		"editor_preview",
		"editor_resize_view",
		"editor_export",
		"editor_sample_color",
		"editor_flip",
		"editor_rotate",
		"editor_crop",
		"editor_merge",
		"editor_upscale",
		"editor_adjust",
		"editor_adjust_reset",
		"editor_posterize",
		"editor_draw_shape",
		"editor_draw_line",
		"editor_draw_pencil",
		"editor_remove_bg",
		"editor_remove_bg_threshold",
		"editor_remove_bg_commit",
		"editor_remove_bg_cancel",
		"editor_refine_mask",
		"editor_undo",
		"editor_redo",
		"editor_history",
		"editor_compare",
	}

	m := toolMap()
	for _, name := range expectedTools {
		if _, ok := m[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("tool count: got %d, want %d", len(tools), len(expectedTools))
	}
}

func TestToolDefinitions_UniqueNames(t *testing.T) {
	seen := make(map[string]bool)
	for _, tool := range GetToolDefinitions() {
		if seen[tool.Name] {
			t.Errorf("duplicate tool %s", tool.Name)
		}
		seen[tool.Name] = true
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	tools := GetToolDefinitions()

	for _, tool := range tools {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Name == "" {
				t.Error("Tool name is empty")
			}
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema == nil {
				t.Fatal("Tool InputSchema is nil")
			}

			schemaType, ok := tool.InputSchema["type"]
			if !ok {
				t.Error("InputSchema missing 'type' field")
			}
			if schemaType != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", schemaType)
			}

			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema properties should be a map")
			}

			// Every required parameter must be declared
			if required, ok := tool.InputSchema["required"].([]string); ok {
				for _, r := range required {
					if _, ok := props[r]; !ok {
						t.Errorf("required parameter %s is not a property", r)
					}
				}
			}
		})
	}
}

func TestToolDefinitions_RequiredPath(t *testing.T) {
	m := toolMap()

	for _, name := range []string{"editor_load", "editor_merge", "editor_export"} {
		t.Run(name, func(t *testing.T) {
			required, ok := m[name].InputSchema["required"].([]string)
			if !ok {
				t.Fatal("'required' should be a string slice")
			}
			hasPath := false
			for _, r := range required {
				if r == "path" {
					hasPath = true
				}
			}
			if !hasPath {
				t.Error("Tool should require 'path' parameter")
			}
		})
	}
}

func TestToolDefinitions_DrawModeSwitches(t *testing.T) {
	m := toolMap()

	for _, name := range []string{"editor_draw_shape", "editor_draw_line", "editor_draw_pencil", "editor_refine_mask"} {
		t.Run(name, func(t *testing.T) {
			props := m[name].InputSchema["properties"].(map[string]interface{})
			for _, p := range []string{"preview", "commit"} {
				if _, ok := props[p]; !ok {
					t.Errorf("missing %s parameter", p)
				}
			}
		})
	}
}

func TestToolDefinitions_Enums(t *testing.T) {
	tests := []struct {
		tool  string
		param string
		want  []string
	}{
		{"editor_flip", "direction", []string{"horizontal", "vertical"}},
		{"editor_merge", "position", []string{"left", "right", "top", "bottom"}},
		{"editor_draw_shape", "type", []string{"rect", "ellipse"}},
	}

	m := toolMap()
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			props := m[tt.tool].InputSchema["properties"].(map[string]interface{})
			param, ok := props[tt.param].(map[string]interface{})
			if !ok {
				t.Fatalf("%s property should exist and be a map", tt.param)
			}
			enum, ok := param["enum"].([]string)
			if !ok {
				t.Fatalf("%s should have enum", tt.param)
			}
			if len(enum) != len(tt.want) {
				t.Fatalf("enum: got %v, want %v", enum, tt.want)
			}
			for i := range enum {
				if enum[i] != tt.want[i] {
					t.Errorf("enum[%d]: got %s, want %s", i, enum[i], tt.want[i])
				}
			}
		})
	}
}

func TestToolDefinitions_OptionalDefaults(t *testing.T) {
	toolDefaults := map[string]map[string]interface{}{
		"editor_flip":      {"direction": "horizontal"},
		"editor_merge":     {"position": "right"},
		"editor_upscale":   {"scale": 2},
		"editor_adjust":    {"brightness": 100, "contrast": 100, "saturation": 100, "commit": false},
		"editor_posterize": {"levels": 4, "preview": false},
		"editor_remove_bg": {"threshold": 128},
		"editor_export":    {"quality": 0.92},
		"editor_draw_line": {"color": "#FF0000", "commit": true, "preview": false},
	}

	m := toolMap()
	for toolName, expectedDefaults := range toolDefaults {
		tool, ok := m[toolName]
		if !ok {
			t.Errorf("Tool %s not found", toolName)
			continue
		}

		props, ok := tool.InputSchema["properties"].(map[string]interface{})
		if !ok {
			t.Errorf("%s: properties should be a map", toolName)
			continue
		}

		for paramName, expectedDefault := range expectedDefaults {
			param, ok := props[paramName].(map[string]interface{})
			if !ok {
				t.Errorf("%s.%s: parameter not found or not a map", toolName, paramName)
				continue
			}

			actualDefault, ok := param["default"]
			if !ok {
				t.Errorf("%s.%s: missing default value", toolName, paramName)
				continue
			}

			if actualDefault != expectedDefault {
				t.Errorf("%s.%s: default got %v (%T), want %v (%T)",
					toolName, paramName, actualDefault, actualDefault, expectedDefault, expectedDefault)
			}
		}
	}
}

func TestHandleToolsList(t *testing.T) {
	s := New(nil)
	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
	}

	resp := s.handleToolsList(req)

	if resp == nil {
		t.Fatal("handleToolsList returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}

	toolsList, ok := result["tools"].([]Tool)
	if !ok {
		t.Fatal("tools should be a slice of Tool")
	}

	expected := GetToolDefinitions()
	if len(toolsList) != len(expected) {
		t.Errorf("Tool count: got %d, want %d", len(toolsList), len(expected))
	}
}
