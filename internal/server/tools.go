package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{"type": typ, "description": description}
}

func pathProp() map[string]interface{} {
	return prop("string", "Absolute path to the image file")
}

func modeProp() map[string]interface{} {
	p := prop("string", "Background variant: colored (any flat color, e.g. green screen), light (white or near-white) or auto (chosen from the corner colors)")
	p["enum"] = []string{"auto", "colored", "light"}
	return p
}

// removalProps are the per-call overrides accepted by image_remove_background.
func removalProps() map[string]interface{} {
	return map[string]interface{}{
		"path":        pathProp(),
		"output_path": prop("string", "Where to write the PNG result. Default: <dir>/<name>-no-bg.png next to the input"),
		"mode":        modeProp(),
		"color_tolerance": prop("number",
			"Colored variant: distance from the background below which a pixel becomes transparent. Default 60"),
		"brightness_threshold": prop("number",
			"Colored variant: pixels darker than this (0-255 channel mean) are kept when preserve_dark_content is on. Default 40"),
		"preserve_dark_content": prop("boolean", "Never remove dark pixels. Default false"),
		"use_hsv": prop("boolean",
			"Measure distance in HSV space with hue weighted double (true) or as RGB Euclidean distance (false). Default true"),
		"threshold": prop("number", "Light variant: channel brightness that counts as background. Default 240"),
		"tolerance": prop("number", "Light variant: slack below threshold. Default 15"),
		"edge_feathering": prop("number",
			"Width of the partial-transparency band past the tolerance, in units of 10 distance. 0 disables feathering. Default 3 (colored) or 2 (light)"),
		"min_alpha":    prop("integer", "Lower clamp for feathered alpha. Default 0"),
		"max_alpha":    prop("integer", "Upper clamp for feathered alpha. Default 255"),
		"aggressive":   prop("boolean", "Use the full tolerance (true) or a stricter test (false). Default true"),
		"soften_sigma": prop("number", "Gaussian sigma for a final alpha edge blur, e.g. 0.3. Default 0 (off)"),
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format, bit depth and whether it has an alpha channel.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProp(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_sample_color",
			Description: "Get the exact color value at a specific pixel coordinate as hex, RGB, RGBA and HSV.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProp(),
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based, from left)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based, from top)",
					},
				},
				"required": []string{"path", "x", "y"},
			},
		},
		{
			Name: "image_sample_colors_multi",
			Description: "Get color values at multiple pixel coordinates in a single call. With a reference color, " +
				"each sample also reports its RGB and HSV distance from it, which is what the removal tolerance is compared against.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProp(),
					"points": map[string]interface{}{
						"type":        "array",
						"description": "Points to sample",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x":     map[string]interface{}{"type": "integer"},
								"y":     map[string]interface{}{"type": "integer"},
								"label": map[string]interface{}{"type": "string"},
							},
							"required": []string{"x", "y"},
						},
					},
					"reference": prop("string", "Optional reference color as #RRGGBB, usually the detected background"),
				},
				"required": []string{"path", "points"},
			},
		},
		{
			Name: "image_detect_background",
			Description: "Estimate the background color of an image without modifying it. Returns the color, " +
				"the variant used and how many sampled pixels agreed with it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":         pathProp(),
					"mode":         modeProp(),
					"sample_width": prop("integer", "Colored variant: width of the border strips sampled. Default 10"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name: "image_remove_background",
			Description: "Make the flat background of an image transparent and write the result as PNG. " +
				"If removal fails the input is copied to the output path unchanged and fell_back is true.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": removalProps(),
				"required":   []string{"path"},
			},
		},
		{
			Name: "image_analyze_transparency",
			Description: "Score how cleanly a background was removed: transparent share, white/gray residue, " +
				"colored content, a 0-100 score with letter grade, issues and recommendations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProp(),
				},
				"required": []string{"path"},
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
