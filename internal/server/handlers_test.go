package server

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createGreenScreen writes a PNG with a green background and a red square
// covering the middle third.
func createGreenScreen(t *testing.T, size int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	lo, hi := size/3, 2*size/3
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := color.NRGBA{0, 255, 0, 255}
			if x >= lo && x < hi && y >= lo && y < hi {
				c = color.NRGBA{220, 30, 30, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	path := filepath.Join(t.TempDir(), "greenscreen.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

// callTool runs tools/call and returns the response.
func callTool(t *testing.T, s *Server, name string, args interface{}) *MCPResponse {
	t.Helper()
	params, err := json.Marshal(map[string]interface{}{"name": name, "arguments": args})
	require.NoError(t, err)
	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: params})
	require.NotNil(t, resp)
	return resp
}

// toolResult decodes the JSON text content of a successful call into v.
func toolResult(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()
	require.Nil(t, resp.Error, "unexpected error: %+v", resp.Error)
	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	require.Len(t, content, 1)
	assert.Equal(t, "text", content[0]["type"])
	require.NoError(t, json.Unmarshal([]byte(content[0]["text"].(string)), v))
}

func TestHandleToolsCall_ImageLoad(t *testing.T) {
	path := createGreenScreen(t, 30)

	var info struct {
		Width    int    `json:"width"`
		Height   int    `json:"height"`
		Format   string `json:"format"`
		HasAlpha bool   `json:"has_alpha"`
	}
	toolResult(t, callTool(t, newTestServer(), "image_load", map[string]interface{}{"path": path}), &info)

	assert.Equal(t, 30, info.Width)
	assert.Equal(t, 30, info.Height)
	assert.Equal(t, "png", info.Format)
}

func TestHandleToolsCall_SampleColor(t *testing.T) {
	path := createGreenScreen(t, 30)

	var res struct {
		Hex  string `json:"hex"`
		RGBA struct {
			A int `json:"a"`
		} `json:"rgba"`
		HSV struct {
			H float64 `json:"h"`
		} `json:"hsv"`
	}
	toolResult(t, callTool(t, newTestServer(), "image_sample_color", map[string]interface{}{"path": path, "x": 0, "y": 0}), &res)

	assert.Equal(t, "#00ff00", res.Hex)
	assert.Equal(t, 255, res.RGBA.A)
	assert.InDelta(t, 120.0, res.HSV.H, 0.01)

	resp := callTool(t, newTestServer(), "image_sample_color", map[string]interface{}{"path": path, "x": 99, "y": 0})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32000, resp.Error.Code)
}

func TestHandleToolsCall_SampleColorsMulti(t *testing.T) {
	path := createGreenScreen(t, 30)
	s := newTestServer()

	var res struct {
		Samples []struct {
			Label       string   `json:"label"`
			RGBDistance *float64 `json:"rgb_distance"`
		} `json:"samples"`
	}
	toolResult(t, callTool(t, s, "image_sample_colors_multi", map[string]interface{}{
		"path":      path,
		"points":    []map[string]interface{}{{"x": 0, "y": 0, "label": "corner"}, {"x": 15, "y": 15, "label": "subject"}},
		"reference": "#00ff00",
	}), &res)

	require.Len(t, res.Samples, 2)
	assert.Equal(t, "corner", res.Samples[0].Label)
	require.NotNil(t, res.Samples[0].RGBDistance)
	assert.Zero(t, *res.Samples[0].RGBDistance)
	assert.Greater(t, *res.Samples[1].RGBDistance, 200.0)

	resp := callTool(t, s, "image_sample_colors_multi", map[string]interface{}{"path": path, "points": []interface{}{}})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32602, resp.Error.Code)

	resp = callTool(t, s, "image_sample_colors_multi", map[string]interface{}{
		"path": path, "points": []map[string]int{{"x": 0, "y": 0}}, "reference": "green",
	})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32602, resp.Error.Code)
}

func TestHandleToolsCall_DetectBackground(t *testing.T) {
	path := createGreenScreen(t, 60)

	var res backgroundResult
	toolResult(t, callTool(t, newTestServer(), "image_detect_background", map[string]interface{}{"path": path}), &res)

	assert.Equal(t, "colored", res.Mode.String())
	assert.Equal(t, "#00ff00", res.Hex)
	assert.Equal(t, 1.0, res.Confidence)
	assert.Equal(t, 2*10*60+2*10*60, res.Samples)

	resp := callTool(t, newTestServer(), "image_detect_background", map[string]interface{}{"path": path, "mode": "chroma"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32602, resp.Error.Code)
}

func TestHandleToolsCall_RemoveBackground(t *testing.T) {
	path := createGreenScreen(t, 60)
	s := newTestServer()

	// Prime the cache with the default output path to check eviction.
	out := filepath.Join(filepath.Dir(path), "greenscreen-no-bg.png")
	require.NoError(t, os.WriteFile(out, mustReadFile(t, path), 0o644))
	_, err := s.cache.Load(out)
	require.NoError(t, err)

	var res struct {
		Output        string `json:"output"`
		Mode          string `json:"mode"`
		FellBack      bool   `json:"fell_back"`
		BackgroundHex string `json:"background_hex"`
		Stats         struct {
			Transparent int `json:"transparent"`
			Kept        int `json:"kept"`
		} `json:"stats"`
	}
	toolResult(t, callTool(t, s, "image_remove_background", map[string]interface{}{"path": path}), &res)

	assert.Equal(t, out, res.Output)
	assert.False(t, res.FellBack)
	assert.Equal(t, "colored", res.Mode)
	assert.Equal(t, "#00ff00", res.BackgroundHex)
	assert.Equal(t, 20*20, res.Stats.Kept)
	assert.Equal(t, 60*60-20*20, res.Stats.Transparent)
	assert.Equal(t, 0, s.cache.Len(), "output path evicted")

	var px struct {
		RGBA struct {
			A int `json:"a"`
		} `json:"rgba"`
	}
	toolResult(t, callTool(t, s, "image_sample_color", map[string]interface{}{"path": out, "x": 0, "y": 0}), &px)
	assert.Zero(t, px.RGBA.A, "sampling the output sees the new file")
}

func TestHandleToolsCall_RemoveBackground_Overrides(t *testing.T) {
	path := createGreenScreen(t, 30)
	out := filepath.Join(t.TempDir(), "custom.png")

	var res struct {
		Output   string `json:"output"`
		Softened bool   `json:"softened"`
		Stats    struct {
			Transparent int `json:"transparent"`
		} `json:"stats"`
	}
	toolResult(t, callTool(t, newTestServer(), "image_remove_background", map[string]interface{}{
		"path":            path,
		"output_path":     out,
		"mode":            "colored",
		"use_hsv":         false,
		"color_tolerance": 1,
		"edge_feathering": 0,
		"soften_sigma":    0.5,
	}), &res)

	assert.Equal(t, out, res.Output)
	assert.True(t, res.Softened)
	assert.Equal(t, 30*30-10*10, res.Stats.Transparent)
	assert.FileExists(t, out)
}

func TestHandleToolsCall_RemoveBackground_FallBack(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "broken.png")
	require.NoError(t, os.WriteFile(in, []byte("garbage"), 0o644))

	var res struct {
		FellBack bool   `json:"fell_back"`
		Error    string `json:"error"`
		Output   string `json:"output"`
	}
	toolResult(t, callTool(t, newTestServer(), "image_remove_background", map[string]interface{}{"path": in}), &res)

	assert.True(t, res.FellBack)
	assert.NotEmpty(t, res.Error)
	assert.Equal(t, []byte("garbage"), mustReadFile(t, res.Output))
}

func TestHandleToolsCall_RemoveBackground_BadOverrides(t *testing.T) {
	path := createGreenScreen(t, 30)
	s := newTestServer()

	for _, args := range []map[string]interface{}{
		{"path": path, "max_alpha": 300},
		{"path": path, "min_alpha": 200, "max_alpha": 100},
		{"path": path, "color_tolerance": -3},
		{"path": path, "mode": "blue"},
		{"path": path, "soften_sigma": -1},
	} {
		resp := callTool(t, s, "image_remove_background", args)
		require.NotNil(t, resp.Error, "%v", args)
		assert.Equal(t, -32602, resp.Error.Code, "%v", args)
	}
}

func TestRemoveBackgroundArgs_LightModeFeathering(t *testing.T) {
	mode := "light"
	a := removeBackgroundArgs{Mode: &mode}
	got, err := a.settings(DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, 2.0, got.Options.EdgeFeathering)

	fw := 5.0
	a.EdgeFeathering = &fw
	got, err = a.settings(DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, 5.0, got.Options.EdgeFeathering)
}

func TestHandleToolsCall_AnalyzeTransparency(t *testing.T) {
	path := createGreenScreen(t, 60)
	s := newTestServer()

	var removed struct {
		Output string `json:"output"`
	}
	toolResult(t, callTool(t, s, "image_remove_background", map[string]interface{}{"path": path}), &removed)

	var report struct {
		Analysis struct {
			TransparentPercentage float64 `json:"transparent_percentage"`
			DominantFamily        string  `json:"dominant_family"`
		} `json:"analysis"`
		Evaluation struct {
			Grade string `json:"grade"`
			Scores struct {
				Total int `json:"total"`
			} `json:"scores"`
		} `json:"evaluation"`
	}
	toolResult(t, callTool(t, s, "image_analyze_transparency", map[string]interface{}{"path": removed.Output}), &report)

	assert.InDelta(t, 88.89, report.Analysis.TransparentPercentage, 0.01)
	assert.Equal(t, "red", report.Analysis.DominantFamily)
	assert.Equal(t, 90, report.Evaluation.Scores.Total)
	assert.Equal(t, "A+", report.Evaluation.Grade)
}

func TestHandleToolsCall_Errors(t *testing.T) {
	s := newTestServer()

	resp := callTool(t, s, "image_crop", map[string]interface{}{"path": "/x.png"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32602, resp.Error.Code)

	resp = callTool(t, s, "image_load", map[string]interface{}{})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32602, resp.Error.Code)
	assert.Contains(t, resp.Error.Data, "path is required")

	resp = callTool(t, s, "image_load", map[string]interface{}{"path": "/nonexistent/image.png"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32000, resp.Error.Code)

	resp = s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: json.RawMessage(`[1,2]`)})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32602, resp.Error.Code)
}

func mustReadFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}
