package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ironsheep/bgremove-mcp/internal/bgremove"
	"github.com/ironsheep/bgremove-mcp/internal/imaging"
	"github.com/ironsheep/bgremove-mcp/internal/pipeline"
	"github.com/ironsheep/bgremove-mcp/internal/quality"
)

// errInvalidArgs marks argument errors so they map to -32602.
var errInvalidArgs = errors.New("invalid arguments")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_remove_background").
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
// Bad arguments return code -32602; tool execution errors return -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Warn("tool failed", zap.String("tool", params.Name), zap.Error(err))
		if errors.Is(err, errInvalidArgs) {
			return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
		}
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
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)
	case "image_sample_color":
		return s.handleImageSampleColor(args)
	case "image_sample_colors_multi":
		return s.handleImageSampleColorsMulti(args)
	case "image_detect_background":
		return s.handleDetectBackground(args)
	case "image_remove_background":
		return s.handleRemoveBackground(args)
	case "image_analyze_transparency":
		return s.handleAnalyzeTransparency(args)
	default:
		return nil, fmt.Errorf("%w: unknown tool: %s", errInvalidArgs, name)
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments and requires a path.
func decodeArgs(args json.RawMessage, v interface{ path() string }) error {
	if len(args) == 0 {
		args = []byte("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	if v.path() == "" {
		return fmt.Errorf("%w: path is required", errInvalidArgs)
	}
	return nil
}

type pathArgs struct {
	Path string `json:"path"`
}

func (a *pathArgs) path() string { return a.Path }

// === Image Information ===

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// === Color Sampling ===

type imageSampleColorArgs struct {
	pathArgs
	X int `json:"x"`
	Y int `json:"y"`
}

func (s *Server) handleImageSampleColor(args json.RawMessage) (interface{}, error) {
	var a imageSampleColorArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	buf, err := s.cache.LoadBuffer(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.SampleColor(buf, a.X, a.Y)
}

type imageSampleColorsMultiArgs struct {
	pathArgs
	Points []struct {
		X     int    `json:"x"`
		Y     int    `json:"y"`
		Label string `json:"label,omitempty"`
	} `json:"points"`
	Reference string `json:"reference,omitempty"`
}

func (s *Server) handleImageSampleColorsMulti(args json.RawMessage) (interface{}, error) {
	var a imageSampleColorsMultiArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if len(a.Points) == 0 {
		return nil, fmt.Errorf("%w: at least one point is required", errInvalidArgs)
	}

	var ref *bgremove.Color
	if a.Reference != "" {
		c, err := bgremove.ParseHex(a.Reference)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
		}
		ref = &c
	}

	buf, err := s.cache.LoadBuffer(a.Path)
	if err != nil {
		return nil, err
	}

	points := make([]imaging.LabeledPoint, len(a.Points))
	for i, p := range a.Points {
		points[i] = imaging.LabeledPoint{X: p.X, Y: p.Y, Label: p.Label}
	}
	return imaging.SampleColorsMulti(buf, points, ref)
}

// === Background Detection ===

type detectBackgroundArgs struct {
	pathArgs
	Mode        string `json:"mode,omitempty"`
	SampleWidth int    `json:"sample_width,omitempty"`
}

// backgroundResult is the JSON view of an estimate.
type backgroundResult struct {
	Mode       bgremove.Mode  `json:"mode"`
	Hex        string         `json:"hex"`
	RGB        bgremove.Color `json:"rgb"`
	HSV        bgremove.HSV   `json:"hsv"`
	Count      int            `json:"count"`
	Samples    int            `json:"samples"`
	Confidence float64        `json:"confidence"`
}

func newBackgroundResult(mode bgremove.Mode, est bgremove.Estimate) backgroundResult {
	return backgroundResult{
		Mode:       mode,
		Hex:        est.Color.Hex(),
		RGB:        est.Color,
		HSV:        bgremove.RGBToHSV(est.Color),
		Count:      est.Count,
		Samples:    est.Samples,
		Confidence: est.Confidence(),
	}
}

func (s *Server) handleDetectBackground(args json.RawMessage) (interface{}, error) {
	var a detectBackgroundArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	mode, err := bgremove.ParseMode(a.Mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}

	opts := s.Settings().Options
	if a.SampleWidth > 0 {
		opts.SampleWidth = a.SampleWidth
	}
	remover, err := bgremove.NewRemover(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}

	buf, err := s.cache.LoadBuffer(a.Path)
	if err != nil {
		return nil, err
	}
	if mode == bgremove.ModeAuto {
		mode = bgremove.DetectMode(buf)
	}
	return newBackgroundResult(mode, remover.Detect(buf, mode)), nil
}

// === Background Removal ===

type removeBackgroundArgs struct {
	pathArgs
	OutputPath          string   `json:"output_path,omitempty"`
	Mode                *string  `json:"mode,omitempty"`
	ColorTolerance      *float64 `json:"color_tolerance,omitempty"`
	BrightnessThreshold *float64 `json:"brightness_threshold,omitempty"`
	PreserveDarkContent *bool    `json:"preserve_dark_content,omitempty"`
	UseHSV              *bool    `json:"use_hsv,omitempty"`
	Threshold           *float64 `json:"threshold,omitempty"`
	Tolerance           *float64 `json:"tolerance,omitempty"`
	EdgeFeathering      *float64 `json:"edge_feathering,omitempty"`
	MinAlpha            *int     `json:"min_alpha,omitempty"`
	MaxAlpha            *int     `json:"max_alpha,omitempty"`
	Aggressive          *bool    `json:"aggressive,omitempty"`
	SoftenSigma         *float64 `json:"soften_sigma,omitempty"`
}

// settings overlays the call's overrides on the server defaults.
func (a *removeBackgroundArgs) settings(base Settings) (Settings, error) {
	o := &base.Options
	if a.Mode != nil {
		mode, err := bgremove.ParseMode(*a.Mode)
		if err != nil {
			return base, err
		}
		o.Mode = mode
		// The light variant feathers a narrower band unless told otherwise.
		if mode == bgremove.ModeLight && a.EdgeFeathering == nil {
			o.EdgeFeathering = bgremove.LightOptions().EdgeFeathering
		}
	}
	if a.ColorTolerance != nil {
		o.ColorTolerance = *a.ColorTolerance
	}
	if a.BrightnessThreshold != nil {
		o.BrightnessThreshold = *a.BrightnessThreshold
	}
	if a.PreserveDarkContent != nil {
		o.PreserveDarkContent = *a.PreserveDarkContent
	}
	if a.UseHSV != nil {
		o.Metric = bgremove.MetricRGB
		if *a.UseHSV {
			o.Metric = bgremove.MetricHSV
		}
	}
	if a.Threshold != nil {
		o.Threshold = *a.Threshold
	}
	if a.Tolerance != nil {
		o.Tolerance = *a.Tolerance
	}
	if a.EdgeFeathering != nil {
		o.EdgeFeathering = *a.EdgeFeathering
	}
	if a.MinAlpha != nil {
		if *a.MinAlpha < 0 || *a.MinAlpha > 255 {
			return base, fmt.Errorf("min_alpha %d out of range 0-255", *a.MinAlpha)
		}
		o.MinAlpha = uint8(*a.MinAlpha)
	}
	if a.MaxAlpha != nil {
		if *a.MaxAlpha < 0 || *a.MaxAlpha > 255 {
			return base, fmt.Errorf("max_alpha %d out of range 0-255", *a.MaxAlpha)
		}
		o.MaxAlpha = uint8(*a.MaxAlpha)
	}
	if a.Aggressive != nil {
		o.Aggressive = *a.Aggressive
	}
	if a.SoftenSigma != nil {
		base.SoftenSigma = *a.SoftenSigma
	}
	return base, nil
}

// removeResult is a pipeline report plus display-friendly background fields.
type removeResult struct {
	*pipeline.Report
	BackgroundHex string  `json:"background_hex,omitempty"`
	Confidence    float64 `json:"confidence"`
}

func (s *Server) handleRemoveBackground(args json.RawMessage) (interface{}, error) {
	var a removeBackgroundArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	settings, err := a.settings(s.Settings())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}

	p, err := pipeline.New(settings.Options,
		pipeline.WithSoften(settings.SoftenSigma),
		pipeline.WithTimeout(settings.Timeout),
		pipeline.WithLogger(s.log),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}

	rep, err := p.RemoveFile(context.Background(), a.Path, a.OutputPath)
	if rep != nil {
		// The output file was replaced; drop any stale decoded copy.
		s.cache.Evict(rep.Output)
	}
	if err != nil && !errors.Is(err, pipeline.ErrFellBack) {
		return nil, err
	}

	res := removeResult{Report: rep}
	if !rep.FellBack {
		res.BackgroundHex = rep.Background.Color.Hex()
		res.Confidence = rep.Background.Confidence()
	}
	return res, nil
}

// === Quality Analysis ===

func (s *Server) handleAnalyzeTransparency(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	buf, err := s.cache.LoadBuffer(a.Path)
	if err != nil {
		return nil, err
	}
	return quality.Assess(buf)
}
