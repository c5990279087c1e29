// Package server implements the MCP (Model Context Protocol) server for
// background removal.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - image_load: Load image and get metadata
//   - image_sample_color: Get color at pixel
//   - image_sample_colors_multi: Sample several points, optionally measuring
//     their distance from a reference color
//   - image_detect_background: Estimate the background color
//   - image_remove_background: Write a PNG with the background made transparent
//   - image_analyze_transparency: Grade a removal result
//
// Removal defaults come from Settings and can be replaced at runtime with
// SetSettings; each call may override individual fields.
//
// # Image Caching
//
// Decoded images are cached by path for the lifetime of the process. Writing
// a removal result evicts the output path so later calls see the new file.
//
// # Error Handling
//
// Malformed arguments are answered with code -32602 and failed tools with
// -32000. A removal that fell back to copying its input is not an error: the
// result carries fell_back=true and the cause.
package server
