// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// PointVertexShader transforms surface points into world space.
//
//go:embed point.vert
var PointVertexShader string

// PointGeometryShader expands each point into a brush quad.
//
//go:embed point.geom
var PointGeometryShader string

// PointFragmentShader shades a brush stroke.
//
//go:embed point.frag
var PointFragmentShader string
