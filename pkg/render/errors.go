package render

import "errors"

var (
	ErrNoFramebuffer     = errors.New("render: no framebuffer bound")
	ErrNoDepthAttachment = errors.New("render: no depth attachment bound")
	ErrNoColorAttachment = errors.New("render: no color attachment bound")
	ErrNoVertexShader    = errors.New("render: no vertex shader set")
	ErrUnknownDepthTest  = errors.New("render: unknown depth test method")
)
