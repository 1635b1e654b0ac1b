package render

import "errors"

var (
	// ErrNilBuffer is returned by New when the color or depth buffer is nil.
	ErrNilBuffer = errors.New("render: nil buffer")
	// ErrBufferSize is returned by New when the dimensions are not positive
	// or a buffer is shorter than width*height.
	ErrBufferSize = errors.New("render: buffer size mismatch")
	// ErrVertexCount is returned by DrawTriangles when the vertex count is
	// not a multiple of 3.
	ErrVertexCount = errors.New("render: vertex count not a multiple of 3")
	// ErrClosed is returned by calls made after Close.
	ErrClosed = errors.New("render: renderer closed")
	// ErrUniformKind is returned when a uniform kind is unknown or used with
	// the wrong setter.
	ErrUniformKind = errors.New("render: wrong uniform kind")
	// ErrUniformValue is returned when a float uniform receives the wrong
	// number of values.
	ErrUniformValue = errors.New("render: wrong uniform value count")
	// ErrGamma is returned when gamma is set to a non-positive value.
	ErrGamma = errors.New("render: gamma must be positive")
	// ErrUnknownName is returned when parsing an enumeration name fails.
	ErrUnknownName = errors.New("render: unknown name")
)
