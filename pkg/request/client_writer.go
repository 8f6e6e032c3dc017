package request

import (
	"errors"
	"net/http"
)

// ErrInternalServer is returned to the client when the handler fails unexpectedly.
var ErrInternalServer = errors.New("internal server error")

// ClientWriter is a http.ResponseWriter that remembers the status code written to it.
type ClientWriter struct {
	http.ResponseWriter

	statusCode int
}

// NewClientWriter wraps w. The status code defaults to 200, matching net/http when WriteHeader is never called.
func NewClientWriter(w http.ResponseWriter) *ClientWriter {
	return &ClientWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader implements the http.ResponseWriter interface.
func (c *ClientWriter) WriteHeader(code int) {
	c.statusCode = code
	c.ResponseWriter.WriteHeader(code)
}

// StatusCode is the status code written to the client.
func (c *ClientWriter) StatusCode() int {
	return c.statusCode
}
