package rider

import "github.com/somar/dispatch/internal/provider"

// Handler serves the rider app API.
type Handler struct {
	*provider.Container
}

// New creates the rider handler.
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
