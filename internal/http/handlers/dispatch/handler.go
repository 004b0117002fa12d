package dispatch

import "github.com/somar/dispatch/internal/provider"

// Handler serves the dispatch dashboard API.
type Handler struct {
	*provider.Container
}

// New creates the dispatch handler.
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
