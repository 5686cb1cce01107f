package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// streamGenerationHandler handles GET /api/v1/generations/:id/stream.
// It delivers progress and interaction events as server-sent events and
// closes after the terminal event. Subscribing before the generation is
// submitted is allowed: the queue is created on first touch, so a
// client that reserves its own generation ID never misses early events.
func (s *Server) streamGenerationHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "generation id is not a UUID"})
		return
	}

	ch, cancel := s.bus.Subscribe(id)
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("message", ev)
			return !ev.Terminal()
		}
	})
}
