package session

import (
	"fmt"
	"sync/atomic"
)

// Generator issues utterance IDs of the form "<sessionId>-utt-<n>". The
// counter is shared across sessions so IDs stay unique process-wide.
type Generator struct {
	counter uint64
}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Next(sessionId string) string {
	n := atomic.AddUint64(&g.counter, 1)
	return fmt.Sprintf("%s-utt-%d", sessionId, n)
}
