package checkout

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ReferenceGenerator hands out order numbers for display. Numbers only need
// to be unique within one session.
type ReferenceGenerator interface {
	Next() string
}

const orderNumberSpace = 100000

type sessionReferences struct {
	mu     sync.Mutex
	issued map[uint32]struct{}
	random func() uint32
}

// NewSessionReferences returns a generator of "#NNNNN" numbers that never
// repeats a number it already issued.
func NewSessionReferences() ReferenceGenerator {
	return &sessionReferences{
		issued: make(map[uint32]struct{}),
		random: uuidEntropy,
	}
}

func (g *sessionReferences) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.issued) >= orderNumberSpace {
		// every five digit number is taken, fall back to a longer token
		return "#" + uuid.NewString()[:8]
	}

	for {
		n := g.random() % orderNumberSpace
		if _, taken := g.issued[n]; taken {
			continue
		}
		g.issued[n] = struct{}{}
		return fmt.Sprintf("#%05d", n)
	}
}

func uuidEntropy() uint32 {
	id := uuid.New()
	return binary.BigEndian.Uint32(id[:4])
}
