package voice

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/cjrunixx/VeloVoice/backend/internal/model/persona"
)

// Formatter decorates proactive alert text with a persona-specific opener.
// It is safe for concurrent use by many sessions.
type Formatter struct {
	personas persona.Store

	mu  sync.Mutex
	rng *rand.Rand
}

// NewFormatter creates a Formatter drawing from src. A nil src seeds from the
// wall clock.
func NewFormatter(personas persona.Store, src rand.Source) *Formatter {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>1|1)
	}
	return &Formatter{personas: personas, rng: rand.New(src)}
}

// Format returns a uniformly drawn prefix from the persona's pool followed by
// text. Unknown personas use the default persona's pool.
func (f *Formatter) Format(personaID, text string) string {
	pool := persona.Resolve(f.personas, personaID).AlertPrefixes
	if len(pool) == 0 {
		return text
	}

	f.mu.Lock()
	idx := f.rng.IntN(len(pool))
	f.mu.Unlock()

	return pool[idx] + text
}
