package fetch

import (
	"math/rand"
	"sync"
)

// Identity rotates the client identity presented to the upstream site.
type Identity struct {
	userAgents []string
	mu         sync.Mutex
	rng        *rand.Rand
}

func NewIdentity(seed int64) *Identity {
	return &Identity{
		userAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		rng: rand.New(rand.NewSource(seed)),
	}
}

// UserAgent returns a random user agent string.
func (i *Identity) UserAgent() string {
	if len(i.userAgents) == 0 {
		return ""
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.userAgents[i.rng.Intn(len(i.userAgents))]
}
