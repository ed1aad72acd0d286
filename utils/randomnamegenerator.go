package utils

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/Pallinder/go-randomdata"
)

// RandomNameGenerator hands out readable unique names, used to tell websocket
// clients apart in logs. Safe for concurrent use.
type RandomNameGenerator struct {
	lock  sync.Mutex
	taken map[string]struct{}
}

func NewRandomNameGenerator(seed int64) *RandomNameGenerator {
	randomdata.CustomRand(rand.New(rand.NewSource(seed)))
	return &RandomNameGenerator{taken: make(map[string]struct{})}
}

func (rng *RandomNameGenerator) RandomName() string {
	rng.lock.Lock()
	defer rng.lock.Unlock()

	base := strings.ToLower(randomdata.SillyName())
	name := base
	// avoid duplicate names
	for i := 2; ; i++ {
		if _, exists := rng.taken[name]; !exists {
			rng.taken[name] = struct{}{}
			return name
		}
		name = fmt.Sprintf("%s-%d", base, i)
	}
}

func (rng *RandomNameGenerator) Release(name string) {
	rng.lock.Lock()
	defer rng.lock.Unlock()
	delete(rng.taken, name)
}
