// Package bandit provides a minimal multi-armed bandit over rule keys.
//
// The gate does not consult it: candidates are saved in extraction order.
// It is kept as the hook for choosing between competing rules once there is
// reward feedback to drive it.
package bandit

import (
	"math/rand"
	"sort"
	"time"
)

// Simple picks arms uniformly at random and tracks success/failure counts.
// Counts start at 1/1 so a fresh arm has a neutral prior.
type Simple struct {
	success map[string]int
	failure map[string]int
	rng     *rand.Rand
}

// NewSimple creates an empty bandit. A nil rng gets a time-seeded source.
func NewSimple(rng *rand.Rand) *Simple {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simple{
		success: map[string]int{},
		failure: map[string]int{},
		rng:     rng,
	}
}

// AddIfAbsent registers arm with the 1/1 prior.
func (b *Simple) AddIfAbsent(arm string) {
	if _, ok := b.success[arm]; ok {
		return
	}
	b.success[arm] = 1
	b.failure[arm] = 1
}

// Select returns a uniformly random arm, or "" when none are registered.
func (b *Simple) Select() string {
	arms := b.Arms()
	if len(arms) == 0 {
		return ""
	}
	return arms[b.rng.Intn(len(arms))]
}

// Update records a reward for arm, registering it first if needed.
// Positive rewards count as successes, everything else as failures.
func (b *Simple) Update(arm string, reward float64) {
	b.AddIfAbsent(arm)
	if reward > 0 {
		b.success[arm]++
	} else {
		b.failure[arm]++
	}
}

// Counts returns the success and failure counts for arm.
func (b *Simple) Counts(arm string) (success, failure int) {
	return b.success[arm], b.failure[arm]
}

// Arms returns the registered arms in sorted order.
func (b *Simple) Arms() []string {
	arms := make([]string, 0, len(b.success))
	for a := range b.success {
		arms = append(arms, a)
	}
	sort.Strings(arms)
	return arms
}
