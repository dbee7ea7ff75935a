// Package starttime picks the instant a journey starts at.
package starttime

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

// ErrInvalidBounds is returned when the upper bound lies before the lower bound.
var ErrInvalidBounds = errors.New("start time upper bound is before lower bound")

// Generator yields a start time for each journey.
type Generator interface {
	Next() time.Time
}

// Uniform samples whole seconds uniformly from the closed interval [min, max].
type Uniform struct {
	min, max time.Time
	mu       sync.Mutex
	rnd      *rand.Rand
}

// NewUniform creates a Uniform generator. A nil rnd falls back to a randomly seeded source.
func NewUniform(lower, upper time.Time, rnd *rand.Rand) (*Uniform, error) {
	if upper.Before(lower) {
		return nil, fmt.Errorf("%w: %s < %s", ErrInvalidBounds, upper.Format(time.RFC3339), lower.Format(time.RFC3339))
	}
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Uniform{min: lower, max: upper, rnd: rnd}, nil
}

// Next returns min plus a random number of whole seconds, never past max.
func (u *Uniform) Next() time.Time {
	span := int64(u.max.Sub(u.min) / time.Second)

	u.mu.Lock()
	offset := u.rnd.Int64N(span + 1)
	u.mu.Unlock()

	return u.min.Add(time.Duration(offset) * time.Second)
}

// Fixed always returns the same instant.
type Fixed time.Time

// Next returns the fixed instant.
func (f Fixed) Next() time.Time {
	return time.Time(f)
}
