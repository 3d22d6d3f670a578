package httputil

import (
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
)

// ErrUpstreamDown is returned when a host's breaker is open.
var ErrUpstreamDown = errors.New("upstream unavailable")

// BreakerThreshold is the number of consecutive transport failures that
// opens a host's breaker.
const BreakerThreshold = 5

// Breakers keeps one circuit breaker per upstream host.
//
// Only failures the caller reports as transport failures count against a
// breaker; see [Breakers.Do]. Rate limits and GraphQL errors do not mean the
// host is down.
type Breakers struct {
	threshold int64
	initial   time.Duration
	breakers  map[string]*circuit.Breaker
	mu        sync.RWMutex
}

// NewBreakers creates a breaker set that trips after threshold consecutive
// failures and stays open for initial before probing again.
// Zero values select [BreakerThreshold] and 30 seconds.
func NewBreakers(threshold int, initial time.Duration) *Breakers {
	if threshold <= 0 {
		threshold = BreakerThreshold
	}
	if initial <= 0 {
		initial = 30 * time.Second
	}
	return &Breakers{
		threshold: int64(threshold),
		initial:   initial,
		breakers:  make(map[string]*circuit.Breaker),
	}
}

func (b *Breakers) get(host string) *circuit.Breaker {
	b.mu.RLock()
	breaker, ok := b.breakers[host]
	b.mu.RUnlock()
	if ok {
		return breaker
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if breaker, ok := b.breakers[host]; ok {
		return breaker
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = b.initial
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.MaxElapsedTime = 0
	expBackoff.Reset()

	breaker = circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ConsecutiveTripFunc(b.threshold),
	})
	b.breakers[host] = breaker
	return breaker
}

// Do runs fn under the breaker for rawURL's host.
//
// fn returns two errors: transport is counted against the breaker, result is
// passed through untouched. If the breaker is open, Do returns an error
// wrapping [ErrUpstreamDown] without calling fn.
func (b *Breakers) Do(rawURL string, fn func() (result, transport error)) error {
	host := hostOf(rawURL)
	breaker := b.get(host)

	var result error
	err := breaker.Call(func() error {
		var transport error
		result, transport = fn()
		return transport
	}, 0)
	if errors.Is(err, circuit.ErrBreakerOpen) {
		return fmt.Errorf("circuit breaker open for %s: %w", host, ErrUpstreamDown)
	}
	if err != nil {
		return err
	}
	return result
}

// State reports "open" or "closed" per host, for health output.
func (b *Breakers) State() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	states := make(map[string]string, len(b.breakers))
	for host, breaker := range b.breakers {
		if breaker.Tripped() {
			states[host] = "open"
		} else {
			states[host] = "closed"
		}
	}
	return states
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
