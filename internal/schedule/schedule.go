// Package schedule runs periodic jobs at randomized intervals.
package schedule

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"social-agent/internal/logger"
)

// Job is one periodic task run. Errors are logged; the schedule continues.
type Job func(ctx context.Context) error

// Run executes the job once immediately, then repeatedly after a random
// delay in [lower, upper]. The next timer is armed as soon as the previous
// one fires, so delays are independent of job duration; a tick that fires
// while the previous run is still in flight is skipped. Run blocks until
// ctx is cancelled.
func Run(ctx context.Context, name string, lower, upper time.Duration, job Job) {
	log := logger.With("schedule").With().Str("job", name).Logger()
	if lower > upper {
		lower, upper = upper, lower
	}

	var inFlight atomic.Bool
	launch := func() {
		if !inFlight.CompareAndSwap(false, true) {
			log.Warn().Msg("previous run still in flight, skipping tick")
			return
		}
		go func() {
			defer inFlight.Store(false)
			if err := job(ctx); err != nil {
				log.Error().Err(err).Msg("job run failed")
			}
		}()
	}

	launch()

	timer := time.NewTimer(randomDelay(lower, upper))
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
			launch()
			timer.Reset(randomDelay(lower, upper))
		case <-ctx.Done():
			return
		}
	}
}

func randomDelay(lower, upper time.Duration) time.Duration {
	if upper <= lower {
		return lower
	}
	return lower + time.Duration(rand.Int63n(int64(upper-lower)+1))
}

// Bounds derives the [lower, upper] window around a base interval from
// per-character minute settings, with a floor of one minute.
func Bounds(baseMinutes, lowerMinutes, upperMinutes, defaultBase, defaultBound int) (time.Duration, time.Duration) {
	if baseMinutes <= 0 {
		baseMinutes = defaultBase
	}
	if lowerMinutes <= 0 {
		lowerMinutes = defaultBound
	}
	if upperMinutes <= 0 {
		upperMinutes = defaultBound
	}
	lower := time.Duration(baseMinutes-lowerMinutes) * time.Minute
	upper := time.Duration(baseMinutes+upperMinutes) * time.Minute
	if lower < time.Minute {
		lower = time.Minute
	}
	if upper < lower {
		upper = lower
	}
	return lower, upper
}
