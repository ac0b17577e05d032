// Package enrich backfills coordinates of records that have a place but no position yet. A batch
// walks a bounded page of records, geocodes them one after another with a pause between calls,
// and tolerates failures of single records; they are retried by a later batch.
package enrich

import (
	"context"
	"strings"
	"time"

	"gitlab.com/dirk.krummacker/contacts-globe/internal/geocode"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/metrics"
	apimodel "gitlab.com/dirk.krummacker/contacts-globe/pkg/model"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Candidate is a record without coordinates.
type Candidate struct {
	Id      int64
	City    string
	Country string
}

// Query is the place to geocode: city and country separated by a comma, leaving out empty parts.
func (c Candidate) Query() string {
	parts := make([]string, 0, 2)
	for _, p := range []string{c.City, c.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Target is a kind of record that can be enriched.
type Target interface {
	Kind() string
	// Pending returns up to limit records of the user without coordinates, in a stable order.
	Pending(ctx context.Context, userID string, limit int) ([]Candidate, error)
	// Remaining counts all records of the user that Pending would return without a limit.
	Remaining(ctx context.Context, userID string) (int, error)
	// SetCoordinates stores the position of a record of the user and reports whether the
	// record still existed.
	SetCoordinates(ctx context.Context, userID string, id int64, lat, lng float64) (bool, error)
}

// Geocoder resolves a place query. A false result means the place is unknown for now.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (geocode.Result, bool)
}

// Options configure a Runner.
type Options struct {
	BatchSize int
	// Delay is the pause between two consecutive geocoder calls of a batch.
	Delay time.Duration
}

var (
	ContactOptions = Options{BatchSize: 20, Delay: 350 * time.Millisecond}
	TripOptions    = Options{BatchSize: 25, Delay: 300 * time.Millisecond}
)

// Runner runs enrichment batches for one Target.
type Runner struct {
	target   Target
	geocoder Geocoder
	opts     Options
	log      *zap.Logger
	metrics  *metrics.Metrics
	wait     func(ctx context.Context, d time.Duration) error
	batches  singleflight.Group
}

// NewRunner creates a runner. log and m may be nil.
func NewRunner(target Target, geocoder Geocoder, opts Options, log *zap.Logger, m *metrics.Metrics) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		target:   target,
		geocoder: geocoder,
		opts:     opts,
		log:      log.With(zap.String("kind", target.Kind())),
		metrics:  m,
		wait:     sleep,
	}
}

// Run enriches one batch of the user's records. A batch is not cancelled by the caller; it runs
// to the end once started. Geocoding misses never fail the batch. An error is only returned if
// the store cannot be read.
//
// Calls for a user whose batch is still running wait for that batch and share its result, so the
// same page is never geocoded twice at the same time.
func (r *Runner) Run(ctx context.Context, userID string) (apimodel.EnrichResult, error) {
	ctx = context.WithoutCancel(ctx)
	out, err, shared := r.batches.Do(userID, func() (interface{}, error) {
		return r.run(ctx, userID)
	})
	if shared {
		r.log.Debug("Joined running enrichment batch", zap.String("user_id", userID))
	}
	return out.(apimodel.EnrichResult), err
}

func (r *Runner) run(ctx context.Context, userID string) (apimodel.EnrichResult, error) {
	start := time.Now()

	page, err := r.target.Pending(ctx, userID, r.opts.BatchSize)
	if err != nil {
		return apimodel.EnrichResult{}, err
	}
	if len(page) == 0 {
		return apimodel.EnrichResult{}, nil
	}

	var enriched, skipped, calls int
	for _, candidate := range page {
		query := candidate.Query()
		if query == "" {
			continue
		}
		if calls > 0 {
			if err := r.wait(ctx, r.opts.Delay); err != nil {
				return apimodel.EnrichResult{}, err
			}
		}
		calls++

		res, ok := r.geocoder.Geocode(ctx, query)
		if !ok {
			skipped++
			r.log.Debug("No coordinates found", zap.Int64("id", candidate.Id), zap.String("query", query))
			continue
		}
		updated, err := r.target.SetCoordinates(ctx, userID, candidate.Id, res.Lat, res.Lng)
		if err != nil {
			skipped++
			r.log.Warn("Failed to store coordinates", zap.Int64("id", candidate.Id), zap.Error(err))
			continue
		}
		if updated {
			enriched++
		}
	}

	remaining, err := r.target.Remaining(ctx, userID)
	if err != nil {
		return apimodel.EnrichResult{Enriched: enriched}, err
	}
	r.metrics.ObserveBatch(r.target.Kind(), enriched, skipped, remaining)
	r.log.Info("Enrichment batch finished",
		zap.String("user_id", userID),
		zap.Int("candidates", len(page)),
		zap.Int("enriched", enriched),
		zap.Int("skipped", skipped),
		zap.Int("remaining", remaining),
		zap.Duration("duration", time.Since(start)),
	)
	return apimodel.EnrichResult{Enriched: enriched, Remaining: remaining}, nil
}

// sleep pauses for d unless ctx ends first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
