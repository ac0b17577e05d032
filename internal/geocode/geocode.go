// Package geocode turns a free-form place query into coordinates. Lookups are best effort: every
// failure, including a timeout, is reported as a miss and never as an error.
package geocode

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a whole lookup, including a fallback to the free provider.
const DefaultTimeout = 5 * time.Second

// Result is a successful lookup.
type Result struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Formatted string  `json:"formatted"`
}

// errNoResult means the provider answered but knows no place matching the query.
var errNoResult = errors.New("no result")

// Provider is a third-party geocoding service.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, query string) (Result, error)
}

// Outcome labels a finished lookup for metrics.
type Outcome string

const (
	OutcomeHit   Outcome = "hit"
	OutcomeMiss  Outcome = "miss"
	OutcomeError Outcome = "error"
)

// Observer is notified about every provider call.
type Observer interface {
	ObserveGeocode(provider string, outcome Outcome, duration time.Duration)
}

// Config configures a Client.
type Config struct {
	// APIKey selects the Google provider as primary. Without it only the free provider is used.
	APIKey    string
	UserAgent string
	Timeout   time.Duration
	// GoogleURL and NominatimURL override the provider endpoints, e.g. in tests.
	GoogleURL    string
	NominatimURL string
}

// Client looks up coordinates with a primary provider and falls back to a free one.
type Client struct {
	primary  Provider
	fallback Provider
	breaker  *gobreaker.CircuitBreaker
	timeout  time.Duration
	log      *zap.Logger
	observer Observer
}

// New creates a client from the configuration. The observer may be nil.
func New(cfg Config, log *zap.Logger, observer Observer) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	var primary Provider
	if cfg.APIKey != "" {
		primary = NewGoogle(cfg.GoogleURL, cfg.APIKey)
	}
	return NewWithProviders(primary, NewNominatim(cfg.NominatimURL, cfg.UserAgent), timeout, log, observer)
}

// NewWithProviders creates a client from explicit providers. primary may be nil.
func NewWithProviders(primary, fallback Provider, timeout time.Duration, log *zap.Logger, observer Observer) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		primary:  primary,
		fallback: fallback,
		timeout:  timeout,
		log:      log,
		observer: observer,
	}
	if primary != nil {
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        primary.Name(),
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, errNoResult)
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				log.Warn("Geocoder circuit breaker state changed",
					zap.String("provider", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		})
	}
	return c
}

// Geocode looks up the query. It returns false if no provider produced coordinates within the
// timeout. The timeout applies regardless of the caller's context.
func (c *Client) Geocode(ctx context.Context, query string) (Result, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{}, false
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	if c.primary != nil {
		res, err := c.lookupPrimary(ctx, query)
		if err == nil {
			return res, true
		}
		if errors.Is(err, errNoResult) {
			return Result{}, false
		}
		c.log.Debug("Primary geocoder failed, using fallback",
			zap.String("provider", c.primary.Name()), zap.Error(err))
	}
	res, err := c.lookup(ctx, c.fallback, query)
	if err != nil {
		if !errors.Is(err, errNoResult) {
			c.log.Debug("Geocoding failed", zap.String("provider", c.fallback.Name()), zap.Error(err))
		}
		return Result{}, false
	}
	return res, true
}

func (c *Client) lookupPrimary(ctx context.Context, query string) (Result, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.lookup(ctx, c.primary, query)
	})
	if err != nil {
		return Result{}, err
	}
	return out.(Result), nil
}

func (c *Client) lookup(ctx context.Context, p Provider, query string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	start := time.Now()
	res, err := p.Lookup(ctx, query)
	if c.observer != nil {
		outcome := OutcomeHit
		switch {
		case errors.Is(err, errNoResult):
			outcome = OutcomeMiss
		case err != nil:
			outcome = OutcomeError
		}
		c.observer.ObserveGeocode(p.Name(), outcome, time.Since(start))
	}
	return res, err
}

// validCoordinates rejects values outside the range of latitude and longitude.
func validCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
