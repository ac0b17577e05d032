package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newServer starts a test server answering every request with status and body.
func newServer(t *testing.T, status int, body string, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const googleParis = `{"status":"OK","results":[{"formatted_address":"Paris, France",
	"geometry":{"location":{"lat":48.8566,"lng":2.3522}}}]}`

const nominatimBerlin = `[{"lat":"52.5200","lon":"13.4050","display_name":"Berlin, Deutschland"}]`

// TestGeocodeWithPrimary expects the Google provider to answer when an API key is configured.
func TestGeocodeWithPrimary(t *testing.T) {
	var nominatimCalls int32
	google := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Paris, France", r.URL.Query().Get("address"))
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		w.Write([]byte(googleParis))
	}))
	defer google.Close()
	nominatim := newServer(t, http.StatusOK, nominatimBerlin, &nominatimCalls)

	client := New(Config{APIKey: "secret", GoogleURL: google.URL, NominatimURL: nominatim.URL}, nil, nil)
	res, ok := client.Geocode(context.Background(), "Paris, France")
	require.True(t, ok)
	assert.Equal(t, 48.8566, res.Lat)
	assert.Equal(t, 2.3522, res.Lng)
	assert.Equal(t, "Paris, France", res.Formatted)
	assert.Zero(t, atomic.LoadInt32(&nominatimCalls))
}

// TestGeocodeWithoutKey expects only the free provider to be used without an API key.
func TestGeocodeWithoutKey(t *testing.T) {
	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Berlin", r.URL.Query().Get("q"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte(nominatimBerlin))
	}))
	defer nominatim.Close()

	client := New(Config{NominatimURL: nominatim.URL}, nil, nil)
	res, ok := client.Geocode(context.Background(), "Berlin")
	require.True(t, ok)
	assert.Equal(t, 52.52, res.Lat)
	assert.Equal(t, 13.405, res.Lng)
}

// TestGeocodeFallsBackOnPrimaryError expects the free provider to answer when the primary fails.
func TestGeocodeFallsBackOnPrimaryError(t *testing.T) {
	google := newServer(t, http.StatusInternalServerError, "", nil)
	nominatim := newServer(t, http.StatusOK, nominatimBerlin, nil)

	client := New(Config{APIKey: "secret", GoogleURL: google.URL, NominatimURL: nominatim.URL}, nil, nil)
	res, ok := client.Geocode(context.Background(), "Berlin")
	require.True(t, ok)
	assert.Equal(t, 52.52, res.Lat)
}

// TestGeocodeZeroResultsIsAMiss expects a definite miss of the primary not to be retried.
func TestGeocodeZeroResultsIsAMiss(t *testing.T) {
	var nominatimCalls int32
	google := newServer(t, http.StatusOK, `{"status":"ZERO_RESULTS","results":[]}`, nil)
	nominatim := newServer(t, http.StatusOK, nominatimBerlin, &nominatimCalls)

	client := New(Config{APIKey: "secret", GoogleURL: google.URL, NominatimURL: nominatim.URL}, nil, nil)
	_, ok := client.Geocode(context.Background(), "Atlantis")
	assert.False(t, ok)
	assert.Zero(t, atomic.LoadInt32(&nominatimCalls))
}

// TestGeocodeFailuresAreAbsent expects malformed bodies, error statuses, empty results and
// empty queries to be reported as absent.
func TestGeocodeFailuresAreAbsent(t *testing.T) {
	responses := []struct {
		status int
		body   string
	}{
		{http.StatusOK, "not JSON"},
		{http.StatusOK, "[]"},
		{http.StatusOK, `[{"lat":"north","lon":"2"}]`},
		{http.StatusOK, `[{"lat":"91","lon":"2"}]`},
		{http.StatusTooManyRequests, ""},
	}
	for _, r := range responses {
		nominatim := newServer(t, r.status, r.body, nil)
		client := New(Config{NominatimURL: nominatim.URL}, nil, nil)
		_, ok := client.Geocode(context.Background(), "Paris")
		assert.False(t, ok, "response body: "+r.body)
	}

	client := New(Config{NominatimURL: "http://127.0.0.1:1"}, nil, nil)
	_, ok := client.Geocode(context.Background(), "   ")
	assert.False(t, ok)
}

// TestGeocodeTimeout expects a slow provider to be abandoned after the timeout, even if the
// caller's context is already cancelled.
func TestGeocodeTimeout(t *testing.T) {
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()
	defer close(release)

	client := NewWithProviders(nil, NewNominatim(slow.URL, ""), 50*time.Millisecond, nil, nil)
	start := time.Now()
	_, ok := client.Geocode(context.Background(), "Paris")
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 2*time.Second)

	fast := newServer(t, http.StatusOK, nominatimBerlin, nil)
	client = NewWithProviders(nil, NewNominatim(fast.URL, ""), time.Second, nil, nil)
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok = client.Geocode(cancelled, "Berlin")
	assert.True(t, ok)
}

type recordingObserver struct {
	outcomes []Outcome
}

func (o *recordingObserver) ObserveGeocode(provider string, outcome Outcome, duration time.Duration) {
	o.outcomes = append(o.outcomes, outcome)
}

// TestCircuitBreakerSkipsFailingPrimary expects the primary to be skipped after five
// consecutive failures.
func TestCircuitBreakerSkipsFailingPrimary(t *testing.T) {
	var googleCalls int32
	google := newServer(t, http.StatusServiceUnavailable, "", &googleCalls)
	nominatim := newServer(t, http.StatusOK, nominatimBerlin, nil)

	observer := &recordingObserver{}
	client := NewWithProviders(NewGoogle(google.URL, "secret"), NewNominatim(nominatim.URL, ""), time.Second, nil, observer)
	for i := 0; i < 8; i++ {
		_, ok := client.Geocode(context.Background(), "Berlin")
		assert.True(t, ok)
	}
	assert.Equal(t, int32(5), atomic.LoadInt32(&googleCalls))
	assert.Contains(t, observer.outcomes, OutcomeError)
	assert.Contains(t, observer.outcomes, OutcomeHit)
}

// TestConfiguredTimeoutGovernsProviders expects the providers to wait as long as the client's
// timeout allows instead of a fixed limit of their own.
func TestConfiguredTimeoutGovernsProviders(t *testing.T) {
	assert.Zero(t, NewGoogle("", "secret").httpClient.Timeout)
	assert.Zero(t, NewNominatim("", "").httpClient.Timeout)

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(150 * time.Millisecond)
		w.Write([]byte(nominatimBerlin))
	}))
	defer slow.Close()

	client := New(Config{NominatimURL: slow.URL, Timeout: time.Second}, nil, nil)
	res, ok := client.Geocode(context.Background(), "Berlin")
	require.True(t, ok)
	assert.Equal(t, 52.52, res.Lat)

	client = New(Config{NominatimURL: slow.URL, Timeout: 50 * time.Millisecond}, nil, nil)
	_, ok = client.Geocode(context.Background(), "Berlin")
	assert.False(t, ok)
}
