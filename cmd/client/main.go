package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	apimodel "gitlab.com/dirk.krummacker/contacts-globe/pkg/model"
)

// Triggers enrichment batches for a user until no record is missing coordinates anymore, and
// prints how long every batch took. Meant to be run by cron or by hand after an import.
//
// Usage example on the command line:
// > go run main.go -user=u1
// > go run main.go -url=http://contacts.internal:8080 -user=u1 -kinds=trips -max-batches=5
func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the service")
	user := flag.String("user", "", "the user whose records are enriched")
	kinds := flag.String("kinds", "contacts,trips", "comma separated kinds to enrich")
	maxBatches := flag.Int("max-batches", 100, "upper bound of batches per kind")
	flag.Parse()

	if *user == "" {
		fmt.Println("missing -user")
		os.Exit(2)
	}

	fmt.Println()
	fmt.Println("  Kind       Batch  Enriched  Remaining        ms")
	fmt.Println("---------------------------------------------------")
	failed := false
	for _, kind := range splitKinds(*kinds) {
		remaining, err := enrichUntilDone(*baseURL, *user, kind, *maxBatches)
		if err != nil {
			fmt.Println("enrichment failed:", err)
			failed = true
			continue
		}
		if remaining > 0 {
			fmt.Printf("%d %s still without coordinates; they are retried on the next run\n", remaining, kind)
		}
	}
	if failed {
		os.Exit(1)
	}
}

// enrichUntilDone calls the enrichment endpoint of a kind until it reports nothing remaining, a
// batch makes no progress, or maxBatches is reached. It returns the last remaining count.
func enrichUntilDone(baseURL, user, kind string, maxBatches int) (int, error) {
	requestURL := fmt.Sprintf("%s/enrich/%s", baseURL, kind)
	remaining := 0
	for batch := 1; batch <= maxBatches; batch++ {
		result, duration, err := sendEnrichRequest(requestURL, user)
		if err != nil {
			return remaining, err
		}
		fmt.Printf("  %-10s%6d%10d%11d%10d\n", kind, batch, result.Enriched, result.Remaining, duration/int64(time.Millisecond))
		remaining = result.Remaining
		// Records the geocoder cannot place stay pending; stop once a batch places none.
		if remaining == 0 || result.Enriched == 0 {
			return remaining, nil
		}
	}
	return remaining, nil
}

func sendEnrichRequest(requestURL string, user string) (apimodel.EnrichResult, int64, error) {
	var result apimodel.EnrichResult
	req, err := http.NewRequest(http.MethodPost, requestURL, nil)
	if err != nil {
		return result, 0, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("X-User-Id", user)
	before := time.Now().UnixNano()
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return result, 0, fmt.Errorf("error making http request: %w", err)
	}
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return result, 0, fmt.Errorf("could not read response body: %w", err)
	}
	after := time.Now().UnixNano()
	if res.StatusCode != http.StatusOK {
		return result, 0, fmt.Errorf("%s answered %d: %s", requestURL, res.StatusCode, resBody)
	}
	if err := json.Unmarshal(resBody, &result); err != nil {
		return result, 0, fmt.Errorf("could not unmarshal JSON: %w", err)
	}
	return result, after - before, nil
}

func splitKinds(kinds string) []string {
	var result []string
	for _, kind := range strings.Split(kinds, ",") {
		if kind = strings.TrimSpace(kind); kind != "" {
			result = append(result, kind)
		}
	}
	return result
}
