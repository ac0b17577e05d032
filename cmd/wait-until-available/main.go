package main

import (
	"flag"
	"fmt"
	"net/http"
	"time"
)

// Polls the health endpoint of the service until it answers 200, e.g. before integration tests
// run against a freshly started container.
//
// Usage example on the command line:
// > go run main.go -url=http://localhost:8080/healthz
func main() {
	url := flag.String("url", "http://localhost:8080/healthz", "the health endpoint to poll")
	flag.Parse()

	totalWaitTime := 0
	for {
		res, err := http.Get(*url)
		if err == nil {
			res.Body.Close()
			if res.StatusCode == http.StatusOK {
				fmt.Println(res.Status)
				break
			}
			fmt.Println(res.Status)
		} else {
			fmt.Println(err)
		}
		totalWaitTime += 5
		fmt.Printf("Waiting %d seconds", totalWaitTime)
		fmt.Println()
		time.Sleep(5 * time.Second)
	}
}
