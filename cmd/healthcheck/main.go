// Command healthcheck checks the repofeed health endpoint from inside a
// scratch container, where no shell or curl is available. It exits 0 when the
// server answers {"status":"ok"} and 1 otherwise.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"time"
)

var errUnhealthy = errors.New("server reported unhealthy")

const (
	defaultAddr    = "127.0.0.1:8080"
	healthPath     = "/api/v1/health"
	requestTimeout = 2 * time.Second
	maxBodyBytes   = 4 << 10
)

func main() {
	os.Exit(check())
}

func check() int {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := checkHealth(ctx, healthURL(os.Getenv("REPOFEED_LISTEN_ADDR"))); err != nil {
		return 1
	}
	return 0
}

type healthBody struct {
	Status string `json:"status"`
}

// checkHealth requires a 200 answer whose body reports status ok.
func checkHealth(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errUnhealthy
	}

	var body healthBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return err
	}
	if body.Status != "ok" {
		return errUnhealthy
	}
	return nil
}

// healthURL points the check at loopback. The server may bind the wildcard
// address, but the check runs in the same container.
func healthURL(listenAddr string) string {
	host, port, err := net.SplitHostPort(listenAddr)
	if err != nil || port == "" {
		return "http://" + defaultAddr + healthPath
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + healthPath
}
