package main

import (
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ericogr/saga-combat/internal/constants"
)

func main() {
	addr := os.Getenv(constants.EnvAddr)
	if addr == "" {
		addr = constants.DefaultListenAddress
	}
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + probeHost(addr) + constants.RouteHealthz)
	if err != nil {
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
	os.Exit(0)
}

// probeHost turns a listen address such as ":8080" into a dialable one.
func probeHost(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return strings.TrimPrefix(addr, "http://")
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
