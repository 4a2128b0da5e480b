package main

import (
	"testing"

	"github.com/rickgao/bitcoin-explorer/internal/config"
)

func TestFeedURLFromConfig(t *testing.T) {
	tests := []struct {
		addr string
		path string
		want string
	}{
		{":3030", "/ws", "ws://localhost:3030/ws"},
		{"127.0.0.1:8080", "/live", "ws://127.0.0.1:8080/live"},
	}

	for _, tt := range tests {
		got := feedURLFromConfig(config.ServerConfig{ListenAddr: tt.addr, WSPath: tt.path})
		if got != tt.want {
			t.Errorf("feedURLFromConfig(%q, %q) = %q, want %q", tt.addr, tt.path, got, tt.want)
		}
	}
}
