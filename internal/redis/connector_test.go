package redis

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/atlas/internal/logger"
)

func validOptions() ConnectOptions {
	return ConnectOptions{
		Addr:           "127.0.0.1:1",
		ConnectTimeout: 300 * time.Millisecond,
		RetryInterval:  20 * time.Millisecond,
		MaxWait:        50 * time.Millisecond,
		PingTimeout:    50 * time.Millisecond,
		DialTimeout:    50 * time.Millisecond,
	}
}

func TestConnectOptionsValidate(t *testing.T) {
	if err := validOptions().Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	bad := validOptions()
	bad.Addr = ""
	bad.MaxWait = 0
	bad.WarnThreshold = -1

	err := bad.Validate()
	if err == nil {
		t.Fatal("Validate() should fail")
	}
	for _, want := range []string{"Addr", "MaxWait", "WarnThreshold"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %s", err, want)
		}
	}
}

func TestNextWait(t *testing.T) {
	tests := []struct {
		wait, max, want time.Duration
	}{
		{time.Second, 10 * time.Second, 2 * time.Second},
		{4 * time.Second, 10 * time.Second, 8 * time.Second},
		{8 * time.Second, 10 * time.Second, 10 * time.Second},
		{10 * time.Second, 10 * time.Second, 10 * time.Second},
	}

	for _, tt := range tests {
		if got := nextWait(tt.wait, tt.max); got != tt.want {
			t.Errorf("nextWait(%v, %v) = %v, want %v", tt.wait, tt.max, got, tt.want)
		}
	}
}

func TestConnectGivesUp(t *testing.T) {
	start := time.Now()

	client, err := Connect(context.Background(), validOptions(), logger.Nop())
	if err == nil {
		_ = client.Close()
		t.Fatal("Connect() to a closed port should fail")
	}
	if !strings.Contains(err.Error(), "redis unavailable at 127.0.0.1:1") {
		t.Errorf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Connect() took %v, should respect ConnectTimeout", elapsed)
	}
}

func TestConnectRejectsInvalidOptions(t *testing.T) {
	opts := validOptions()
	opts.PingTimeout = 0

	if _, err := Connect(context.Background(), opts, logger.Nop()); err == nil {
		t.Fatal("Connect() should reject invalid options")
	}
}
