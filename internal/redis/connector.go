// Package redis opens the Redis connection used by the catalog store,
// retrying with exponential backoff while the server comes up.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/atlas/internal/logger"
)

// ConnectOptions defines the Redis client and its startup retry policy.
type ConnectOptions struct {
	Addr           string        // Redis address (ex: "localhost:6379")
	User           string        // Optional username
	Password       string        // Optional password
	DB             int           // Redis DB number
	DialTimeout    time.Duration // per-dial timeout
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	PoolSize       int
	ConnectTimeout time.Duration // total time allowed for startup attempts (ex: 30s)
	RetryInterval  time.Duration // first wait between attempts, doubled each time
	MaxWait        time.Duration // cap on the wait between attempts
	PingTimeout    time.Duration // timeout for each ping
	WarnThreshold  int           // attempts logged as warnings before escalating to errors
}

// Validate reports every invalid retry setting at once.
func (o ConnectOptions) Validate() error {
	var errs []error
	if o.Addr == "" {
		errs = append(errs, errors.New("Addr must not be empty"))
	}
	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"ConnectTimeout", o.ConnectTimeout},
		{"RetryInterval", o.RetryInterval},
		{"MaxWait", o.MaxWait},
		{"PingTimeout", o.PingTimeout},
	} {
		if d.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be > 0, got %v", d.name, d.value))
		}
	}
	if o.WarnThreshold < 0 {
		errs = append(errs, fmt.Errorf("WarnThreshold must be >= 0, got %d", o.WarnThreshold))
	}
	return errors.Join(errs...)
}

// connectionLogger handles all Redis connection logging.
type connectionLogger struct {
	log  logger.Logger
	addr string
}

func (cl connectionLogger) start(timeout time.Duration) {
	cl.log.Info("connecting to redis",
		logger.String("addr", cl.addr),
		logger.Duration("timeout", timeout))
}

func (cl connectionLogger) success(attempts int, elapsed time.Duration) {
	if attempts > 1 {
		cl.log.Warn("connected to redis after retry",
			logger.String("addr", cl.addr),
			logger.Int("attempts", attempts),
			logger.Duration("elapsed", elapsed))
		return
	}
	cl.log.Info("connected to redis", logger.String("addr", cl.addr))
}

func (cl connectionLogger) retry(attempt, warnThreshold int, remaining, next time.Duration, err error) {
	fields := []logger.Field{
		logger.String("addr", cl.addr),
		logger.Int("attempt", attempt),
		logger.Duration("next_retry_in", next),
		logger.Error(err),
	}

	switch {
	case remaining < 10*time.Second:
		cl.log.Error("redis still down - retrying but timeout approaching",
			append(fields, logger.Duration("remaining", remaining))...)
	case attempt <= warnThreshold:
		cl.log.Warn("redis connection failed, retrying", fields...)
	default:
		cl.log.Error("redis still unavailable - connection attempts failing", fields...)
	}
}

// Connect creates a client and pings it until it answers, ctx is cancelled,
// or ConnectTimeout elapses. The client is closed on failure.
func Connect(ctx context.Context, opts ConnectOptions, log logger.Logger) (*redis.Client, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid redis options: %w", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.User,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
	})

	if err := waitReady(ctx, client, opts, connectionLogger{log: log, addr: opts.Addr}); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// waitReady runs the ping loop with exponential backoff.
func waitReady(ctx context.Context, client *redis.Client, opts ConnectOptions, cl connectionLogger) error {
	ctx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	cl.start(opts.ConnectTimeout)
	start := time.Now()
	wait := opts.RetryInterval

	for attempt := 1; ; attempt++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, opts.PingTimeout)
		err := client.Ping(pingCtx).Err()
		pingCancel()

		if err == nil {
			cl.success(attempt, time.Since(start))
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			cl.log.Error("redis unavailable - giving up",
				logger.String("addr", cl.addr),
				logger.Int("attempts", attempt),
				logger.Error(err))
			return fmt.Errorf("redis unavailable at %s after %d attempts (timeout: %v): %w",
				cl.addr, attempt, opts.ConnectTimeout, err)

		case <-timer.C:
			cl.retry(attempt, opts.WarnThreshold, timeLeft(ctx), wait, err)
			wait = nextWait(wait, opts.MaxWait)
		}
	}
}

// nextWait doubles wait, capped at maxWait.
func nextWait(wait, maxWait time.Duration) time.Duration {
	wait *= 2
	if wait > maxWait {
		return maxWait
	}
	return wait
}

// timeLeft returns the remaining time before context deadline.
func timeLeft(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0
	}
	return time.Until(deadline)
}
