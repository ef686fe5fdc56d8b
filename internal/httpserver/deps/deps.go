package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/atlas/internal/httpserver/mw"
	"github.com/MrSnakeDoc/atlas/internal/index"
	"github.com/MrSnakeDoc/atlas/internal/logger"
	"github.com/MrSnakeDoc/atlas/internal/scheduler"
)

// ReportSource exposes the outcome of the last compilation attempt.
type ReportSource interface {
	LastReport() *scheduler.Report
}

type Deps struct {
	Logger        logger.Logger
	StartTime     time.Time
	Version       string
	Commit        string
	BuildDate     string
	GoVersion     string
	AllowedHosts  []string            // Host headers allowed on admin routes
	AllowedCIDRS  []string            // IPs allowed to access readyz/infra/reload
	TrustProxy    bool                // true if running behind a trusted reverse proxy (e.g., cloudflared)
	Index         *index.CatalogIndex // Last good compiled catalog
	Reports       ReportSource        // nil when no reloader runs
	RedisClient   *redis.Client       // nil when Redis is disabled
	ReloadTrigger chan struct{}       // Channel to trigger manual recompilation
	RateLimit     mw.RateLimitConfig  // Applied to /api routes
}
