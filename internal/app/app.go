// Package app wires configuration, services and transport into one handler.
package app

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iliamunaev/async-styles/assets"
	"github.com/iliamunaev/async-styles/internal/metrics"
	"github.com/iliamunaev/async-styles/internal/middleware"
	"github.com/iliamunaev/async-styles/internal/model"
	"github.com/iliamunaev/async-styles/internal/service/chain"
	"github.com/iliamunaev/async-styles/internal/service/tracker"
	"github.com/iliamunaev/async-styles/internal/service/user"
	httptransport "github.com/iliamunaev/async-styles/internal/transport/http"
)

// DefaultPort is used when PORT is unset.
const DefaultPort = 3000

// PortEnv is the environment variable holding the listening port.
const PortEnv = "PORT"

type Config struct {
	Port int

	// Timing knobs; zero values fall back to the standard timings.
	UserDelay       time.Duration
	ChainDelays     chain.Delays
	ShutdownTimeout time.Duration

	// Files overrides the bundled assets.
	Files fs.FS
	User  model.User
}

// ConfigFromEnv reads the port from getenv. An empty value means DefaultPort.
func ConfigFromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{Port: DefaultPort}
	if v := strings.TrimSpace(getenv(PortEnv)); v != "" {
		p, err := ParsePort(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", PortEnv, err)
		}
		cfg.Port = p
	}
	return cfg, nil
}

// ParsePort accepts a decimal port number in 1..65535.
func ParsePort(s string) (int, error) {
	p, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	if err := ValidatePort(p); err != nil {
		return 0, err
	}
	return p, nil
}

// ValidatePort reports whether p is a usable TCP port.
func ValidatePort(p int) error {
	if p < 1 || p > 65535 {
		return fmt.Errorf("port %d out of range", p)
	}
	return nil
}

type App struct {
	Handler         http.Handler
	Tracker         *tracker.Tracker
	ShutdownTimeout time.Duration
}

func New(cfg Config, logger *slog.Logger) *App {
	if cfg.UserDelay <= 0 {
		cfg.UserDelay = user.DefaultDelay
	}
	if cfg.ChainDelays == (chain.Delays{}) {
		cfg.ChainDelays = chain.DefaultDelays()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	if cfg.Files == nil {
		cfg.Files = assets.FS
	}
	if cfg.User == (model.User{}) {
		cfg.User = user.Default
	}

	tr := &tracker.Tracker{}
	m := metrics.New(tr)

	users := user.New(cfg.User, cfg.UserDelay)
	runner := chain.New(cfg.User, cfg.ChainDelays,
		chain.WithTracker(tr),
		chain.WithObserver(m),
		chain.WithLogger(logger),
	)

	h := httptransport.New(users, runner, cfg.Files, logger)
	r := h.Router(middleware.Logging(logger, m))
	r.Method(http.MethodGet, "/metrics", m.Handler())

	return &App{
		Handler:         r,
		Tracker:         tr,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}
}
