// apps/go-server/internal/metrics/metrics.go
//
// Prometheus metrics for the roulette server.
// Responsibilities:
//   - Own a private registry so tests and multiple servers never collide
//     on the global default one.
//   - Expose typed game counters the HTTP layer bumps.
//   - Serve the registry at GET /metrics via promhttp.

package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const namespace = "roulette"

// Game holds the registry and the counters the HTTP layer bumps.
type Game struct {
	reg *prometheus.Registry

	GamesStarted   prometheus.Counter
	RoundsScored   prometheus.Counter
	PerfectMatches prometheus.Counter
	Throws         prometheus.Counter
	DailySubmits   prometheus.Counter
}

// NewGame registers the game counters on a fresh registry.
func NewGame() *Game {
	reg := prometheus.NewRegistry()
	counter := func(name, help string) prometheus.Counter {
		c := prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
		reg.MustRegister(c)
		return c
	}
	return &Game{
		reg:            reg,
		GamesStarted:   counter("games_started_total", "Games created."),
		RoundsScored:   counter("rounds_scored_total", "Rounds scored, including daily and stateless scoring."),
		PerfectMatches: counter("perfect_matches_total", "Rounds where all three targets were hit."),
		Throws:         counter("throws_total", "Darts scored across all rounds."),
		DailySubmits:   counter("daily_submissions_total", "Daily challenge rounds accepted."),
	}
}

// GaugeFunc registers a gauge read from fn at scrape time. name is the full
// metric name. Registering the same name twice is an error.
func (g *Game) GaugeFunc(name, help string, fn func() float64) error {
	return g.reg.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, fn))
}

// Gatherer exposes the registry for tests and custom exporters.
func (g *Game) Gatherer() prometheus.Gatherer { return g.reg }

// Handler serves the registry in the Prometheus exposition format.
func (g *Game) Handler() http.Handler {
	return promhttp.HandlerFor(g.reg, promhttp.HandlerOpts{
		ErrorLog:      errorLog{},
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// errorLog routes promhttp errors to zerolog.
type errorLog struct{}

func (errorLog) Println(v ...interface{}) {
	log.Warn().Msg("metrics: " + fmt.Sprint(v...))
}
