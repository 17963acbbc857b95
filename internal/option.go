package internal

import (
	"io"
	"log/slog"

	"github.com/starford/docgraph/internal/graph"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	stdout io.Writer
	logger *slog.Logger
	store  graph.Store
	dryRun bool
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithStdout sets where operator reports (summary, samples, tally) are
// printed. Defaults to os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(a *application) {
		a.stdout = w
	}
}

// WithLogger replaces the logger built from the app config.
func WithLogger(l *slog.Logger) Option {
	return func(a *application) {
		a.logger = l
	}
}

// WithStore writes to an already-open graph store instead of opening one
// from the config. The caller keeps ownership and closes it.
func WithStore(s graph.Store) Option {
	return func(a *application) {
		a.store = s
	}
}

// WithDryRun scans and prints a sample without contacting the graph store.
func WithDryRun(dryRun bool) Option {
	return func(a *application) {
		a.dryRun = dryRun
	}
}
