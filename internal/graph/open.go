package graph

import (
	"context"
	"fmt"
)

// Backends.
const (
	BackendNeo4j  = "neo4j"
	BackendSQLite = "sqlite"
)

// Config selects and configures a backend.
type Config struct {
	Backend    string
	Neo4j      Neo4jConfig
	SQLitePath string
}

// Open connects to the configured backend. Connectivity is verified
// before returning so no write is attempted against an unreachable store.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendNeo4j, "":
		return OpenNeo4j(ctx, cfg.Neo4j)
	case BackendSQLite:
		return OpenSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("graph: unknown backend %q", cfg.Backend)
	}
}
