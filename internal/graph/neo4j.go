package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jConfig holds Bolt connection settings.
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string
}

// Neo4jStore implements Store over the Bolt protocol using Cypher.
// Each call runs in its own session.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
}

var _ Store = (*Neo4jStore)(nil)

// OpenNeo4j connects and verifies connectivity. An empty username
// means an unauthenticated connection.
func OpenNeo4j(ctx context.Context, cfg Neo4jConfig) (*Neo4jStore, error) {
	auth := neo4j.NoAuth()
	if cfg.Username != "" {
		auth = neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth)
	if err != nil {
		return nil, fmt.Errorf("graph: create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("graph: connect %s: %w", cfg.URI, err)
	}
	return &Neo4jStore{driver: driver, database: cfg.Database}, nil
}

// Query runs a Cypher statement and collects all records.
func (s *Neo4jStore) Query(ctx context.Context, query string, params map[string]any) ([]Row, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		row := make(Row, len(rec.Keys))
		for i, k := range rec.Keys {
			row[k] = rec.Values[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Reset detaches and deletes every node labelled project.
func (s *Neo4jStore) Reset(ctx context.Context, project string) error {
	q, err := resetCypher(project)
	if err != nil {
		return err
	}
	if _, err := s.Query(ctx, q, nil); err != nil {
		return fmt.Errorf("graph: reset %s: %w", project, err)
	}
	return nil
}

// CreateNode runs CREATE with the property map as a single parameter.
func (s *Neo4jStore) CreateNode(ctx context.Context, project, kind string, props map[string]any) error {
	q, err := createNodeCypher(project, kind)
	if err != nil {
		return err
	}
	if _, err := s.Query(ctx, q, map[string]any{"props": props}); err != nil {
		return fmt.Errorf("graph: create %s: %w", kind, err)
	}
	return nil
}

// MergeNode runs MERGE keyed on ref.
func (s *Neo4jStore) MergeNode(ctx context.Context, project string, ref NodeRef) error {
	q, err := mergeNodeCypher(project, ref)
	if err != nil {
		return err
	}
	if _, err := s.Query(ctx, q, map[string]any{"value": ref.Value}); err != nil {
		return fmt.Errorf("graph: merge %s: %w", ref.Kind, err)
	}
	return nil
}

// MergeEdge matches both endpoints and MERGEs the relationship.
func (s *Neo4jStore) MergeEdge(ctx context.Context, project string, from NodeRef, rel string, to NodeRef) error {
	q, err := mergeEdgeCypher(project, from, rel, to)
	if err != nil {
		return err
	}
	params := map[string]any{"from": from.Value, "to": to.Value}
	if _, err := s.Query(ctx, q, params); err != nil {
		return fmt.Errorf("graph: merge %s edge: %w", rel, err)
	}
	return nil
}

// Tally groups the project's nodes by their label sets.
func (s *Neo4jStore) Tally(ctx context.Context, project string) ([]KindCount, error) {
	q, err := tallyCypher(project)
	if err != nil {
		return nil, err
	}
	rows, err := s.Query(ctx, q, nil)
	if err != nil {
		return nil, fmt.Errorf("graph: tally: %w", err)
	}
	return tallyFromRows(rows, project), nil
}

// Close closes the driver.
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func resetCypher(project string) (string, error) {
	if err := ValidateLabel(project); err != nil {
		return "", err
	}
	return fmt.Sprintf("MATCH (n:`%s`) DETACH DELETE n", project), nil
}

func createNodeCypher(project, kind string) (string, error) {
	if err := ValidateLabel(project); err != nil {
		return "", err
	}
	if err := ValidateLabel(kind); err != nil {
		return "", err
	}
	return fmt.Sprintf("CREATE (n:`%s`:`%s`) SET n = $props", project, kind), nil
}

func mergeNodeCypher(project string, ref NodeRef) (string, error) {
	if err := ValidateLabel(project); err != nil {
		return "", err
	}
	if err := validateRef(ref); err != nil {
		return "", err
	}
	return fmt.Sprintf("MERGE (n:`%s`:`%s` {`%s`: $value})", project, ref.Kind, ref.Key), nil
}

func mergeEdgeCypher(project string, from NodeRef, rel string, to NodeRef) (string, error) {
	if err := ValidateLabel(project); err != nil {
		return "", err
	}
	if err := validateRef(from); err != nil {
		return "", err
	}
	if err := validateRef(to); err != nil {
		return "", err
	}
	if err := ValidateLabel(rel); err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"MATCH (a:`%s`:`%s` {`%s`: $from}) MATCH (b:`%s`:`%s` {`%s`: $to}) MERGE (a)-[:`%s`]->(b)",
		project, from.Kind, from.Key, project, to.Kind, to.Key, rel,
	), nil
}

func tallyCypher(project string) (string, error) {
	if err := ValidateLabel(project); err != nil {
		return "", err
	}
	return fmt.Sprintf("MATCH (n:`%s`) RETURN labels(n) AS labels, count(*) AS count", project), nil
}

// tallyFromRows drops the project label from each label set and merges
// rows that become identical.
func tallyFromRows(rows []Row, project string) []KindCount {
	byLabel := make(map[string]*KindCount)
	for _, row := range rows {
		var kinds []string
		if labels, ok := row["labels"].([]any); ok {
			for _, l := range labels {
				if s, ok := l.(string); ok && s != project {
					kinds = append(kinds, s)
				}
			}
		}
		sort.Strings(kinds)
		count, _ := row["count"].(int64)

		kc := KindCount{Kinds: kinds, Count: count}
		if prev, ok := byLabel[kc.Label()]; ok {
			prev.Count += count
			continue
		}
		byLabel[kc.Label()] = &kc
	}

	out := make([]KindCount, 0, len(byLabel))
	for _, kc := range byLabel {
		out = append(out, *kc)
	}
	sortTally(out)
	return out
}
