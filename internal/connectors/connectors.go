// Package connectors provides schema discovery against the connected
// systems. The shipped connectors are fixture-backed: they return the
// catalogs real deployments expose without talking to the network, so runs
// are reproducible and testable offline. DiscoverAll fans out across
// connectors concurrently.
package connectors

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"schemabridge/internal/schema"
)

// Connector discovers the entity/field catalog of one system.
type Connector interface {
	SystemType() schema.SystemType
	DiscoverEntities(ctx context.Context) ([]schema.Entity, []schema.Field, error)
}

// ForSystem returns the connector for a system type.
func ForSystem(st schema.SystemType) (Connector, error) {
	switch st {
	case schema.SystemJackHenry:
		return &JackHenryConnector{}, nil
	case schema.SystemSalesforce:
		return &SalesforceConnector{}, nil
	case schema.SystemSAP:
		return &SAPConnector{}, nil
	default:
		return nil, fmt.Errorf("no connector registered for system %q", st)
	}
}

// DiscoveryResult is one system's discovered catalog.
type DiscoveryResult struct {
	System   schema.SystemType
	Entities []schema.Entity
	Fields   []schema.Field
}

// DiscoverAll runs discovery for every requested system concurrently and
// returns results keyed by system type. Any single failure fails the whole
// call; partial catalogs are not useful to the matcher.
func DiscoverAll(ctx context.Context, logger *zap.Logger, systems ...schema.SystemType) (map[schema.SystemType]*DiscoveryResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	results := make(map[schema.SystemType]*DiscoveryResult, len(systems))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, st := range systems {
		g.Go(func() error {
			conn, err := ForSystem(st)
			if err != nil {
				return err
			}
			entities, fields, err := conn.DiscoverEntities(gctx)
			if err != nil {
				return fmt.Errorf("discovery failed for %s: %w", st, err)
			}
			logger.Info("schema discovered",
				zap.String("system", string(st)),
				zap.Int("entities", len(entities)),
				zap.Int("fields", len(fields)))
			mu.Lock()
			results[st] = &DiscoveryResult{System: st, Entities: entities, Fields: fields}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
