package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ekaya-inc/relgraph/pkg/models"
)

// Sink receives the final relationship records.
type Sink interface {
	Write(ctx context.Context, records []models.RelationshipRecord) error
}

// JSONSink writes records as a JSON array to a file.
type JSONSink struct {
	Path   string
	Logger *zap.Logger
}

func (s *JSONSink) Write(_ context.Context, records []models.RelationshipRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	if err := os.WriteFile(s.Path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.Path, err)
	}
	if s.Logger != nil {
		s.Logger.Info("relationship records written",
			zap.String("path", s.Path),
			zap.Int("records", len(records)))
	}
	return nil
}

// CypherScriptSink writes one MERGE statement per record to a file.
type CypherScriptSink struct {
	Path   string
	Logger *zap.Logger
}

func (s *CypherScriptSink) Write(_ context.Context, records []models.RelationshipRecord) error {
	if err := os.WriteFile(s.Path, []byte(Script(records)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.Path, err)
	}
	if s.Logger != nil {
		s.Logger.Info("cypher script written",
			zap.String("path", s.Path),
			zap.Int("statements", len(records)))
	}
	return nil
}

// MultiSink fans records out to several sinks, stopping at the first error.
type MultiSink []Sink

func (m MultiSink) Write(ctx context.Context, records []models.RelationshipRecord) error {
	for _, s := range m {
		if err := s.Write(ctx, records); err != nil {
			return err
		}
	}
	return nil
}
