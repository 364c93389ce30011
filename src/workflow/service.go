// Package workflow holds the reporting workflows: each one walks the entity
// graph from a root entity set through one or more neighbor hops and
// reshapes the result into an export or a statistic.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cwp_reporting/src/datalake"
	"cwp_reporting/src/entity"
	"cwp_reporting/src/model"
	"cwp_reporting/src/state"

	"github.com/rs/zerolog"
)

const (
	defaultBatchSize      = 500
	defaultMaxConcurrency = 4
)

// ErrValueNotDefined is returned when a workflow is invoked without its
// required input.
var ErrValueNotDefined = errors.New("value not defined")

// Service runs workflows against one data lake
type Service struct {
	api            datalake.API
	sets           entity.EntitySets
	batchSize      int
	maxConcurrency int
	log            zerolog.Logger
}

// NewService creates a workflow service. sets must already be resolved.
func NewService(api datalake.API, sets entity.EntitySets, config model.DataLakeConfig, log zerolog.Logger) *Service {
	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	maxConcurrency := config.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = defaultMaxConcurrency
	}
	return &Service{
		api:            api,
		sets:           sets,
		batchSize:      batchSize,
		maxConcurrency: maxConcurrency,
		log:            log,
	}
}

// setID returns the resolved id for kind.
func (s *Service) setID(kind entity.Kind) (string, error) {
	id := s.sets.ID(kind)
	if id == "" {
		return "", fmt.Errorf("%w: %s", entity.ErrEntitySetNotFound, kind)
	}
	return id, nil
}

// setIDs resolves several kinds at once.
func (s *Service) setIDs(kinds ...entity.Kind) (map[entity.Kind]string, error) {
	out := make(map[entity.Kind]string, len(kinds))
	for _, kind := range kinds {
		id, err := s.setID(kind)
		if err != nil {
			return nil, err
		}
		out[kind] = id
	}
	return out, nil
}

// entities loads every row of kind.
func (s *Service) entities(ctx context.Context, kind entity.Kind) ([]model.Entity, error) {
	id, err := s.setID(kind)
	if err != nil {
		return nil, err
	}
	rows, err := s.api.GetEntitySetData(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", kind, err)
	}
	return rows, nil
}

// track logs the start of a workflow and returns a func that logs its end.
func (s *Service) track(ctx context.Context, name string) func(err error) {
	log := s.log
	if id := state.RequestID(ctx); id != "" {
		log = log.With().Str("request_id", id).Logger()
	}
	started := time.Now()
	log.Info().Str("workflow", name).Msg("workflow started")
	return func(err error) {
		event := log.Info()
		if err != nil {
			event = log.Warn().Err(err)
		}
		event.Str("workflow", name).Dur("elapsed", time.Since(started)).Msg("workflow finished")
	}
}

// asEntities turns neighbors into entities so they can root the next join.
func asEntities(neighbors map[string]model.Neighbor) []model.Entity {
	out := make([]model.Entity, 0, len(neighbors))
	for _, n := range neighbors {
		out = append(out, model.Entity{ID: n.ID, Properties: n.Properties})
	}
	sortEntities(out)
	return out
}
