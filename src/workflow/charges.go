package workflow

import (
	"context"

	"cwp_reporting/src/aggregate"
	"cwp_reporting/src/entity"
	"cwp_reporting/src/model"
)

const (
	fieldArrestCharge = "arrestCharge"
	fieldCourtCharge  = "courtCharge"
)

// ChargeStats counts charges by name across all diversion plans
type ChargeStats struct {
	Plans         int            `json:"plans"`
	ChargeEvents  int            `json:"chargeEvents"`
	ArrestCharges map[string]int `json:"arrestCharges"`
	CourtCharges  map[string]int `json:"courtCharges"`
}

// ChargeStats walks diversion plans to their charge events and counts the
// arrest and court charges behind them. A charge is counted once per charge
// event that references it.
func (s *Service) ChargeStats(ctx context.Context) (stats *ChargeStats, err error) {
	done := s.track(ctx, "charge_stats")
	defer func() { done(err) }()

	sets, err := s.setIDs(entity.ChargeEvent, entity.ArrestCharge, entity.CourtCharge)
	if err != nil {
		return nil, err
	}

	plans, err := s.entities(ctx, entity.DiversionPlan)
	if err != nil {
		return nil, err
	}

	events, err := s.searchNeighbors(ctx, entity.DiversionPlan, aggregate.IDs(plans), entity.ChargeEvent)
	if err != nil {
		return nil, err
	}
	chargeEvents := asEntities(aggregate.Neighbors(events, sets[entity.ChargeEvent]))

	charges, err := gather(ctx, "charge_stats_events", aggregate.IDs(chargeEvents), map[string]branch{
		fieldArrestCharge: s.neighborsOf(entity.ChargeEvent, entity.ArrestCharge),
		fieldCourtCharge:  s.neighborsOf(entity.ChargeEvent, entity.CourtCharge),
	})
	if err != nil {
		return nil, err
	}

	records := aggregate.Join(chargeEvents, []aggregate.Partition{
		{Field: fieldArrestCharge, EntitySetID: sets[entity.ArrestCharge], Cardinality: aggregate.One},
		{Field: fieldCourtCharge, EntitySetID: sets[entity.CourtCharge], Cardinality: aggregate.One},
	}, charges[fieldArrestCharge], charges[fieldCourtCharge])
	sorted := aggregate.Sorted(chargeEvents, records)

	return &ChargeStats{
		Plans:         len(plans),
		ChargeEvents:  len(chargeEvents),
		ArrestCharges: aggregate.CountBy(sorted, chargeName(fieldArrestCharge)),
		CourtCharges:  aggregate.CountBy(sorted, chargeName(fieldCourtCharge)),
	}, nil
}

func chargeName(field string) func(*aggregate.Record) (string, bool) {
	return func(r *aggregate.Record) (string, bool) {
		n, ok := r.One(field)
		if !ok {
			return "", false
		}
		name := chargeLabel(n)
		return name, name != ""
	}
}

// chargeLabel prefers the charge name and falls back to its description.
func chargeLabel(n model.Neighbor) string {
	if name := n.Properties.FirstString(entity.FQNChargeName); name != "" {
		return name
	}
	return n.Properties.FirstString(entity.FQNDescription)
}
