package workflow

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"cwp_reporting/src/datalake"
	"cwp_reporting/src/entity"
	"cwp_reporting/src/model"
)

var errBoom = errors.New("boom")

type fakeEdge struct {
	srcSet, srcID string
	dstSet, dstID string
}

// fakeAPI is an in-memory entity graph
type fakeAPI struct {
	mu       sync.Mutex
	sets     entity.EntitySets
	rows     map[string][]model.Entity
	props    map[string]model.Properties
	setOf    map[string]string
	edges    []fakeEdge
	failSet  string
	searches []datalake.NeighborFilter
	queries  []datalake.SearchQuery
}

func newFakeAPI() *fakeAPI {
	sets := entity.EntitySets{}
	for _, kind := range entity.Kinds() {
		sets[kind] = "set_" + string(kind)
	}
	return &fakeAPI{
		sets:  sets,
		rows:  map[string][]model.Entity{},
		props: map[string]model.Properties{},
		setOf: map[string]string{},
	}
}

func (f *fakeAPI) add(kind entity.Kind, id string, props model.Properties) {
	setID := f.sets.ID(kind)
	f.rows[setID] = append(f.rows[setID], model.Entity{ID: id, Properties: props})
	f.props[id] = props
	f.setOf[id] = setID
}

// link adds an edge src -> dst; both ends must already exist.
func (f *fakeAPI) link(srcID, dstID string) {
	f.edges = append(f.edges, fakeEdge{
		srcSet: f.setOf[srcID], srcID: srcID,
		dstSet: f.setOf[dstID], dstID: dstID,
	})
}

func (f *fakeAPI) EntitySetIDs(_ context.Context, names ...string) (map[string]string, error) {
	out := map[string]string{}
	for _, name := range names {
		out[name] = "set_" + name
	}
	return out, nil
}

func (f *fakeAPI) PropertyTypeIDs(_ context.Context, fqns ...string) (map[string]string, error) {
	out := map[string]string{}
	for _, fqn := range fqns {
		out[fqn] = "pt-" + fqn
	}
	return out, nil
}

func (f *fakeAPI) GetEntitySetData(_ context.Context, entitySetID string) ([]model.Entity, error) {
	if entitySetID == f.failSet {
		return nil, errBoom
	}
	return slices.Clone(f.rows[entitySetID]), nil
}

// SearchEntitySetData supports a single date-range constraint on the
// check-in completion date.
func (f *fakeAPI) SearchEntitySetData(_ context.Context, entitySetID string, query datalake.SearchQuery) ([]model.Entity, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()

	var out []model.Entity
	for _, row := range f.rows[entitySetID] {
		keep := true
		for _, c := range query.Constraints {
			if c.Type != datalake.ConstraintDateRange {
				continue
			}
			start, _ := time.Parse(time.RFC3339, c.StartDate)
			end, _ := time.Parse(time.RFC3339, c.EndDate)
			at, ok := row.Properties.FirstTime(entity.FQNCheckedInDate)
			if !ok || at.Before(start) || at.After(end) {
				keep = false
			}
		}
		if keep {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeAPI) SearchNeighbors(ctx context.Context, entitySetID string, filter datalake.NeighborFilter) (model.NeighborResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.searches = append(f.searches, filter)
	f.mu.Unlock()

	if slices.Contains(filter.SourceEntitySetIDs, f.failSet) || slices.Contains(filter.DestinationEntitySetIDs, f.failSet) {
		return nil, errBoom
	}

	out := model.NeighborResult{}
	for _, e := range f.edges {
		if e.srcSet == entitySetID && slices.Contains(filter.EntityKeyIDs, e.srcID) && slices.Contains(filter.DestinationEntitySetIDs, e.dstSet) {
			out[e.srcID] = append(out[e.srcID], model.Neighbor{EntitySetID: e.dstSet, ID: e.dstID, Properties: f.props[e.dstID]})
		}
		if e.dstSet == entitySetID && slices.Contains(filter.EntityKeyIDs, e.dstID) && slices.Contains(filter.SourceEntitySetIDs, e.srcSet) {
			out[e.dstID] = append(out[e.dstID], model.Neighbor{EntitySetID: e.srcSet, ID: e.srcID, Properties: f.props[e.srcID]})
		}
	}
	return out, nil
}

func (f *fakeAPI) neighborSearches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.searches)
}

// seed builds a small program:
//
//	plan-1: p1, wp1 (Food Bank: a1->c1 2.5h, a2->c2 1.5h), DUI, charge event ce1
//	plan-2: p1, wp2 (Park: a3->c3 4h), DUI, charge event ce2
//	plan-3: p2, MISD
func seed() *fakeAPI {
	f := newFakeAPI()

	f.add(entity.DiversionPlan, "plan-1", model.Properties{entity.FQNCaseNumber: {"CASE-1"}, entity.FQNRequiredHours: {"40"}})
	f.add(entity.DiversionPlan, "plan-2", model.Properties{entity.FQNCaseNumber: {"CASE-2"}})
	f.add(entity.DiversionPlan, "plan-3", model.Properties{entity.FQNCaseNumber: {"CASE-3"}})

	f.add(entity.People, "p1", model.Properties{
		entity.FQNFirstName:   {"Ada"},
		entity.FQNLastName:    {"Lovelace"},
		entity.FQNDateOfBirth: {"1990-12-10"},
	})
	f.add(entity.People, "p2", model.Properties{entity.FQNFirstName: {"Alan"}})

	f.add(entity.ProgramOutcome, "o1", model.Properties{entity.FQNOutcome: {"Successful"}})
	f.add(entity.EnrollmentStatus, "s1", model.Properties{entity.FQNStatus: {"ACTIVE"}, entity.FQNEffectiveDate: {"2024-01-01"}})
	f.add(entity.EnrollmentStatus, "s2", model.Properties{entity.FQNStatus: {"COMPLETED"}, entity.FQNEffectiveDate: {"2024-03-01"}})
	f.add(entity.Infraction, "i1", model.Properties{entity.FQNDescription: {"Absence"}})

	f.add(entity.WorksitePlan, "wp1", model.Properties{entity.FQNRequiredHours: {20.0}})
	f.add(entity.WorksitePlan, "wp2", nil)
	f.add(entity.Worksite, "w1", model.Properties{entity.FQNName: {"Food Bank"}})
	f.add(entity.Worksite, "w2", model.Properties{entity.FQNName: {"Park"}})
	f.add(entity.Worksite, "w3", model.Properties{entity.FQNName: {"Animal Shelter"}})

	f.add(entity.Appointment, "a1", nil)
	f.add(entity.Appointment, "a2", nil)
	f.add(entity.Appointment, "a3", nil)
	f.add(entity.CheckIn, "c1", model.Properties{entity.FQNHoursWorked: {2.5}, entity.FQNCheckedInDate: {"2024-02-01T10:00:00Z"}})
	f.add(entity.CheckIn, "c2", model.Properties{entity.FQNHoursWorked: {"1.5"}, entity.FQNCheckedInDate: {"2024-02-10T10:00:00Z"}})
	f.add(entity.CheckIn, "c3", model.Properties{entity.FQNHoursWorked: {4.0}, entity.FQNCheckedInDate: {"2024-05-01T10:00:00Z"}})

	f.add(entity.CourtCase, "cc1", model.Properties{entity.FQNCourtCaseType: {"DUI"}})
	f.add(entity.CourtCase, "cc2", model.Properties{entity.FQNCourtCaseType: {"DUI"}})
	f.add(entity.CourtCase, "cc3", model.Properties{entity.FQNCourtCaseType: {"MISD"}})

	f.add(entity.ChargeEvent, "ce1", nil)
	f.add(entity.ChargeEvent, "ce2", nil)
	f.add(entity.ArrestCharge, "ac1", model.Properties{entity.FQNChargeName: {"Theft"}})
	f.add(entity.CourtCharge, "ct1", model.Properties{entity.FQNDescription: {"Theft 3"}})

	f.link("p1", "plan-1")
	f.link("p1", "plan-2")
	f.link("p2", "plan-3")
	f.link("plan-1", "o1")
	f.link("plan-1", "s1")
	f.link("plan-1", "s2")
	f.link("i1", "plan-1")
	f.link("plan-1", "wp1")
	f.link("plan-2", "wp2")
	f.link("wp1", "w1")
	f.link("wp2", "w2")
	f.link("p1", "wp1")
	f.link("p1", "wp2")
	f.link("a1", "wp1")
	f.link("a2", "wp1")
	f.link("a3", "wp2")
	f.link("c1", "a1")
	f.link("c2", "a2")
	f.link("c3", "a3")
	f.link("plan-1", "cc1")
	f.link("plan-2", "cc2")
	f.link("plan-3", "cc3")
	f.link("plan-1", "ce1")
	f.link("plan-2", "ce2")
	f.link("ce1", "ac1")
	f.link("ce2", "ac1")
	f.link("ce1", "ct1")
	return f
}
