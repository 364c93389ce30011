package workflow

import (
	"context"
	"sort"
	"time"

	"cwp_reporting/src/aggregate"
	"cwp_reporting/src/entity"
	"cwp_reporting/src/model"
)

// Field names used when joining neighbors onto diversion plans.
const (
	fieldPerson        = "person"
	fieldWorksitePlans = "worksitePlans"
	fieldOutcome       = "programOutcome"
	fieldStatuses      = "enrollmentStatuses"
	fieldInfractions   = "infractions"
	fieldWorksite      = "worksite"
	fieldAppointments  = "appointments"
	fieldCheckIn       = "checkIn"
	fieldAppointment   = "appointment"
	fieldWorksitePlan  = "worksitePlan"
	fieldCourtCase     = "courtCase"
)

// PersonSummary is the participant attached to an enrollment
type PersonSummary struct {
	ID          string `json:"id"`
	PersonID    string `json:"personId,omitempty"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
}

// WorksiteAssignment is one worksite plan of an enrollment
type WorksiteAssignment struct {
	WorksitePlanID string  `json:"worksitePlanId"`
	WorksiteID     string  `json:"worksiteId,omitempty"`
	WorksiteName   string  `json:"worksiteName,omitempty"`
	RequiredHours  float64 `json:"requiredHours"`
	Appointments   int     `json:"appointments"`
	CheckIns       int     `json:"checkIns"`
	HoursWorked    float64 `json:"hoursWorked"`
}

// EnrollmentRecord is one row of the enrollment export
type EnrollmentRecord struct {
	DiversionPlanID string               `json:"diversionPlanId"`
	CaseNumber      string               `json:"caseNumber,omitempty"`
	Person          *PersonSummary       `json:"person,omitempty"`
	Status          string               `json:"status,omitempty"`
	StatusDate      *time.Time           `json:"statusDate,omitempty"`
	Outcome         string               `json:"outcome,omitempty"`
	OrientationDate *time.Time           `json:"orientationDate,omitempty"`
	RequiredHours   float64              `json:"requiredHours"`
	HoursWorked     float64              `json:"hoursWorked"`
	Infractions     int                  `json:"infractions"`
	Worksites       []WorksiteAssignment `json:"worksites"`
	Plan            model.Properties     `json:"planProperties"`
}

// DownloadEnrollments walks diversion plans to their participants, worksite
// plans, outcomes and statuses, then on to worksites, appointments and
// check-ins, and flattens everything into one record per plan.
func (s *Service) DownloadEnrollments(ctx context.Context) (records []EnrollmentRecord, err error) {
	done := s.track(ctx, "download_enrollments")
	defer func() { done(err) }()

	sets, err := s.setIDs(entity.People, entity.WorksitePlan, entity.ProgramOutcome,
		entity.EnrollmentStatus, entity.Infraction, entity.Worksite, entity.Appointment, entity.CheckIn)
	if err != nil {
		return nil, err
	}

	plans, err := s.entities(ctx, entity.DiversionPlan)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return []EnrollmentRecord{}, nil
	}

	// hop 1: independent lookups off the diversion plans
	hop1, err := gather(ctx, "enrollments_plans", aggregate.IDs(plans), map[string]branch{
		fieldPerson:        s.neighborsOf(entity.DiversionPlan, entity.People),
		fieldWorksitePlans: s.neighborsOf(entity.DiversionPlan, entity.WorksitePlan),
		fieldOutcome:       s.neighborsOf(entity.DiversionPlan, entity.ProgramOutcome),
		fieldStatuses:      s.neighborsOf(entity.DiversionPlan, entity.EnrollmentStatus),
		fieldInfractions:   s.neighborsOf(entity.DiversionPlan, entity.Infraction),
	})
	if err != nil {
		return nil, err
	}

	planRecords := aggregate.Join(plans, []aggregate.Partition{
		{Field: fieldPerson, EntitySetID: sets[entity.People], Cardinality: aggregate.One},
		{Field: fieldWorksitePlans, EntitySetID: sets[entity.WorksitePlan], Cardinality: aggregate.Many},
		{Field: fieldOutcome, EntitySetID: sets[entity.ProgramOutcome], Cardinality: aggregate.One},
		{Field: fieldStatuses, EntitySetID: sets[entity.EnrollmentStatus], Cardinality: aggregate.Many},
		{Field: fieldInfractions, EntitySetID: sets[entity.Infraction], Cardinality: aggregate.Many},
	}, hop1[fieldPerson], hop1[fieldWorksitePlans], hop1[fieldOutcome], hop1[fieldStatuses], hop1[fieldInfractions])

	// hop 2: worksites and appointments of the worksite plans
	worksitePlans := asEntities(aggregate.Neighbors(hop1[fieldWorksitePlans], sets[entity.WorksitePlan]))
	hop2, err := gather(ctx, "enrollments_worksite_plans", aggregate.IDs(worksitePlans), map[string]branch{
		fieldWorksite:     s.neighborsOf(entity.WorksitePlan, entity.Worksite),
		fieldAppointments: s.neighborsOf(entity.WorksitePlan, entity.Appointment),
	})
	if err != nil {
		return nil, err
	}
	wpRecords := aggregate.Join(worksitePlans, []aggregate.Partition{
		{Field: fieldWorksite, EntitySetID: sets[entity.Worksite], Cardinality: aggregate.One},
		{Field: fieldAppointments, EntitySetID: sets[entity.Appointment], Cardinality: aggregate.Many},
	}, hop2[fieldWorksite], hop2[fieldAppointments])

	// hop 3: check-ins of the appointments
	appointments := asEntities(aggregate.Neighbors(hop2[fieldAppointments], sets[entity.Appointment]))
	checkIns, err := s.searchNeighbors(ctx, entity.Appointment, aggregate.IDs(appointments), entity.CheckIn)
	if err != nil {
		return nil, err
	}
	apptRecords := aggregate.Join(appointments, []aggregate.Partition{
		{Field: fieldCheckIn, EntitySetID: sets[entity.CheckIn], Cardinality: aggregate.One},
	}, checkIns)

	// roll check-ins up to the worksite plan owning each appointment
	owner := aggregate.ChildToParent(hop2[fieldAppointments], sets[entity.Appointment])
	worked := make(map[string]checkInTotals, len(worksitePlans))
	for _, appt := range aggregate.Sorted(appointments, apptRecords) {
		planID, ok := owner[appt.ID]
		if !ok {
			continue
		}
		if checkIn, ok := appt.One(fieldCheckIn); ok {
			totals := worked[planID]
			totals.count++
			totals.hours += checkIn.Properties.FirstFloat(entity.FQNHoursWorked)
			worked[planID] = totals
		}
	}

	records = make([]EnrollmentRecord, 0, len(planRecords))
	for _, plan := range aggregate.Sorted(plans, planRecords) {
		records = append(records, enrollmentRecord(plan, wpRecords, worked))
	}

	s.log.Info().
		Int("plans", len(plans)).
		Int("worksite_plans", len(worksitePlans)).
		Int("appointments", len(appointments)).
		Msg("enrollments assembled")
	return records, nil
}

type checkInTotals struct {
	count int
	hours float64
}

func enrollmentRecord(plan *aggregate.Record, worksitePlans map[string]*aggregate.Record, worked map[string]checkInTotals) EnrollmentRecord {
	rec := EnrollmentRecord{
		DiversionPlanID: plan.ID,
		CaseNumber:      plan.Properties.FirstString(entity.FQNCaseNumber),
		RequiredHours:   plan.Properties.FirstFloat(entity.FQNRequiredHours),
		Infractions:     len(plan.Many(fieldInfractions)),
		Worksites:       []WorksiteAssignment{},
		Plan:            plan.Properties,
	}
	if t, ok := plan.Properties.FirstTime(entity.FQNOrientationDate); ok {
		rec.OrientationDate = &t
	}
	if person, ok := plan.One(fieldPerson); ok {
		rec.Person = personSummary(person)
	}
	if outcome, ok := plan.One(fieldOutcome); ok {
		rec.Outcome = outcome.Properties.FirstString(entity.FQNOutcome)
	}
	if status, ok := latestStatus(plan.Many(fieldStatuses)); ok {
		rec.Status = status.Properties.FirstString(entity.FQNStatus)
		if t, ok := status.Properties.FirstTime(entity.FQNEffectiveDate); ok {
			rec.StatusDate = &t
		}
	}

	for _, wp := range plan.Many(fieldWorksitePlans) {
		assignment := WorksiteAssignment{
			WorksitePlanID: wp.ID,
			RequiredHours:  wp.Properties.FirstFloat(entity.FQNRequiredHours),
		}
		if wpRec, ok := worksitePlans[wp.ID]; ok {
			if site, ok := wpRec.One(fieldWorksite); ok {
				assignment.WorksiteID = site.ID
				assignment.WorksiteName = site.Properties.FirstString(entity.FQNName)
			}
			assignment.Appointments = len(wpRec.Many(fieldAppointments))
		}
		if totals, ok := worked[wp.ID]; ok {
			assignment.CheckIns = totals.count
			assignment.HoursWorked = totals.hours
		}
		rec.HoursWorked += assignment.HoursWorked
		rec.Worksites = append(rec.Worksites, assignment)
	}
	sort.Slice(rec.Worksites, func(i, j int) bool {
		return rec.Worksites[i].WorksitePlanID < rec.Worksites[j].WorksitePlanID
	})
	return rec
}

func personSummary(n model.Neighbor) *PersonSummary {
	p := &PersonSummary{
		ID:        n.ID,
		PersonID:  n.Properties.FirstString(entity.FQNPersonID),
		FirstName: n.Properties.FirstString(entity.FQNFirstName),
		LastName:  n.Properties.FirstString(entity.FQNLastName),
	}
	if dob, ok := n.Properties.FirstTime(entity.FQNDateOfBirth); ok {
		p.DateOfBirth = dob.Format(time.DateOnly)
	}
	return p
}

// latestStatus picks the status with the latest effective date. Statuses
// without a date lose against dated ones; ties keep the earlier neighbor.
func latestStatus(statuses []model.Neighbor) (model.Neighbor, bool) {
	var (
		best     model.Neighbor
		bestTime time.Time
		found    bool
	)
	for _, st := range statuses {
		t, _ := st.Properties.FirstTime(entity.FQNEffectiveDate)
		if !found || t.After(bestTime) {
			best, bestTime, found = st, t, true
		}
	}
	return best, found
}
