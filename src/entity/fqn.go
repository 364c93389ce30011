package entity

// Property type FQNs read by the workflows
const (
	FQNEntityKeyID = "openlattice.@id"

	FQNPersonID        = "nc.SubjectIdentification"
	FQNFirstName       = "nc.PersonGivenName"
	FQNLastName        = "nc.PersonSurName"
	FQNDateOfBirth     = "nc.PersonBirthDate"
	FQNCaseNumber      = "ol.id"
	FQNName            = "ol.name"
	FQNStatus          = "ol.status"
	FQNRequiredHours   = "ol.requiredhours"
	FQNHoursWorked     = "ol.hoursworked"
	FQNEffectiveDate   = "ol.effectivedate"
	FQNOrientationDate = "ol.orientationdatetime"
	FQNCheckedInDate   = "ol.datetimecompleted"
	FQNCourtCaseType   = "justice.courtcasetype"
	FQNChargeName      = "ol.name"
	FQNDescription     = "ol.description"
	FQNOutcome         = "ol.outcome"
	FQNWorksiteAddress = "location.Address"
)
