package email

const (
	subjectQualificationDefault = "A quick question about your inquiry"
	subjectHandoffFmt           = "Qualified lead: %s (score %d/100)"
)
