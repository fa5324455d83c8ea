package pipeline

// DefaultQuestions is the standing clinical question set a case report walks
// through when the caller does not supply questions of their own. Phrasing
// deliberately hits the section keyword tables so each question decomposes
// into useful sub-queries.
func DefaultQuestions() []string {
	return []string{
		"What symptoms does the patient report and when did they start?",
		"What are the most recent abnormal labs and vitals?",
		"What is the current coagulation status?",
		"What is the leading assessment and what is the differential?",
		"What is the treatment plan and what should be monitored next?",
	}
}
