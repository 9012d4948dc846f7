package consistency

// MapSeverity maps an issue severity to its persisted status/severity pair.
// The mapping is total: every input, including severities added later,
// produces exactly one pair.
func MapSeverity(s Severity) (StoredStatus, StoredSeverity) {
	switch s {
	case SeverityError:
		return StatusFail, StoredCritical
	case SeverityWarning:
		return StatusWarning, StoredHigh
	default:
		return StatusWarning, StoredLow
	}
}
