package config

const (
	// MaxProjectNameLength is the maximum length for project names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255) and provide
	// reasonable UX (names should be short and descriptive).
	MaxProjectNameLength = 255

	// MaxDocumentTitleLength is the maximum length for document titles.
	// Same rationale as project names.
	MaxDocumentTitleLength = 255

	// MaxChangeSummaryLength is the maximum length for version change
	// summaries. Summaries are one-line descriptions, not changelogs.
	MaxChangeSummaryLength = 500
)
