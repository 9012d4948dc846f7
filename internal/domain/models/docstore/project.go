package docstore

import "time"

// Project groups the documents of one trial program. Used for audit scoping
// and ownership checks; carries no content itself.
type Project struct {
	ID        string    `json:"id" db:"id"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	Name      string    `json:"name" db:"name"`
	Sponsor   string    `json:"sponsor,omitempty" db:"sponsor"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
