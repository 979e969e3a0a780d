package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	CreationStatusActive  = "active"
	CreationStatusDeleted = "deleted"
)

// Creation is one generated image in the user's gallery. Deletion is a
// status flip, never a row removal.
type Creation struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Workflow  *string
	Metadata  map[string]interface{}
	ImageURL  string
	Status    string
	CreatedAt time.Time
}
