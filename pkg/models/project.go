package models

import (
	"time"

	"github.com/google/uuid"
)

// Project statuses.
const (
	ProjectStatusUploaded = "uploaded"
	ProjectStatusAnalyzed = "analyzed"
	ProjectStatusPriced   = "priced"
)

// Project represents one uploaded building plan and its estimate state.
type Project struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	ZipCode   *string    `json:"zip_code,omitempty"`
	RegionID  *uuid.UUID `json:"region_id,omitempty"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// UserSelection is one chosen build specification: the active assembly for a
// category within a project. At most one selection per (project, category);
// writes upsert and last write wins.
type UserSelection struct {
	ProjectID    uuid.UUID `json:"project_id"`
	Category     string    `json:"category"`
	AssemblyCode string    `json:"assembly_code"`
	UpdatedAt    time.Time `json:"updated_at"`
}
