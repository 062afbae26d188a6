package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Project represents one solar installation under analysis.
type Project struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Location     string    `json:"location"`
	Client       string    `json:"client"`
	Engineer     string    `json:"engineer"`
	CapacityKWp  string    `json:"capacity_kwp"`
	ModuleType   string    `json:"module_type"`
	InverterType string    `json:"inverter_type"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Upload represents an uploaded circuit CSV file.
// DB columns: id, project_id, filename, file_size, status, validation_status,
//
//	row_count, warnings, errors, content_hash, created_at, updated_at
type Upload struct {
	ID               uuid.UUID       `json:"upload_id"`
	ProjectID        uuid.UUID       `json:"project_id"`
	Filename         string          `json:"filename"`
	FileSize         int64           `json:"file_size"`
	Status           string          `json:"status"`
	ValidationStatus string          `json:"validation_status"`
	RowCount         int             `json:"row_count"`
	Warnings         json.RawMessage `json:"warnings"`
	Errors           json.RawMessage `json:"errors"`
	ContentHash      *string         `json:"content_hash,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// CircuitRecord represents one parsed circuit row from an upload; the row is
// also retained verbatim as JSONB for the calculation service.
// DB columns: id, upload_id, project_id, string_id, length_pos_m,
//
//	length_neg_m, raw_data, created_at
type CircuitRecord struct {
	ID         uuid.UUID       `json:"id"`
	UploadID   uuid.UUID       `json:"upload_id"`
	ProjectID  uuid.UUID       `json:"project_id"`
	StringID   string          `json:"string_id"`
	LengthPosM float64         `json:"length_pos_m"`
	LengthNegM float64         `json:"length_neg_m"`
	RawData    json.RawMessage `json:"raw_data"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ReportMeta records a generated report for listing; the document itself is
// never stored.
// DB columns: id, project_id, stage, norm_standard, filename, size_bytes, created_at
type ReportMeta struct {
	ID           uuid.UUID `json:"id"`
	ProjectID    uuid.UUID `json:"project_id"`
	Stage        string    `json:"stage"`
	NormStandard string    `json:"norm_standard"`
	Filename     string    `json:"filename"`
	SizeBytes    int64     `json:"size_bytes"`
	CreatedAt    time.Time `json:"created_at"`
}

// Pagination holds pagination metadata.
type Pagination struct {
	Page         int `json:"page"`
	PageSize     int `json:"page_size"`
	TotalResults int `json:"total_results"`
	TotalPages   int `json:"total_pages"`
}
