package models

import (
	"time"
)

// Job status lifecycle: queued -> running -> succeeded | failed.
// Terminal states have no outgoing transitions.
const (
	JobQueued    = "queued"
	JobRunning   = "running"
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
)

// Profile, Folder, Tag and Comment are returned by handlers as-is, so they
// carry json tags; the other entities only reach clients through the
// service view types.
type Profile struct {
	ID          string    `gorm:"type:uuid;primarykey" json:"id"`
	Email       string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	DisplayName string    `gorm:"size:255" json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Provider    string    `gorm:"size:64" json:"provider"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StorageObject is the per-blob metadata record. Immutable once created:
// a new upload always produces a new row, never an in-place overwrite.
type StorageObject struct {
	ID        string `gorm:"type:uuid;primarykey"`
	OwnerID   string `gorm:"type:uuid;not null;index"`
	Bucket    string `gorm:"size:255;not null"`
	ObjectKey string `gorm:"size:512;not null"`
	Checksum  string `gorm:"size:64;not null"`
	ByteSize  int64  `gorm:"not null"`
	MimeType  string `gorm:"size:128;not null"`
	Width     int
	Height    int
	CreatedAt time.Time
}

type Photo struct {
	ID           string  `gorm:"type:uuid;primarykey"`
	OwnerID      string  `gorm:"type:uuid;not null;index"`
	FolderID     *string `gorm:"type:uuid;index"`
	Title        string  `gorm:"size:255"`
	Description  string
	Favorite     bool `gorm:"not null;default:false"`
	Rating       int  `gorm:"not null;default:0"`
	CapturedDate *time.Time
	AssignedDate *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time `gorm:"index"`

	Versions []PhotoVersion `gorm:"foreignKey:PhotoID"`
}

// PhotoVersion is an immutable snapshot of a photo's pixels. ParentVersionID
// records derivation lineage only; the bytes are owned via StorageObjectID.
type PhotoVersion struct {
	ID              string  `gorm:"type:uuid;primarykey"`
	OwnerID         string  `gorm:"type:uuid;not null;index"`
	PhotoID         string  `gorm:"type:uuid;not null;index"`
	StorageObjectID string  `gorm:"type:uuid;not null"`
	IsOriginal      bool    `gorm:"not null;default:false"`
	ParentVersionID *string `gorm:"type:uuid"`
	Label           string  `gorm:"size:255"`
	Notes           string
	CreatedAt       time.Time
	DeletedAt       *time.Time `gorm:"index"`

	StorageObject *StorageObject `gorm:"foreignKey:StorageObjectID"`
}

type EnhancementJob struct {
	ID              string  `gorm:"type:uuid;primarykey"`
	OwnerID         string  `gorm:"type:uuid;not null;index"`
	PhotoID         string  `gorm:"type:uuid;not null;index"`
	InputVersionID  string  `gorm:"type:uuid;not null"`
	OutputVersionID *string `gorm:"type:uuid"`
	Status          string  `gorm:"size:16;not null;index"`
	ModelName       string  `gorm:"size:128"`
	ModelVersion    string  `gorm:"size:64"`
	Parameters      string  // JSON-encoded key/value bag
	ErrorMessage    *string
	QueuedAt        time.Time
	StartedAt       *time.Time
	FinishedAt      *time.Time
}

type Folder struct {
	ID        string     `gorm:"type:uuid;primarykey" json:"id"`
	OwnerID   string     `gorm:"type:uuid;not null;index" json:"-"`
	ParentID  *string    `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Name      string     `gorm:"size:255;not null" json:"name"`
	SortOrder int        `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

type Tag struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	OwnerID   string    `gorm:"type:uuid;not null;index" json:"-"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type PhotoTag struct {
	PhotoID   string `gorm:"type:uuid;primarykey"`
	TagID     string `gorm:"type:uuid;primarykey"`
	OwnerID   string `gorm:"type:uuid;not null;index"`
	CreatedAt time.Time
}

type Comment struct {
	ID        string     `gorm:"type:uuid;primarykey" json:"id"`
	OwnerID   string     `gorm:"type:uuid;not null;index" json:"-"`
	PhotoID   string     `gorm:"type:uuid;not null;index" json:"photo_id"`
	VersionID *string    `gorm:"type:uuid" json:"version_id,omitempty"`
	Body      string     `gorm:"not null" json:"body"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `gorm:"index" json:"-"`
}
