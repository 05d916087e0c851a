package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status entity lifecycle status
type Status int8

const (
	// StatusActive visible row
	StatusActive Status = iota
	// StatusDeleted soft-deleted row
	StatusDeleted
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Audit common bookkeeping columns embedded in every entity
type Audit struct {
	Status     Status     `gorm:"not null;default:0;index" json:"status"`
	CreatedAt  time.Time  `gorm:"not null" json:"createdAt"`
	CreatedBy  uuid.UUID  `gorm:"type:uuid;not null" json:"createdBy"`
	ModifiedAt *time.Time `json:"modifiedAt,omitempty"`
	ModifiedBy *uuid.UUID `gorm:"type:uuid" json:"modifiedBy,omitempty"`
	DeletedAt  *time.Time `json:"deletedAt,omitempty"`
	DeletedBy  *uuid.UUID `gorm:"type:uuid" json:"deletedBy,omitempty"`
}

// NewAudit audit for a row created now by actor
func NewAudit(actor uuid.UUID, now time.Time) Audit {
	return Audit{Status: StatusActive, CreatedAt: now, CreatedBy: actor}
}

// IsActive row not soft-deleted
func (a Audit) IsActive() bool {
	return a.Status == StatusActive
}

// IsModified row touched after creation
func (a Audit) IsModified() bool {
	return a.ModifiedAt != nil || a.ModifiedBy != nil
}
