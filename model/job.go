package model

import (
	"time"

	"gorm.io/datatypes"
)

// JobStatus is the lifecycle state of a restoration job.
type JobStatus string

const (
	JobStatusActive     JobStatus = "active"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusOnHold     JobStatus = "on_hold"
)

// Valid reports whether s is a known job status.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusActive, JobStatusInProgress, JobStatusCompleted, JobStatusOnHold:
		return true
	}
	return false
}

// Priority ranks how urgently a job needs attention.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Job is a restoration engagement that inventory work hangs off of.
// Metadata carries client-specific detail (address, claim refs) as an
// opaque JSON blob.
type Job struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID  int64          `gorm:"index:idx_job_account;not null" json:"account_id"`
	Title      string         `gorm:"size:255;not null" json:"title"`
	JobStatus  JobStatus      `gorm:"size:16;default:active" json:"job_status"`
	Priority   Priority       `gorm:"size:16;default:medium" json:"priority"`
	AssignedTo string         `gorm:"size:128" json:"assigned_to"`
	Supervisor string         `gorm:"size:128" json:"supervisor"`
	Metadata   datatypes.JSON `json:"metadata"`
	CreatedAt  time.Time      `gorm:"index:idx_job_created;autoCreateTime:milli" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}
