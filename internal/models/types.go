// Package models defines the core domain models for the console.
// Every entity here mirrors the platform API's wire representation:
// all identifiers and timestamps are assigned server-side and treated
// as opaque by the console, which never mutates a cached copy without
// a round-trip.
package models

import (
	"time"
)

// AuthUser is the signed-in user's profile projection as returned by
// the platform's /users endpoints.
//
// JSON example:
//
//	{
//	  "id": 42,
//	  "email": "user@example.com",
//	  "full_name": "Jane Builder",
//	  "created_at": "2025-01-15T10:30:00Z",
//	  "updated_at": "2025-01-15T10:30:00Z"
//	}
type AuthUser struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Session is the console-side authenticated session: the platform
// token pair plus the cached user projection, keyed by the session ID
// issued in the browser cookie.
//
// The tokens are intentionally excluded from JSON serialization so a
// session can never leak them through an API response or a log line.
type Session struct {
	ID           string    `json:"id"`          // Console session identifier (cookie value)
	User         *AuthUser `json:"user"`        // Cached user projection
	AccessToken  string    `json:"-"`           // Platform access token (never exposed)
	RefreshToken string    `json:"-"`           // Platform refresh token (never exposed)
	DeviceInfo   string    `json:"device_info"` // Parsed User-Agent from login
	IPAddress    string    `json:"ip_address"`  // Client IP at login
	CreatedAt    time.Time `json:"created_at"`  // Session creation timestamp
}

// Authenticated reports whether the session carries both a token and a
// user projection. Either one alone is not enough: a token without a
// user means the stored profile was lost or corrupted, and the session
// is treated as signed out.
func (s *Session) Authenticated() bool {
	return s != nil && s.AccessToken != "" && s.User != nil
}

// ProjectStatus is the lifecycle state of a sync project.
type ProjectStatus string

// Project statuses accepted by the platform.
const (
	ProjectActive   ProjectStatus = "active"
	ProjectInactive ProjectStatus = "inactive"
	ProjectPending  ProjectStatus = "pending"
)

// Project is a cloud-storage sync target. AutoSync is tri-state: the
// platform distinguishes enabled, disabled, and never-configured, so a
// nil pointer means unset.
type Project struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	UserID      int64         `json:"user_id"`
	AutoSync    *bool         `json:"auto_sync"`
	FileCount   int64         `json:"file_count"`
	Status      ProjectStatus `json:"status"`
	S3Bucket    string        `json:"s3_bucket"`
	S3Prefix    string        `json:"s3_prefix"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// CreateProject is the payload for creating a new project.
type CreateProject struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	AutoSync    bool   `json:"auto_sync"`
	S3Bucket    string `json:"s3_bucket"`
	S3Prefix    string `json:"s3_prefix"`
}

// UpdateProject is the full-replacement payload for updating a project.
type UpdateProject struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status"`
	S3Bucket    string        `json:"s3_bucket"`
	S3Prefix    string        `json:"s3_prefix"`
	FileCount   int64         `json:"file_count"`
	AutoSync    bool          `json:"auto_sync"`
}

// IntegrationType identifies a third-party data source.
type IntegrationType string

// Integration types supported by the platform.
const (
	IntegrationACC         IntegrationType = "acc"
	IntegrationDroneDeploy IntegrationType = "drone_deploy"
)

// Valid reports whether t is one of the platform's integration types.
func (t IntegrationType) Valid() bool {
	return t == IntegrationACC || t == IntegrationDroneDeploy
}

// Integration is a third-party data source attached to exactly one
// project. Config is an open key-value map whose shape depends on the
// integration type (ACC project/folder IDs, bucket overrides, ...).
type Integration struct {
	ID              int64           `json:"id"`
	ProjectID       int64           `json:"project_id"`
	IntegrationType IntegrationType `json:"integration_type"`
	Enabled         bool            `json:"enabled"`
	Config          map[string]any  `json:"config"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       *time.Time      `json:"updated_at"`
}

// SyncStatus is the lifecycle state of a single sync job.
type SyncStatus string

// Sync job statuses.
const (
	SyncPending    SyncStatus = "pending"
	SyncInProgress SyncStatus = "in_progress"
	SyncSuccess    SyncStatus = "success"
	SyncFailed     SyncStatus = "failed"
)

// Sync is one sync-job record. Read-mostly from the console's
// perspective; the only mutations the platform exposes are a manual
// trigger and a delete.
type Sync struct {
	ID          int64      `json:"id"`
	ProjectID   int64      `json:"project_id"`
	Integration string     `json:"integration"`
	Status      SyncStatus `json:"status"`
	Synced      bool       `json:"synced"`
	DurationMS  int64      `json:"duration_ms"`
	S3FileKey   string     `json:"s3_file_key"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Period selects the aggregation window for dashboard endpoints.
type Period string

// Aggregation periods. The stats endpoint accepts all four; the chart
// endpoint only accepts week and month (see ChartPeriod).
const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// Valid reports whether p is a known aggregation period.
func (p Period) Valid() bool {
	switch p {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
		return true
	}
	return false
}

// ChartPeriod maps p onto the window set the chart endpoint accepts.
// The chart endpoint rejects "day", so it is remapped to "week"; every
// other period passes through unchanged. The stats endpoint accepts
// "day" directly, so this mapping must only ever be applied to chart
// requests.
func (p Period) ChartPeriod() Period {
	if p == PeriodDay {
		return PeriodWeek
	}
	return p
}

// DashboardStats is the aggregate counters payload for one period.
// Derived and read-only; never persisted console-side.
type DashboardStats struct {
	Period            string    `json:"period"`
	LastSyncAt        time.Time `json:"last_sync_at"`
	AvgSyncDurationMS float64   `json:"avg_sync_duration_ms"`
	Projects          int64     `json:"projects"`
	NoOfIntegrations  int64     `json:"no_of_integrations"`
	PendingSyncs      int64     `json:"pending_syncs"`
	SuccessfulSyncs   int64     `json:"successful_syncs"`
	FailedSyncs       int64     `json:"failed_syncs"`
	TotalSyncs        int64     `json:"total_syncs"`
}

// ChartPoint is one bucket of the sync time series.
type ChartPoint struct {
	Label   string `json:"label"`
	Success int64  `json:"success"`
	Failed  int64  `json:"failed"`
}

// ChartData is the sync success/failure time series for one period.
type ChartData struct {
	Period     string       `json:"period"`
	PeriodData []ChartPoint `json:"period_data"`
}
