// Package testutil provides common testing utilities, fixtures, and helpers
// for use across all test files in the console project.
package testutil

import (
	"time"

	"github.com/GrandGaleTechnologies/docops-console/internal/models"
)

// TestAuthUser creates a platform user with default values
func TestAuthUser() *models.AuthUser {
	return &models.AuthUser{
		ID:        7,
		Email:     "ops@docops.dev",
		FullName:  "Ops Admin",
		CreatedAt: time.Now().Add(-30 * 24 * time.Hour),
		UpdatedAt: time.Now(),
	}
}

// TestProject creates a project with default values
func TestProject() *models.Project {
	return &models.Project{
		ID:        1,
		Name:      "Bridge Scans",
		UserID:    7,
		AutoSync:  BoolPtr(true),
		FileCount: 128,
		Status:    models.ProjectActive,
		S3Bucket:  "docops-bridge-scans",
		S3Prefix:  "scans/",
		CreatedAt: time.Now().Add(-14 * 24 * time.Hour),
		UpdatedAt: time.Now(),
	}
}

// TestIntegration creates an integration attached to TestProject
func TestIntegration() *models.Integration {
	return &models.Integration{
		ID:              11,
		ProjectID:       1,
		IntegrationType: models.IntegrationACC,
		Enabled:         true,
		Config:          map[string]any{"account_id": "a-1"},
		CreatedAt:       time.Now().Add(-7 * 24 * time.Hour),
	}
}

// TestSync creates a completed sync job with default values
func TestSync() *models.Sync {
	return &models.Sync{
		ID:          3,
		ProjectID:   1,
		Integration: "acc",
		Status:      models.SyncSuccess,
		Synced:      true,
		DurationMS:  4200,
		S3FileKey:   "scans/2026-08-30/pier-07.laz",
		CreatedAt:   time.Now().Add(-time.Hour),
	}
}

// TestPage wraps items in a single-page paginated envelope whose meta
// is consistent with the data.
func TestPage[T any](items []T) *models.Paginated[T] {
	return &models.Paginated[T]{
		Data: items,
		Meta: models.PageMeta{
			TotalNoItems: len(items),
			TotalNoPages: 1,
			Page:         1,
			Size:         10,
			Count:        len(items),
		},
	}
}

// BoolPtr returns a pointer to the given bool
func BoolPtr(b bool) *bool {
	return &b
}
