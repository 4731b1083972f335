// Package cache provides standardized cache key generation functions.
// Using consistent key naming avoids collisions and lets mutations
// invalidate by pattern. Query keys follow the pattern:
// "query:<entity>:<shape>:<identifier-or-params>".
package cache

import "fmt"

// Key prefixes for the cached query families.
const (
	ProjectsPrefix     = "query:projects:"
	IntegrationsPrefix = "query:integrations:"
	SyncsPrefix        = "query:syncs:"
	DashboardPrefix    = "query:dashboard:"
)

// ProjectsListKey generates a cache key for one projects-list query.
// The params string must be a stable serialization of the list
// parameters so identical queries share a key.
//
// Example: "query:projects:list:page=1&size=10"
func ProjectsListKey(params string) string {
	return fmt.Sprintf("%slist:%s", ProjectsPrefix, params)
}

// ProjectKey generates a cache key for a single project.
//
// Example: "query:projects:item:42"
func ProjectKey(projectID int64) string {
	return fmt.Sprintf("%sitem:%d", ProjectsPrefix, projectID)
}

// ProjectsListPattern matches every cached projects-list query.
// Use with DeletePattern after any project mutation.
func ProjectsListPattern() string {
	return ProjectsPrefix + "list:*"
}

// ProjectIntegrationsKey generates a cache key for a project's
// integration list.
//
// Example: "query:integrations:project:42"
func ProjectIntegrationsKey(projectID int64) string {
	return fmt.Sprintf("%sproject:%d", IntegrationsPrefix, projectID)
}

// IntegrationsPattern matches every cached integration list.
func IntegrationsPattern() string {
	return IntegrationsPrefix + "*"
}

// SyncsListKey generates a cache key for one syncs-list query.
//
// Example: "query:syncs:list:order_by=desc&page=1"
func SyncsListKey(params string) string {
	return fmt.Sprintf("%slist:%s", SyncsPrefix, params)
}

// SyncKey generates a cache key for a single sync record.
//
// Example: "query:syncs:item:7"
func SyncKey(syncID int64) string {
	return fmt.Sprintf("%sitem:%d", SyncsPrefix, syncID)
}

// SyncsPattern matches every cached syncs query, lists and items.
func SyncsPattern() string {
	return SyncsPrefix + "*"
}

// DashboardStatsKey generates a cache key for the stats aggregate of
// one period.
//
// Example: "query:dashboard:stats:day"
func DashboardStatsKey(period string) string {
	return fmt.Sprintf("%sstats:%s", DashboardPrefix, period)
}

// DashboardChartKey generates a cache key for the chart series of one
// period. Callers must pass the already-remapped chart period so "day"
// and "week" requests share an entry.
//
// Example: "query:dashboard:chart:week"
func DashboardChartKey(period string) string {
	return fmt.Sprintf("%schart:%s", DashboardPrefix, period)
}

// DashboardPattern matches every cached dashboard aggregate.
func DashboardPattern() string {
	return DashboardPrefix + "*"
}

// QueryPattern matches the entire query cache. Used on logout so no
// cached read outlives the session that produced it.
func QueryPattern() string {
	return "query:*"
}
