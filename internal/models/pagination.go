package models

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// SortOrder is the order_by value accepted by the platform's list
// endpoints. The platform sorts by creation time only; order_by picks
// the direction.
type SortOrder string

// Sort directions.
const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// PageMeta is the pagination block wrapped around every list response.
//
// JSON example:
//
//	{
//	  "total_no_items": 57,
//	  "total_no_pages": 6,
//	  "page": 2,
//	  "size": 10,
//	  "count": 10,
//	  "has_next_page": true,
//	  "has_prev_page": true
//	}
type PageMeta struct {
	TotalNoItems int  `json:"total_no_items"`
	TotalNoPages int  `json:"total_no_pages"`
	Page         int  `json:"page"`
	Size         int  `json:"size"`
	Count        int  `json:"count"`
	HasNextPage  bool `json:"has_next_page"`
	HasPrevPage  bool `json:"has_prev_page"`
}

// Paginated wraps a list payload with its pagination metadata.
type Paginated[T any] struct {
	Data []T      `json:"data"`
	Meta PageMeta `json:"meta"`
}

// Validate checks the envelope invariants the platform guarantees:
// count matches the number of items actually returned, and
// has_next_page is consistent with the page/total-pages pair. A
// violation means the upstream response is malformed, not a console
// bug, so callers surface it as an upstream error.
func (p *Paginated[T]) Validate() error {
	if p.Meta.Count != len(p.Data) {
		return fmt.Errorf("pagination meta count %d does not match %d items", p.Meta.Count, len(p.Data))
	}
	if want := p.Meta.Page < p.Meta.TotalNoPages; p.Meta.HasNextPage != want {
		return fmt.Errorf("pagination meta has_next_page=%t inconsistent with page %d of %d",
			p.Meta.HasNextPage, p.Meta.Page, p.Meta.TotalNoPages)
	}
	return nil
}

// ProjectListParams are the optional filters for the project list.
// Zero values are omitted from the request so the platform applies its
// own defaults.
type ProjectListParams struct {
	Query    string    // free-text search
	AutoSync *bool     // tri-state filter: nil = not sent
	Page     int       // 1-based
	Size     int
	OrderBy  SortOrder
}

// Values serializes the parameters as URL query values, skipping unset
// fields.
func (p ProjectListParams) Values() url.Values {
	v := url.Values{}
	if p.Query != "" {
		v.Set("query", p.Query)
	}
	if p.AutoSync != nil {
		v.Set("auto_sync", strconv.FormatBool(*p.AutoSync))
	}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Size > 0 {
		v.Set("size", strconv.Itoa(p.Size))
	}
	if p.OrderBy != "" {
		v.Set("order_by", string(p.OrderBy))
	}
	return v
}

// CacheKey returns a stable string identifying this parameter set, for
// use as a query-cache key suffix. Identical parameters always produce
// identical keys regardless of construction order.
func (p ProjectListParams) CacheKey() string {
	return encodeSorted(p.Values())
}

// SyncListParams are the optional filters for the sync-job list.
type SyncListParams struct {
	Q           string     // free-text search
	Status      SyncStatus // empty = not sent
	Integration string     // acc, drone_deploy, other; empty = not sent
	Synced      *bool      // nil = not sent
	Page        int        // 1-based
	Size        int
	OrderBy     SortOrder
}

// Values serializes the parameters as URL query values, skipping unset
// fields.
func (p SyncListParams) Values() url.Values {
	v := url.Values{}
	if p.Q != "" {
		v.Set("q", p.Q)
	}
	if p.Status != "" {
		v.Set("status", string(p.Status))
	}
	if p.Integration != "" {
		v.Set("integration", p.Integration)
	}
	if p.Synced != nil {
		v.Set("synced", strconv.FormatBool(*p.Synced))
	}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Size > 0 {
		v.Set("size", strconv.Itoa(p.Size))
	}
	if p.OrderBy != "" {
		v.Set("order_by", string(p.OrderBy))
	}
	return v
}

// CacheKey returns a stable string identifying this parameter set.
func (p SyncListParams) CacheKey() string {
	return encodeSorted(p.Values())
}

// encodeSorted renders query values as "k=v&k=v" with keys sorted, so
// the result is deterministic. url.Values.Encode already sorts keys;
// this exists so cache keys do not depend on that being true forever.
func encodeSorted(v url.Values) string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v.Get(k))
	}
	return b.String()
}
