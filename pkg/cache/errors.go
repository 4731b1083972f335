// Package cache defines common error types used throughout the
// caching layer.
package cache

import "errors"

// ErrCacheMiss indicates the requested key was not found in cache.
// This is not an error condition in itself - it's expected behavior
// when a key hasn't been cached yet, has expired, or was invalidated
// by a mutation.
//
// Example usage:
//
//	err := queryCache.Get(ctx, key, &data)
//	if err == cache.ErrCacheMiss {
//	    // Load from upstream
//	} else if err != nil {
//	    // Handle other errors
//	}
var ErrCacheMiss = errors.New("cache miss")
