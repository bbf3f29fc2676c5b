// Package tmdb queries The Movie Database, the catalog fallback used when a
// title is not present in the local library.
package tmdb
