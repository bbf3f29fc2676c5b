// Package resolver runs the media lookup pipeline: provider-id lookup against
// the library, then name search, then a catalog fallback for titles the
// library does not have.
package resolver
