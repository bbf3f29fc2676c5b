// Package textutil normalizes scraped title strings before they are used as
// queries or cache key parts.
//
// Listing sites aimed at CJK audiences routinely mix full-width and half-width
// forms of the same characters; folding them keeps logically identical
// queries on one cache key.
package textutil
