// Package fetch is the request orchestration layer shared by every upstream
// client: cache-first reads, scheduled execution with per-key deduplication,
// response post-processing, and adaptive cache writes.
//
// A call never returns an error. Failures come back as a zero-value Result
// with Meta.Err set, and a null sentinel is cached for a few minutes so a
// failing upstream is not hammered by immediate retries.
package fetch
