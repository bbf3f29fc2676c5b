// Package scheduler executes asynchronous actions under a global concurrency
// ceiling with priority ordering and in-flight deduplication by key.
//
// Tasks move queued -> running -> done and never back. At most one execution
// is in flight per non-empty key; concurrent callers with the same key join
// the pending task and observe its outcome. Higher priority tasks start
// first; equal priorities keep enqueue order. Running tasks are never
// preempted, so priority governs start order only.
//
// The queue, the dedup map and the running counter are guarded by one mutex;
// workers run as goroutines and re-enter the dispatch loop on completion.
package scheduler
