// Package cachestore implements the namespaced result cache shared by all
// upstream clients.
//
// Values are stored as a JSON envelope carrying the payload plus expiry and
// creation timestamps; the payload itself stays opaque (json.RawMessage) so
// one store can hold heterogeneous shapes per client. A present, unexpired
// entry is authoritative. Expired entries are deleted lazily on read and can
// be swept in bulk. Reads that fail to deserialize delete the offending entry
// and report a miss, so a corrupt cache heals itself.
//
// No operation returns an error to the caller: storage failures degrade to
// "not found" and are logged. The store is safe for concurrent use.
package cachestore
