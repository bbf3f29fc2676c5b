// Command shelfmark resolves media titles against an Emby library, with a
// TMDB catalog fallback, and manages the persistent result cache.
package main
