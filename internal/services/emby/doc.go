// Package emby talks to the user's Emby-compatible library server, the
// authoritative source for "do I already have this".
//
// Lookups go by provider id (douban.XXXX, tmdb.XXXX) or by free-text name
// search. Series matches can be enriched with season and episode counts; some
// server versions report zero episode counters on seasons, in which case a
// recursive episode listing is redistributed onto the seasons by index.
package emby
