// Package nullbr queries the Nullbr resource index for 115 share links and
// magnet links by TMDB id. A 404 from the index means the title simply has no
// resources and is treated as an empty result, not an error.
package nullbr
