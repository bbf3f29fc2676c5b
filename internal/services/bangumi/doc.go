// Package bangumi looks up anime subjects on bgm.tv. Only animation subjects
// are requested; the first match is taken as authoritative.
package bangumi
