// Package services holds cross-cutting helpers shared by the upstream
// service clients: the HTTP doer abstraction and request-scoped context
// values.
package services
