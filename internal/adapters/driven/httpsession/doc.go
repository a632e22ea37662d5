// Package httpsession provides cookie-isolated HTTP execution contexts.
//
// Every acquired Session owns its own cookie jar, so logins and session
// state never leak between concurrent jobs. Requests to the same host are
// throttled by a shared per-host RateLimiter regardless of which session
// sends them.
package httpsession
