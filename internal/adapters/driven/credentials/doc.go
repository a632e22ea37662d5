// Package credentials resolves source credential references.
//
// A reference has the form "scheme:value". The env scheme reads an
// environment variable (loaded from .env at startup); the file scheme reads
// a file. Resolution failures wrap domain.ErrCredentialUnavailable.
package credentials
