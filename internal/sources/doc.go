// Package sources provides the built-in source adapters. Each adapter knows
// how to search one kind of listing site (a JSON endpoint, an HTML search
// form, a local fixture file).
//
// Adapters are registered with the AdapterRegistry at startup.
package sources
