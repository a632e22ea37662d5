// Package driven declares what the core needs from the outside world.
//
// A search cannot run without a SourceCatalogue, an AdapterFactory per
// source type, a ContextPool per execution context kind and a
// CredentialResolver. RunStore, SweepStore and ListingPipeline are
// optional: without them runs are not kept, sweeps cannot be saved and
// listings pass through unchanged.
//
// This package imports domain and nothing else from internal/.
package driven
