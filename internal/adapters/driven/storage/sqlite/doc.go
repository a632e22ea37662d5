// Package sqlite keeps run history and saved sweeps in one SQLite file,
// ~/.carsweep/data/carsweep.db by default, using the cgo-free
// modernc.org/sqlite driver.
//
// A stored run is three tables: runs (the aggregate header and counts),
// run_sources (one status line per source, with its completion ordinal) and
// listings (the merged items, in completion order). Sweeps and their
// results live in sweeps and sweep_results.
//
// The schema comes from the numbered files in migrations/, applied in
// order on open and recorded in schema_migrations. The database is opened
// in WAL mode with foreign keys on, so deleting a run cascades to its
// sources and listings.
package sqlite
