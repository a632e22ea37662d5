// Package httpapi provides the HTTP interface to the search service.
//
// GET /v1/search/stream streams a run as server-sent events: one connected
// event with the job count, one progress event per completed source in
// completion order, then a single complete or error event. A stream that cannot start, for
// a malformed parameter or rejected criteria, carries only the error event.
// POST /v1/search
// runs the same search and answers with the aggregate only.
package httpapi
