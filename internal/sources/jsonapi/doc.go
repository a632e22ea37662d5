// Package jsonapi provides a source adapter for listing sites that expose a
// JSON search endpoint.
//
// The adapter builds a query URL from an endpoint template, so sources of this
// type are normally configured with query_by_url. Placeholders such as {make},
// {model} or {price_max} are filled from the search criteria; query parameters
// whose placeholder has no value are dropped.
//
// Example catalogue entry:
//
//	[[source]]
//	name = "autos-api"
//	type = "jsonapi"
//	query_by_url = true
//	credential = "env:AUTOS_TOKEN"
//
//	[source.options]
//	endpoint = "https://api.autos.example/v2/search?make={make}&model={model}&max={price_max}"
//	items_path = "data.results"
//	token_param = "api_key"
//	"field.url" = "links.self"
package jsonapi
