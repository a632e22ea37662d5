// Package webpage provides a source adapter for listing sites that are
// searched through an HTML form in a browser tab.
//
// The adapter opens the landing page, selects the make and model in their
// dropdowns, fills any configured inputs, submits, and reads each result card
// with field selectors. A make or model the dropdown does not offer skips the
// job instead of failing it.
//
// Selectors are configured per source:
//
//	[source.options]
//	landing = "https://www.motors.example/search"
//	"select.make" = "#make"
//	"select.model" = "#model"
//	"input.price_max" = "input[name=maxPrice]"
//	submit = "button.search"
//	item = "article.result"
//	"field.url" = "a.title@href"
//	"field.price" = ".price-tag"
//	"extra.fuel" = "li.fuel"
package webpage
