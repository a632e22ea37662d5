// Package browser provides headless Chrome execution contexts through chromedp.
//
// One Chrome process is started lazily on the first Acquire. Every Tab is
// opened in a new browser context, the Chrome equivalent of an incognito
// profile, so concurrent jobs never share cookies or storage.
package browser
