// Package scraper drives a scrape run end to end: it fetches the item
// listing, fans the discovered candidates out to a bounded worker pool,
// resolves each item's stack size, and collects the records for the final
// JSON report.
package scraper
