// Package wiki holds the extraction rules for minecraft.wiki pages: item
// links on the listing page and the "Stackable" attribute on detail pages.
// The functions here are pure and never touch the network.
package wiki
