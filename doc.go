// Package headlines scrapes newspaper homepages into daily headline tables.
//
// A Pipeline turns homepage markup into a ResultTable: anchors are
// classified as news links, resolved, de-duplicated and optionally
// enriched with the article text. A Job wires the pipeline to blob storage
// and the partition catalog, implementing the download and parse stages.
package headlines
