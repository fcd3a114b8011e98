// Package signals reads the on-page SEO signals of a parsed HTML page:
// title and meta description lengths, heading and image counts, Twitter and
// Open Graph tags, canonical and viewport declarations, JSON-LD blocks,
// lazy loading hints, page size and link counts.
//
// Extract never fails. Missing elements simply leave their fields at the
// zero value; JSON-LD blocks that do not parse are counted separately and
// do not contribute to the structured data count.
package signals
