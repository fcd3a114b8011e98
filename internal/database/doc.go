// Package database stores finished audit reports in SQLite so that runs of
// the same site can be listed and compared.
//
// Only complete reports are kept. Crawl state is never persisted, so every
// audit starts from scratch. The database is a single file in the XDG data
// directory, opened with the CGO free modernc.org/sqlite driver.
package database
