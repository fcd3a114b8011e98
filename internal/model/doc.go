// Package model defines the core data structures shared by the audit packages.
//
// This package contains the following main types:
//   - Page: a fetched page of the audited site
//   - LinkEdge: one classified outbound anchor of a page
//   - LinkStats and DomainAggregate: link graph rollups
//   - Signals and ScoreBreakdown: per-page scoring inputs and result
//   - AuditReport: the result of auditing one site
//   - SimpleReport: a summarized, human-readable report
//
// Models live in their own package so that crawler, linkgraph, audit and
// report can share them without import cycles. Every type serializes to JSON
// for report output and history storage.
package model
