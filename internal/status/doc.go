// Package status probes link targets and records what it observes on the
// edges.
//
// Only the first N edges are probed. Probe i starts i*stagger after the
// check begins, all probes run concurrently, and no probe can abort another:
// every failure is recorded on its own edge. Results are cached per Checker,
// so a URL linked from many pages is requested once per run.
package status
