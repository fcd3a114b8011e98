// Package score computes the composite SEO score of a page from its signals.
//
// The score is the sum of four capped categories: basic SEO (30), social
// (25), technical (25) and performance (20), for a maximum of 100.
// Score is a pure function of model.Signals.
package score
