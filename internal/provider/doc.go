// Package provider declares the optional external data sources an audit can
// consult: search signals (related searches, questions, suggestions) and
// keyword intelligence (volume, difficulty, related keywords).
//
// No backend ships with linkaudit. Callers that have one implement the
// interfaces and pass it to the pipeline; a nil provider is skipped.
package provider
