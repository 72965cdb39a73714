// Package councildirectory manages the reference data of the
// council-governance context: places, their elected shoras, and seated
// representatives with per-seat permissions. The decision engine consults
// this module for permission checks and roster-based quorum.
package councildirectory
