// Package models defines the version-agnostic value types for link
// attestation metadata: artifact paths and digests, commands, byproducts,
// and the unified LinkMetadata record that the versioned predicate layer
// projects from.
//
// All types are immutable after construction in the sense that the owning
// execution engine writes them once and every downstream consumer only
// reads or clones them. Canonical byte identity is never derived here; it
// lives behind the cjson choke points.
package models
