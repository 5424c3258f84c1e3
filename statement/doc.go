// Package statement implements the signable statement documents that carry
// link evidence: the naive link statement (the classic full-fidelity link
// document) and the in-toto Statement v0.1 wrapping a versioned predicate.
//
// The architecture mirrors package predicate: a closed version set, one
// concrete document type per version, a sealed interface, declared-order
// auto-detection, and fail-closed allow-list decoding, with canonical bytes
// produced through cjson.
package statement
