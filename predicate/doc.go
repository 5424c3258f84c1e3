// Package predicate implements the versioned predicate records that
// snapshot link metadata into schema-frozen wire shapes, and the closed
// wrapper that dispatches over them.
//
// Each supported schema version has one concrete record type. A record is
// a one-way projection of models.LinkMetadata: fields the version does not
// know are dropped, published field sets never change, and new fields mean
// a new version. Decoding is fail-closed: every record decoder takes its
// declared fields through an explicit allow-list and rejects everything
// else as a schema mismatch.
//
// Canonical bytes for all records are produced through cjson, so two
// records with equal field values encode to identical bytes regardless of
// construction order.
package predicate
