// Package keys provides the signing and hashing primitives used by the
// attestation toolchain.
//
// API stability:
//
// Stable:
//   - Pure, deterministic primitives: public-key formatting and parsing,
//     key-ID computation, role-seed derivation, and artifact digests.
//
// Experimental:
//   - Filesystem-backed key storage and convenience helpers (KeyStore and
//     related functions). These are local-first utilities and are not part
//     of the long-term protocol contract.
package keys
