// Package hash provides helpers for hashing and verifying secrets.
//
// Verification codes are never persisted in plaintext: the store keeps only a
// keyed digest, and a candidate code is checked by hashing it again and
// comparing in constant time.
package hash
