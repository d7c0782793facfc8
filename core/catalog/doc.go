// Package catalog defines the canonical item shared by every media kind.
//
// Records, board games and books are all stored as an Item. Kind-specific
// attributes live in optional fields that are omitted from the encoded
// document when empty.
//
// # Identity
//
// Item ids are the kind prefix followed by the provider-native id, for example
// "record482". Ids never change once assigned.
//
// # Normalization
//
// SortText, MainPart and DecodeHTML are pure and idempotent. Builders apply
// the Overrides table before computing any derived sort field.
package catalog
