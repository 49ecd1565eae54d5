// Package value provides the item model stored in collections.
//
// Items are opaque to the collection engine except for two questions it must
// answer: are two items structurally equal, and does an item match a removal
// pattern. Both are answered here so the engine never reflects over arbitrary
// Go values.
//
// Key design constraints:
//   - NO float types (use Int); floats break canonical equality
//   - Object keys are ordered by UTF-16 code units when serialized
//   - Canonical JSON is the single source of truth for equality and hashing
package value
