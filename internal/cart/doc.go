// Package cart holds the session cart: an id-keyed set of line items whose
// totals are derived on demand and whose contents are mirrored to a durable
// Slot after every mutation.
package cart
