// Package catalog defines the pricing domain model: items (products and
// coupons) and adjustment rules.
//
// Items are immutable value records identified by ID alone. Two items with
// the same ID are the same item for matching purposes, regardless of kind
// or value.
//
// Rules precompute their signed total adjustment at construction time from
// a target amount and the intrinsic values of their required items. The
// adjustment is fixed for the life of the rule and never recomputed.
package catalog
