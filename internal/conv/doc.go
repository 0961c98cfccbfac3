// Package conv provides checked integer conversions for id and count
// arithmetic.
//
// For conversions that are provably safe by domain constraints (e.g., loop
// indices over the node arena), use direct type casts instead.
package conv
