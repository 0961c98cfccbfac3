// Package model defines the value types shared by the index and its callers.
//
//   - NodeID: dense node identifier (uint32), assigned in insertion order
//   - Candidate: transient (id, distance) pair; orders by distance then id
//   - Adjacency: exported (node, level, layer, neighbors) record
package model
