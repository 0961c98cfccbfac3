// Package config loads index options from YAML files, .env files and
// PROXGRAPH_* environment variables.
//
// Example config.yaml:
//
//	dimension: 768
//	family: vamana
//	metric: cosine
//	m: 64
//	ef_construction: 200
//	alpha: 1.2
//	seeds: 4
//	log:
//	  level: info
//	  format: json
//
// Environment variables override the file, e.g. PROXGRAPH_EF_CONSTRUCTION=400
// or PROXGRAPH_LOG_LEVEL=debug. Absent tuning fields keep the family
// defaults; explicit values, zero included, are validated as given.
package config
