// Package vitals stores and serves patient vital-sign readings.
//
// Readings flow through a single Service: ingest validates physiological
// ranges, persists, asks the risk predictor for a non-fatal assessment, and
// invalidates the per-user cache; reads go through a Redis cache-aside layer
// in front of the store.
package vitals
