// Package models defines the data model shared by the credential, listening-data and aggregation layers.
//
// The package contains two groups of types:
//
// 1. Authorization state
//   - [Credential] : A short-lived bearer token with an absolute expiry, obtained through the implicit grant
//
// 2. Listening data
//   - [Artist] : A top-artist record from the Spotify Web API; only its genres matter to aggregation
//   - [GenreCount] : One row of an aggregated genre breakdown
//   - [GenreTable] : The ranked result of one aggregation, sorted by count with stable ties
//
// A [Credential] is valid while the current time is before its expiry. Expired credentials are never used to authorize a request.
package models
