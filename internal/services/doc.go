// Package services implements the listening-data client for the Spotify Web API.
//
// # Listening Data
//
// [SpotifyClient] issues a single authenticated request for the user's top artists:
//
//	GET /v1/me/top/artists?limit=50&time_range=medium_term
//	Authorization: Bearer <token>
//
// There is no pagination, caching or retry. The request is one user-triggered action.
//
// # Error Handling
//
// Failures map to the sentinel errors in package shared:
//   - [RemoteAPIError] : non-2xx status, wraps [shared.ErrAPIRequest] and carries the status code
//   - [shared.ErrNetwork] : the request never produced a response
//   - [shared.ErrTokenExpired] : the credential had already expired, so no request was sent
//
// # Request Pacing
//
// An optional [rate.Limiter] spaces requests when several commands share one client.
package services
