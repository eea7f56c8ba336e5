// Package services implements the metadata sources used to enrich tracks.
//
// # Source Interface
//
// Every provider implements [Source]. A lookup never returns a bare error: it returns a
// [Result] tagged with an [Outcome] so callers can tell a miss from a disabled source or a
// transport failure, while treating all three as "no data".
//
// # Providers
//
//   - [SpotifySource] : catalog search (limit 1) followed by an audio-features request.
//     Uses a client-credentials bearer token from [TokenManager]. A failed audio-features
//     request keeps the search fields.
//   - [LastFMSource] : track.getInfo keyed by API key. A body with an "error" field is a miss.
//   - [MusicBrainzSource] : anonymous recording search with an identifying User-Agent.
//
// Nested response fields are read with gjson so that absent or null values stay absent
// instead of failing the lookup. Tag lists keep at most five names joined with "; ".
//
// # Pacing
//
// Each source owns a [Limiter]. Calls through one limiter are serialized and spaced by at
// least its interval, measured from the completion of the previous call.
//
// # Tokens
//
// [TokenManager] wraps [clientcredentials.Config] and caches the token until
// fetch time + expires_in - margin (300s by default).
package services
