// Package common contains shared constants and sentinel errors used across
// moodiary components.
package common

// AccessTokenHeaderName is the HTTP header carrying the access token on
// outbound requests.
const AccessTokenHeaderName = "Authorization"

// APIKeyHeaderName is the header used by the inference endpoints.
const APIKeyHeaderName = "X-API-Key"
