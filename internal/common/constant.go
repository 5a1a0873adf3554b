package common

// AuthorizationHeaderName carries the owner's bearer token on API requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the JWT in the Authorization header.
const BearerPrefix = "Bearer "

// DirectSignEmail marks invitations created by the landlord's self-sign flow,
// which never goes through an email round-trip.
const DirectSignEmail = "direct"
