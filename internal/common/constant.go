// Package common contains shared constants and sentinel errors used across
// toolshelf components.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer token.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token in the Authorization header value.
const BearerPrefix = "Bearer "

// UserIDKey is the gin context key under which the authentication gate
// stores the verified subject id.
const UserIDKey = "userId"

// PrincipalKey is the gin context key under which the authorization gate
// stores the loaded principal.
const PrincipalKey = "principal"
