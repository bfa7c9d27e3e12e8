// Package config loads service configuration from a YAML file, a .env file
// and the process environment, in that order of increasing precedence.
//
// Environment variables map onto nested keys by underscore splitting, so
// JWT_ACCESS_TOKEN_EXPIRY populates jwt.access_token_expiry and
// OAUTH2_GOOGLE_CLIENT_ID populates oauth2.google.client_id.
package config
