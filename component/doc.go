// Package component defines the lifecycle contract shared by the database,
// redis, HTTP server and background sweepers, and a registry that starts
// them in order and stops them in reverse.
package component
