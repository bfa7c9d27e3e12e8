// Package util holds small parsing and display helpers shared by config
// consumers.
package util
