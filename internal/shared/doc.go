// Package shared holds helpers used across edudash packages that belong to no
// single domain.
//
// The testutil subpackage provides a buffered slog handler for asserting on log
// output and small CSV fixtures shaped like the dashboard's datasets.
package shared
