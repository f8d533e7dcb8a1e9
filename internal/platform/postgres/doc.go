// Package postgres stores the tenant → notification destination directory in
// PostgreSQL. The schema is shipped as embedded goose migrations and applied
// at startup.
package postgres
