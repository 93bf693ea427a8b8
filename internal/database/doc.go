// Package database implements PostgreSQL-backed repositories using pgx.
package database
