// Package database provides the PostgreSQL connection pool for the
// stat change recorder.
package database
