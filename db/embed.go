// Package db embeds the database schema used by the Postgres cart store.
package db

import _ "embed"

// Schema contains the DDL statements for the cart slot tables.
//
//go:embed migrations/001_schema.sql
var Schema string
