// Package models defines the gorm rows persisted by the profile store and their
// conversions to and from the reconcile domain types.
//
// List valued fields (experience, education, skills, assets, findings) are stored
// as JSON columns through gorm.io/datatypes, which picks JSON on MySQL, JSONB on
// PostgreSQL and a JSON text column on SQLite.
package models
