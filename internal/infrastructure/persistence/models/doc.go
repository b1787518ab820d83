// Package models holds the GORM row types and their mappers to domain
// aggregates. Domain packages stay free of tags; repositories in the parent
// package speak only in these types.
//
// The schema is owned by the SQL migrations. AutoMigrate is used only to
// build throwaway SQLite databases in tests.
package models
