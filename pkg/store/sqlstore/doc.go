// Package sqlstore implements the store contracts on top of GORM.
//
// Two engines are supported:
//
//   - SQLite through github.com/ncruces/go-sqlite3 (a pure Go build of SQLite). This is the
//     default for the desktop application. OpenInMemory creates a private in-memory database,
//     which is what the tests use: every test gets its own isolated store.
//   - PostgreSQL through gorm.io/driver/postgres, for the server deployment.
//
// # Schema management
//
// The schema is versioned. DB.Migrate applies every pending migration, each in its own
// transaction, and records the version in the schema_versions table. Repositories do not
// migrate; at construction they verify that the database reports exactly LatestSchemaVersion
// and that the tables and columns they read exist. A mismatch fails construction with
// store.UninitializedConnectionError, store.MissingTableError or store.MissingColumnError,
// before any query runs.
//
// # Reads
//
// Rows are scanned into plain row structs and then parsed into domain models. Parsing runs the
// domain validation, so a corrupted row surfaces as store.InvalidDataError rather than as a
// partially filled entity.
//
// # Concurrency
//
// SQLite handles are limited to a single open connection, which serializes writers the way
// the engine would anyway and keeps in-memory databases alive for the lifetime of the handle.
// Every code path running inside a transaction uses only the transaction handle.
package sqlstore
