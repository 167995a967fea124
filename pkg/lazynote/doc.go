// Package lazynote wires the note core into a runnable application.
//
// It owns configuration loading (YAML file, .env file and LAZYNOTE_* environment variables),
// logging setup, the storage handle and the services, and exposes them through a cobra command
// line and a thin JSON-over-HTTP bridge with a websocket change feed.
//
// The bridge carries no business rules. Handlers decode the request, call one service or
// repository operation and map the resulting error to a status code:
//
//	validation errors            400
//	missing atoms or nodes       404
//	tree constraint violations   409
//	writes in read-only mode     403
//	anything else                500
//
// Usage from the command line:
//
//	lazynote migrate
//	lazynote --db-dsn notes.db serve --addr :8080
//	lazynote today
//	lazynote --db-driver postgres --db-dsn "postgres://localhost/lazynote" inbox --limit 20
package lazynote
