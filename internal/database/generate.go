package database

// This file documents code generation for the database package.
//
// To regenerate the SQLite test schema and the sqlc query layer:
//   go generate ./internal/database

//go:generate sh -c "cd ../.. && go run internal/database/tools/generate_schema.go"
//go:generate sh -c "cd ../.. && sqlc generate -f internal/database/sqlc/sqlc.yaml"
