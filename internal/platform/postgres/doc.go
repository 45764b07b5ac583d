// Package postgres provides a PostgreSQL implementation of store.TaskStore.
// It owns the connection setup, the embedded schema migrations applied with
// goose, and the mapping between tasks and rows of the tasks table.
package postgres
