// Package store defines the persistence contract for tasks. The interface
// abstracts the underlying storage engine (DynamoDB, PostgreSQL or memory)
// from the services, and the error values give every backend the same
// observable behaviour.
package store
