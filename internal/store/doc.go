// Package store declares the persistence contracts used by the services:
// users, tasks, token revocations, plus the shared error types returned by
// every backend.
package store
