// Package service implements the application's use cases on top of the
// store interfaces: account signup, login and logout, token authentication,
// user listings, and task management with role-based authorization.
//
// Services return sentinel errors from the domain, store, auth and service
// packages wrapped with %w. The API layer maps them to HTTP status codes in
// one place, so services never deal with transport concerns.
package service
