// Package api exposes the user and task operations over HTTP. Handlers decode
// and validate request bodies and query strings, call the services, and map
// service errors onto status codes and the JSON error envelope.
package api
