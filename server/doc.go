// Package server exposes the course generation API over HTTP. Routes are
// served by Gin on an h2c-wrapped listener; the generation endpoint
// streams progress as Server-Sent Events.
package server
