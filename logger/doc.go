// Package logger wraps zerolog with service and component tagging.
//
// Components take a child logger via WithComponent and attach structured
// fields as maps; a process-wide global logger backs the package-level
// convenience functions used by middleware.
package logger
