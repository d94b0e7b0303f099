// Package generate drives staged course generation against a pluggable
// model backend. An Orchestrator walks the pipeline (research, outline,
// modules, images) and streams progress updates on a channel so callers
// can relay them to clients as they happen.
package generate
