// Package course defines the domain values produced by a generation run:
// the course outline, modules with lessons and assessment assets, and the
// GenerationUpdate events streamed to callers while a run is in progress.
//
// All types are plain serializable values with no embedded live resources,
// so a finished course can be handed to any persistence or rendering layer.
package course
