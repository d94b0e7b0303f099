// Package codec converts opaque model output into validated Go values.
//
// Generative models asked for JSON routinely wrap it in markdown fences,
// prepend prose, leave trailing commas, or truncate mid-object. Decode
// applies a conservative cleanup pass (fence stripping, balanced-brace
// extraction, trailing-comma removal, best-effort quote repair) and one
// aggressive fallback pass before giving up with an InvalidOutputError.
//
// Providers with native schema-constrained generation can parse their
// responses directly and skip this package entirely.
package codec
