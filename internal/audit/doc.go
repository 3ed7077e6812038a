// Package audit turns the free-form reply of a text-generation model into a
// validated [model.AuditReport].
//
// Model output is untrusted and inconsistently formatted: sometimes pure
// JSON, sometimes a JavaScript object literal assigned to a variable and
// wrapped in prose, often with comments, unquoted keys or trailing commas.
// Processing runs in three stages:
//
//   - the [Extractor] yields candidate regions from an ordered list of
//     matchers, strict first;
//   - the [Normalizer] repairs a candidate into canonical JSON and decodes it;
//   - [Validate] checks the decoded value against the configured
//     [SchemaVariant].
//
// The first candidate that survives all three stages wins. When none does,
// [Pipeline.Process] returns a [*FailureError] matching [ErrTotalFailure].
//
// A [Pipeline] holds no mutable state and performs no I/O; one value can be
// shared by concurrent request handlers.
package audit
