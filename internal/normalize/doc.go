// Package normalize converts native notification payloads into the
// canonical NotificationEvent consumed by the pipeline.
//
// Normalization is a pure mapping and never fails: malformed fields
// degrade to empty strings or zero values rather than rejecting the
// event. Category is inferred from payload shape when the native
// category is missing or unknown.
package normalize
