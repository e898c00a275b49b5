// Package types provides shared data structures for the island engine.
//
// This package defines core types used across all pipeline stages,
// ensuring type safety and consistent data structures.
//
// Core Types:
//   - NotificationEvent: Canonical ingested notification
//   - SuppressionDecision: Allow/deny verdict with reason code
//   - FeatureState: Typed reducer output (one variant per feature)
//   - ActiveIsland: The single arbitration winner
//   - IslandPolicy: Per-feature render contract
//
// Learning and Logging:
//   - AppPriorityProfile: Per-package learned spam score
//   - CooldownRecord: Dismiss-time cooldown entry
//   - DigestItem: Append-only shown/suppressed log row
//
// State Management:
//   - Phase: Island lifecycle enum (CREATED, UPDATED, COMPLETED)
//   - TransitionRecord: PII-free debug dump row
//   - UserAction: Discrete user gesture callback
//
// Example Usage:
//
//	ev := types.NotificationEvent{
//	    SourceApp: "com.example.chat",
//	    Category:  types.CategoryMessage,
//	    Origin:    types.OriginPost,
//	}
package types
