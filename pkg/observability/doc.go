/*
Package observability turns supervisor lifecycle hooks into Prometheus metrics
and structured log records.

Both are plain domain.LifecycleHooks values, so they combine with each other
and with host hooks through LifecycleHooks.Merge.
*/
package observability
