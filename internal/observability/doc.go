// Package observability provides event logging, metrics calculation and
// alerting for study-brain. Events are persisted as JSON Lines and every
// metric or alert is derived on demand from that log.
package observability
