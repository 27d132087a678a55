// Package jobstore is the Job Store (JS): the persistent record of every
// ingestion job's configuration, progress counters, and lifecycle state.
//
// Business logic belongs in Service; Repository implementations are pure
// data access and live alongside this package (postgres.go). Handlers and
// the Job Control API depend on Service, never on Repository directly.
package jobstore
