// Package orchestrator is the Ingestion Orchestrator (IO): the job body.
// It wires the Object Store Adapter's range read through the Row Parser and
// Cleaner/Validator into batched Datastore writes, persists progress onto
// the job store, and honors cooperative pause between batches.
package orchestrator
