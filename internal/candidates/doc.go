// Package candidates is the candidate datastore: the sink the Ingestion
// Orchestrator flushes cleaned batches into via InsertMany. The Postgres
// datastore writes a batch as one multi-row INSERT: a record whose id
// already exists is skipped, but any other error in a single record fails
// the whole statement and the call returns that error. Insertion count
// bookkeeping is the orchestrator's job, not this package's.
package candidates
