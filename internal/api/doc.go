// Package api is the Job Control API (JCA) HTTP binding: createJob, status,
// pause, resume, listHistory, plus the chunk-upload and header-detection
// endpoints the HTTP layer needs to drive the Chunk Assembler and Delimiter
// & Header Detector before a job exists. Routing itself is a named external
// collaborator (spec §1); this package is provided as the supporting
// infrastructure spec §6 documents the contract against.
package api
