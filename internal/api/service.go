package api

import (
	"github.com/redis/go-redis/v9"

	"github.com/ignite/candidate-ingest/internal/ingest"
	"github.com/ignite/candidate-ingest/internal/jobstore"
	"github.com/ignite/candidate-ingest/internal/queue"
	"github.com/ignite/candidate-ingest/internal/storage"
)

// Service holds everything the Job Control API (JCA) handlers need: the
// Chunk Assembler for in-flight uploads, the job store for lifecycle and
// status, the queue to hand processing off to a worker, and the Object
// Store Adapter to re-run header detection against an already-assembled
// file.
type Service struct {
	chunks *ingest.ChunkAssembler
	jobs   *jobstore.Service
	queue  queue.Queue
	store  storage.Adapter
}

// NewService wires a JCA service.
func NewService(store storage.Adapter, redisClient *redis.Client, jobs *jobstore.Service, q queue.Queue) *Service {
	return &Service{
		chunks: ingest.NewChunkAssembler(store, redisClient),
		jobs:   jobs,
		queue:  q,
		store:  store,
	}
}
