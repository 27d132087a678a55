package ingest

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/candidate-ingest/internal/storage"
)

// ChunkStatus is the outcome of a single receiveChunk call.
type ChunkStatus string

const (
	ChunkInProgress ChunkStatus = "IN_PROGRESS"
	ChunkComplete   ChunkStatus = "COMPLETE"
)

// ChunkResult is the response contract for receiveChunk.
type ChunkResult struct {
	Status      ChunkStatus
	ProgressPct int
	Headers     []string
	StorageKey  string
}

// headerSniffBytes bounds how much of the assembled object the Chunk
// Assembler re-reads to run header detection on the final chunk.
const headerSniffBytes = 64 * 1024

var unsafeKeyChar = regexp.MustCompile(`[^A-Za-z0-9.\-]`)

func sanitizeFileName(name string) string {
	return unsafeKeyChar.ReplaceAllString(name, "_")
}

// ChunkAssembler is the Chunk Assembler (CA): it accepts ordered chunk
// uploads, appends them to a growing object via the Object Store Adapter,
// and finalizes into a single stored object once the last chunk arrives.
//
// A client's in-flight upload is tracked in Redis under a manifest key keyed
// by (userID, fileName); the assigned storage key and received chunk indices
// live there until the upload finalizes, at which point the manifest is
// deleted. Redis is not the source of truth for the assembled bytes — OSA
// is — only for "which chunks has this upload seen so far".
type ChunkAssembler struct {
	store storage.Adapter
	redis *redis.Client
}

// NewChunkAssembler builds a Chunk Assembler over the given Object Store
// Adapter and Redis client.
func NewChunkAssembler(store storage.Adapter, redisClient *redis.Client) *ChunkAssembler {
	return &ChunkAssembler{store: store, redis: redisClient}
}

func manifestKey(userID, fileName string) string {
	return fmt.Sprintf("upload:manifest:%s:%s", userID, fileName)
}

func chunkSetKey(userID, fileName string) string {
	return fmt.Sprintf("upload:chunks:%s:%s", userID, fileName)
}

// ReceiveChunk implements the CA contract (spec §4.2). chunkIndex is 0-based.
// mappingValues, when non-empty, are passed to the Delimiter & Header
// Detector on the final chunk to locate the header row.
func (ca *ChunkAssembler) ReceiveChunk(ctx context.Context, userID, fileName string, chunkIndex, totalChunks int, data []byte, mappingValues []string) (ChunkResult, error) {
	mKey := manifestKey(userID, fileName)
	cKey := chunkSetKey(userID, fileName)

	storageKey, err := ca.storageKeyFor(ctx, mKey, userID, fileName, chunkIndex)
	if err != nil {
		return ChunkResult{}, fmt.Errorf("ingest: resolve storage key: %w", err)
	}

	if err := ca.store.AppendViaRewrite(ctx, storageKey, data); err != nil {
		return ChunkResult{}, fmt.Errorf("ingest: append chunk %d for %s: %w", chunkIndex, fileName, err)
	}

	if err := ca.redis.SAdd(ctx, cKey, chunkIndex).Err(); err != nil {
		return ChunkResult{}, fmt.Errorf("ingest: record chunk %d: %w", chunkIndex, err)
	}

	if chunkIndex < totalChunks-1 {
		pct := roundPct(chunkIndex+1, totalChunks)
		return ChunkResult{Status: ChunkInProgress, ProgressPct: pct, StorageKey: storageKey}, nil
	}

	headers, err := ca.finalize(ctx, storageKey, mappingValues)
	if err != nil {
		return ChunkResult{}, fmt.Errorf("ingest: finalize upload for %s: %w", fileName, err)
	}

	ca.redis.Del(ctx, mKey, cKey)

	return ChunkResult{
		Status:      ChunkComplete,
		ProgressPct: 100,
		Headers:     headers,
		StorageKey:  storageKey,
	}, nil
}

func roundPct(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int((100*float64(done)/float64(total))+0.5)
}

// storageKeyFor returns the storage key for this logical upload, assigning
// one (and persisting it in the manifest) on the first chunk.
func (ca *ChunkAssembler) storageKeyFor(ctx context.Context, mKey, userID, fileName string, chunkIndex int) (string, error) {
	if chunkIndex == 0 {
		key := fmt.Sprintf("uploads/%s/%d_%s", userID, time.Now().UnixNano(), sanitizeFileName(fileName))
		if err := ca.redis.HSet(ctx, mKey, "storageKey", key).Err(); err != nil {
			return "", err
		}
		return key, nil
	}

	key, err := ca.redis.HGet(ctx, mKey, "storageKey").Result()
	if err != nil {
		if err == redis.Nil {
			return "", fmt.Errorf("ingest: no in-progress upload for %s (chunk %d arrived before chunk 0)", fileName, chunkIndex)
		}
		return "", err
	}
	return key, nil
}

// finalize re-reads the head of the assembled object and runs header
// detection on it.
func (ca *ChunkAssembler) finalize(ctx context.Context, storageKey string, mappingValues []string) ([]string, error) {
	end := int64(headerSniffBytes - 1)
	body, err := ca.store.GetRange(ctx, storageKey, 0, &end)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	result, _, err := DetectHeaders(body, mappingValues)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return result.Headers, nil
}
