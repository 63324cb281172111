// Package store holds the batch key-value backends. Every backend appends to
// a batch's update log atomically; concurrent writers to the same batch are
// last-write-wins for CurrentStage only.
package store

import (
	"encoding/json"
	"fmt"

	"cropchain/internal/batch/models"
)

const keyPrefix = "cropchain:batch:"

func batchKey(batchID string) string {
	return keyPrefix + batchID
}

func encode(b *models.Batch) ([]byte, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode batch %s: %w", b.BatchID, err)
	}
	return data, nil
}

func decode(data []byte) (*models.Batch, error) {
	var b models.Batch
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	return &b, nil
}
