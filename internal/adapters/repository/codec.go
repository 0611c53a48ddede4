package repository

import (
	"encoding/json"
	"fmt"

	"github.com/okian/rbd-scoreboard/internal/domain/model"
)

// decodeScores parses the JSON array kept under a local key.
// An empty value is an empty collection.
func decodeScores(raw []byte) ([]model.GameScore, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var scores []model.GameScore
	if err := json.Unmarshal(raw, &scores); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}
	return scores, nil
}

func encodeScores(scores []model.GameScore) ([]byte, error) {
	if scores == nil {
		scores = []model.GameScore{}
	}
	return json.Marshal(scores)
}
