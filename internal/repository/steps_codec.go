package repository

import (
	"encoding/json"
	"fmt"

	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/domain/entity"
)

// encodeSteps serializes an ordered step list for storage.
func encodeSteps(steps []entity.WorkflowStep) (string, error) {
	if steps == nil {
		steps = []entity.WorkflowStep{}
	}
	raw, err := json.Marshal(steps)
	if err != nil {
		return "", fmt.Errorf("failed to marshal steps: %w", err)
	}
	return string(raw), nil
}

// decodeSteps deserializes a stored step list and re-validates its
// ordering. A row that fails validation indicates store corruption and is
// surfaced as an error rather than silently accepted.
func decodeSteps(raw string) ([]entity.WorkflowStep, error) {
	var steps []entity.WorkflowStep
	if err := json.Unmarshal([]byte(raw), &steps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal steps: %w", err)
	}
	normalized, err := entity.NormalizeSteps(steps)
	if err != nil {
		return nil, fmt.Errorf("stored steps failed validation: %w", err)
	}
	return normalized, nil
}
