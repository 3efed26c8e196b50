package utils

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// NewJSONTask marshals payload and wraps it in a task of type typename.
func NewJSONTask(typename string, payload interface{}, opts ...asynq.Option) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", typename, err)
	}
	return asynq.NewTask(typename, data, opts...), nil
}

// UnmarshalTask decodes the JSON payload of t into dest.
// An empty payload leaves dest untouched.
func UnmarshalTask(t *asynq.Task, dest interface{}) error {
	if len(t.Payload()) == 0 {
		return nil
	}
	if err := json.Unmarshal(t.Payload(), dest); err != nil {
		return fmt.Errorf("decode %s payload: %w", t.Type(), err)
	}
	return nil
}
