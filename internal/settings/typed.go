package settings

import (
	"encoding/json"
	"fmt"
)

// Get decodes the value stored under key into T. The second return is
// false when the key is absent.
func Get[T any](b *Bucket, key string) (T, bool, error) {
	var zero T

	raw, ok, err := b.GetRaw(key)
	if err != nil || !ok {
		return zero, ok, err
	}

	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return zero, false, fmt.Errorf("failed to unmarshal setting %s/%s: %w", b.Name(), key, err)
	}
	return value, true, nil
}

// GetOr returns the decoded value under key, or fallback when the key is
// absent.
func GetOr[T any](b *Bucket, key string, fallback T) (T, error) {
	value, ok, err := Get[T](b, key)
	if err != nil {
		return fallback, err
	}
	if !ok {
		return fallback, nil
	}
	return value, nil
}
