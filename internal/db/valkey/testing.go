package valkey

import "github.com/redis/rueidis"

// NewStoreForTest wraps an existing rueidis client, typically a rueidis/mock client.
func NewStoreForTest(c rueidis.Client) *Store {
	return &Store{client: c}
}
