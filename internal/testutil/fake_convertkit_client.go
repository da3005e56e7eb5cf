package testutil

import (
	"context"
	"sync"

	"github.com/elevatehq/elevate-api/internal/integration/convertkit"
)

// TagCall records one TagSubscriber invocation.
type TagCall struct {
	TagID string
	Email string
}

// CancelCall records one CancelPendingEmails invocation.
type CancelCall struct {
	Email      string
	SequenceID int64
}

// FakeConvertKitClient implements convertkit.Client and records calls.
type FakeConvertKitClient struct {
	mu        sync.Mutex
	Sequences []convertkit.Sequence
	TagErr    error
	CancelErr error

	tagCalls    []TagCall
	cancelCalls []CancelCall
}

func NewFakeConvertKitClient() *FakeConvertKitClient {
	return &FakeConvertKitClient{}
}

func (c *FakeConvertKitClient) TagSubscriber(_ context.Context, tagID string, email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.TagErr != nil {
		return c.TagErr
	}
	c.tagCalls = append(c.tagCalls, TagCall{TagID: tagID, Email: email})
	return nil
}

func (c *FakeConvertKitClient) ListSequences(_ context.Context) ([]convertkit.Sequence, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Sequences, nil
}

func (c *FakeConvertKitClient) CancelPendingEmails(_ context.Context, email string, sequenceID int64) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.CancelErr != nil {
		return 0, c.CancelErr
	}
	c.cancelCalls = append(c.cancelCalls, CancelCall{Email: email, SequenceID: sequenceID})
	return 1, nil
}

// TagCalls returns a copy of recorded tag calls.
func (c *FakeConvertKitClient) TagCalls() []TagCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]TagCall, len(c.tagCalls))
	copy(out, c.tagCalls)
	return out
}

// CancelCalls returns a copy of recorded cancellation calls.
func (c *FakeConvertKitClient) CancelCalls() []CancelCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CancelCall, len(c.cancelCalls))
	copy(out, c.cancelCalls)
	return out
}
