package store

import "context"

// UnreadCache caches unread counts in front of the repository. Failures are
// logged by the store and never fail an operation.
//
// On a miss Get returns a generation token. Set must drop the count when
// Invalidate ran for the user after that token was issued.
type UnreadCache interface {
	Get(ctx context.Context, userID string) (count int, gen int64, ok bool, err error)
	Set(ctx context.Context, userID string, count int, gen int64) error
	Invalidate(ctx context.Context, userIDs ...string) error
}

// NopCache never hits.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (int, int64, bool, error) { return 0, 0, false, nil }
func (NopCache) Set(context.Context, string, int, int64) error         { return nil }
func (NopCache) Invalidate(context.Context, ...string) error           { return nil }
