package testutil

import (
	"context"
	"sync"

	"github.com/fastygo/gameday/repository"
)

// Feed is an in-process repository.ChangeFeed.
type Feed struct {
	mu   sync.Mutex
	subs map[string][]chan struct{}

	Published int
}

var _ repository.ChangeFeed = (*Feed)(nil)

func NewFeed() *Feed {
	return &Feed{subs: make(map[string][]chan struct{})}
}

func (f *Feed) Publish(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Published++
	for _, ch := range f.subs[userID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (f *Feed) Subscribe(ctx context.Context, userID string) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)
	f.mu.Lock()
	f.subs[userID] = append(f.subs[userID], ch)
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		defer f.mu.Unlock()
		subs := f.subs[userID]
		for i, c := range subs {
			if c == ch {
				f.subs[userID] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}

// Subscribers reports how many live subscriptions userID has.
func (f *Feed) Subscribers(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[userID])
}
