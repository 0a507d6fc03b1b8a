package sessionstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// A Get that observes a lapsed entry must not evict a token that a
// concurrent Set (another tab's login completing) wrote in the window
// between dropping the read lock and taking the write lock.
func TestExpiredGetKeepsConcurrentWrite(t *testing.T) {
	s := NewMemoryStore(time.Hour).(*memStore)
	ctx := context.Background()

	for i := 0; i < 2000; i++ {
		require.NoError(t, s.Set(ctx, "s1", &Token{AccessToken: "stale"}))
		s.mu.Lock()
		e := s.m["s1"]
		e.expires = time.Now().Add(-time.Minute)
		s.m["s1"] = e
		s.mu.Unlock()

		start := make(chan struct{})
		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, _ = s.Get(ctx, "s1")
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_ = s.Set(ctx, "s1", &Token{AccessToken: "fresh"})
		}()
		close(start)
		wg.Wait()

		// The fresh entry has an hour of TTL left; whatever order the
		// goroutines ran in, it must still be here.
		s.mu.Lock()
		cur, ok := s.m["s1"]
		s.mu.Unlock()
		require.True(t, ok, "token written during expired reads was evicted")
		require.Equal(t, "fresh", cur.tok.AccessToken)

		require.NoError(t, s.Delete(ctx, "s1"))
	}
}
