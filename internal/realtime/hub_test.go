package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/quizdeck/quiz-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn records written frames and can be told to fail.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	fail   bool
	closed bool
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broken pipe")
	}
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func newTestHub() *Hub {
	return NewHub(utils.NewDevelopmentLogger())
}

func TestHub_RegisterAndCount(t *testing.T) {
	hub := newTestHub()
	userID := uuid.New()

	hub.Register(userID, &fakeConn{})
	hub.Register(userID, &fakeConn{})

	assert.Equal(t, 2, hub.ConnectionCount(userID))
	assert.Equal(t, 0, hub.ConnectionCount(uuid.New()))
}

func TestHub_PushReachesAllConnections(t *testing.T) {
	hub := newTestHub()
	userID := uuid.New()

	first := &fakeConn{}
	second := &fakeConn{}
	hub.Register(userID, first)
	hub.Register(userID, second)

	hub.Push(context.Background(), userID, NewPongFrame())

	require.Equal(t, 1, first.frameCount())
	require.Equal(t, 1, second.frameCount())

	var frame PongFrame
	require.NoError(t, json.Unmarshal(first.frames[0], &frame))
	assert.Equal(t, FramePong, frame.Type)
}

func TestHub_PushToUnknownUserIsNoop(t *testing.T) {
	hub := newTestHub()
	hub.Push(context.Background(), uuid.New(), NewPongFrame())
}

func TestHub_FailedWriteDropsOnlyThatConnection(t *testing.T) {
	hub := newTestHub()
	userID := uuid.New()

	healthy := &fakeConn{}
	broken := &fakeConn{fail: true}
	hub.Register(userID, healthy)
	hub.Register(userID, broken)

	hub.Push(context.Background(), userID, NewPongFrame())

	assert.Equal(t, 1, healthy.frameCount(), "healthy connection still receives the push")
	assert.Equal(t, 1, hub.ConnectionCount(userID), "only the broken connection is dropped")
	assert.True(t, broken.closed)
}

func TestHub_UnregisterRemovesEmptyUserEntry(t *testing.T) {
	hub := newTestHub()
	userID := uuid.New()

	conn := hub.Register(userID, &fakeConn{})
	hub.Unregister(conn)

	assert.Equal(t, 0, hub.ConnectionCount(userID))

	hub.mu.RLock()
	_, exists := hub.users[userID]
	hub.mu.RUnlock()
	assert.False(t, exists, "empty set removes the user entry")
}

func TestHub_RegisterDuringLastUnregisterStaysReachable(t *testing.T) {
	hub := newTestHub()
	userID := uuid.New()

	// Interleave registering a fresh connection with unregistering the
	// user's only other one. The fresh connection must land in the live
	// entry, never in a set that Unregister just removed.
	for i := 0; i < 500; i++ {
		old := hub.Register(userID, &fakeConn{})

		done := make(chan struct{})
		go func() {
			hub.Unregister(old)
			close(done)
		}()

		ws := &fakeConn{}
		conn := hub.Register(userID, ws)
		<-done

		hub.Push(context.Background(), userID, NewPongFrame())
		require.Equal(t, 1, ws.frameCount(), "registered connection missed a push")
		hub.Unregister(conn)
	}
}

func TestHub_ConcurrentRegisterPushUnregister(t *testing.T) {
	hub := newTestHub()
	users := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	var wg sync.WaitGroup
	for _, userID := range users {
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(id uuid.UUID) {
				defer wg.Done()
				conn := hub.Register(id, &fakeConn{})
				hub.Push(context.Background(), id, NewPongFrame())
				hub.Unregister(conn)
			}(userID)
		}
	}
	wg.Wait()

	for _, userID := range users {
		assert.Equal(t, 0, hub.ConnectionCount(userID))
	}
}
