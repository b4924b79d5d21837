package http

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/aretw0/seee/pkg/domain"
)

func TestStreamManager(t *testing.T) {
	defer goleak.VerifyNone(t)

	sm := NewStreamManager(nil)
	a, cancelA := sm.Subscribe("s1")
	b, cancelB := sm.Subscribe("s1")
	other, cancelOther := sm.Subscribe("s2")
	defer cancelOther()

	assert.Equal(t, 2, sm.Subscribers("s1"))
	sm.Broadcast("s1", "hello")
	assert.Equal(t, "hello", <-a)
	assert.Equal(t, "hello", <-b)
	assert.Empty(t, other)

	cancelA()
	cancelA()
	_, open := <-a
	assert.False(t, open)
	assert.Equal(t, 1, sm.Subscribers("s1"))

	cancelB()
	assert.Equal(t, 0, sm.Subscribers("s1"))
	sm.Broadcast("s1", "nobody listens")
}

func TestStreamManager_SlowClientDrops(t *testing.T) {
	sm := NewStreamManager(nil)
	ch, cancel := sm.Subscribe("s1")
	defer cancel()

	for i := 0; i < 15; i++ {
		sm.Broadcast("s1", "tick")
	}
	assert.Len(t, ch, 10)
}

func TestStreamManager_ConcurrentSubscribers(t *testing.T) {
	defer goleak.VerifyNone(t)

	sm := NewStreamManager(nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch, cancel := sm.Subscribe("s1")
			sm.Broadcast("s1", "x")
			<-ch
			cancel()
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, sm.Subscribers("s1"))
}

func TestObserver(t *testing.T) {
	sm := NewStreamManager(nil)
	ch, cancel := sm.Subscribe("s1")
	defer cancel()

	stage := domain.StageFillingField
	sm.Observer()(context.Background(), &domain.SessionDiff{SessionID: "s1", Stage: &stage})
	assert.JSONEq(t, `{"session_id":"s1","stage":"filling_field"}`, <-ch)
}

func TestWatched(t *testing.T) {
	diff := `{"session_id":"s1","concepts":{"a":null}}`
	assert.True(t, watched(diff, []string{"concepts"}))
	assert.False(t, watched(diff, []string{"stage", "message"}))
	assert.True(t, watched("not json", []string{"stage"}))
}
