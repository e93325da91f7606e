package sync_

import (
	"sync"
	"testing"
	"time"

	assert_ "github.com/stretchr/testify/assert"
)

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestEvent(t *testing.T) {
	assert := assert_.New(t)
	var e Event

	assert.False(e.IsSet())
	wait := e.Wait()
	assert.False(isClosed(wait))

	assert.True(e.Set())
	assert.True(e.IsSet())
	assert.True(isClosed(wait))
	assert.True(isClosed(e.Wait()))
	// Only the first Set changes anything
	assert.False(e.Set())
	assert.True(e.IsSet())
}

func TestEvent_Waiters(t *testing.T) {
	assert := assert_.New(t)
	e := NewEvent()
	var wg sync.WaitGroup
	var mu sync.Mutex
	woken := 0

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-e.Wait()
			mu.Lock()
			woken++
			mu.Unlock()
		}()
	}
	time.Sleep(10 * time.Millisecond)
	mu.Lock()
	assert.Equal(0, woken)
	mu.Unlock()

	// Racing setters: exactly one of them wins
	var setters sync.WaitGroup
	var mu2 sync.Mutex
	won := 0
	for i := 0; i < 5; i++ {
		setters.Add(1)
		go func() {
			defer setters.Done()
			if e.Set() {
				mu2.Lock()
				won++
				mu2.Unlock()
			}
		}()
	}
	setters.Wait()
	wg.Wait()
	assert.Equal(1, won)
	assert.Equal(20, woken)
}
