package iosvc

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWaitBlocksUntilAllGoroutinesReturn(t *testing.T) {
	s := New()
	var done int32
	for i := 0; i < 8; i++ {
		s.Go(func() {
			atomic.AddInt32(&done, 1)
		})
	}
	s.Wait()
	assert.EqualValues(t, 8, atomic.LoadInt32(&done))
}
