//nolint:thelper,whitespace // ok for tests
package broadcast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/snailrace/log"
)

func newHub(src <-chan int, opts ...Option[int]) *Hub[int] {
	return New("test", src, append([]Option[int]{WithLogger[int](log.NewNop())}, opts...)...)
}

func collect(ch <-chan int) []int {
	ret := []int{}
	for v := range ch {
		ret = append(ret, v)
	}
	return ret
}

func TestHub_FanOut(t *testing.T) {
	src := make(chan int)
	h := newHub(src)
	defer h.Close()

	s1 := h.Subscribe()
	s2 := h.Subscribe()
	src <- 1
	assert.Equal(t, 1, <-s1)
	assert.Equal(t, 1, <-s2)

	h.Unsubscribe(s2)
	_, ok := <-s2
	assert.False(t, ok, "unsubscribed channel is closed")

	src <- 2
	assert.Equal(t, 2, <-s1)
}

func TestHub_SlowSubscriberKeepsLatest(t *testing.T) {
	tests := []struct {
		name   string
		buffer int
		want   []int
	}{
		{name: "default", buffer: 0, want: []int{3}},
		{name: "two", buffer: 2, want: []int{2, 3}},
		{name: "all", buffer: 5, want: []int{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := make(chan int)
			h := newHub(src, WithBuffer[int](tt.buffer))
			defer h.Close()
			slow := h.Subscribe()

			done := make(chan struct{})
			go func() {
				for i := 1; i <= 3; i++ {
					src <- i
				}
				close(src)
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("source blocked by slow subscriber")
			}
			assert.Equal(t, tt.want, collect(slow))
		})
	}
}

func TestHub_SubscribeAfterClose(t *testing.T) {
	h := newHub(make(chan int))
	h.Close()
	assert.Eventually(t, func() bool {
		_, ok := <-h.Subscribe()
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestHub_SourceClosed(t *testing.T) {
	src := make(chan int)
	h := newHub(src)
	s := h.Subscribe()
	close(src)
	_, ok := <-s
	assert.False(t, ok)
	h.Close()
}
