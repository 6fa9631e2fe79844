package lazy

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBuildsOnce(t *testing.T) {
	calls := 0
	v := New(func() (int, error) {
		calls++
		return 42, nil
	})

	got, err := v.Get()
	require.NoError(t, err)
	assert.Equal(t, 42, got)

	got, err = v.Get()
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 1, calls)
}

func TestGetCachesFailure(t *testing.T) {
	calls := 0
	boom := errors.New("csv not found")
	v := New(func() (string, error) {
		calls++
		return "", boom
	})

	_, err := v.Get()
	require.ErrorIs(t, err, boom)

	// The failed build is never retried.
	_, err = v.Get()
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestGetConcurrent(t *testing.T) {
	calls := 0
	v := New(func() (int, error) {
		calls++
		return 7, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := v.Get()
			assert.NoError(t, err)
			assert.Equal(t, 7, got)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, calls)
}
