package dedupe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWindowSuppressesRepeats(t *testing.T) {
	req := require.New(t)
	w, err := New(time.Minute, 1<<16)
	req.NoError(err)
	defer w.Close()

	key := Key([]byte("announcement:new"), []byte("role:faculty"), []byte(`{"id":"1"}`))
	req.False(w.Seen(key))
	req.True(w.Seen(key))
	req.False(w.Seen(Key([]byte("announcement:new"), []byte("role:student"), []byte(`{"id":"1"}`))))
}

func TestWindowExpires(t *testing.T) {
	req := require.New(t)
	w, err := New(50*time.Millisecond, 1<<16)
	req.NoError(err)
	defer w.Close()

	req.False(w.Seen("k"))
	req.Eventually(func() bool { return !w.Seen("k") }, 2*time.Second, 20*time.Millisecond)
}

func TestDisabledWindow(t *testing.T) {
	w, err := New(0, 0)
	require.NoError(t, err)
	require.Nil(t, w)

	require.False(t, w.Seen("k"))
	require.False(t, w.Seen("k"))
	w.Close()
}

func TestKeyIsUnambiguous(t *testing.T) {
	require.NotEqual(t, Key([]byte("ab"), []byte("c")), Key([]byte("a"), []byte("bc")))
	require.Equal(t, Key([]byte("x")), Key([]byte("x")))
}
