//go:build !windows

package winuds

import (
	"sync"
	"testing"

	"github.com/marmos91/dittoshm/pkg/port"
	"github.com/stretchr/testify/require"
)

func freshDirectory(t *testing.T) *Directory {
	t.Helper()
	resetForTest()
	d, err := Open()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close(); resetForTest() })
	return d
}

func TestDirectorySetGetRoundTrip(t *testing.T) {
	d := freshDirectory(t)

	require.True(t, d.Set(port.New(12345), "hello world"))
	require.True(t, d.Set(port.New(54321), "some other test"))
	require.True(t, d.Set(port.New(819), "fuuu"))

	name, ok := d.Get(port.New(12345))
	require.True(t, ok)
	require.Equal(t, "hello world", name)

	require.Equal(t, port.New(54321), d.GetPort("some other test"))
	require.Equal(t, port.Unspecified, d.GetPort(""))
	require.Equal(t, port.Unspecified, d.GetPort("x"))
}

func TestDirectoryGetPortRequiresExactMatch(t *testing.T) {
	d := freshDirectory(t)

	require.True(t, d.Set(port.New(100), "abc"))

	require.Equal(t, port.Unspecified, d.GetPort("ab"))
	require.Equal(t, port.Unspecified, d.GetPort("abcd"))
	require.Equal(t, port.New(100), d.GetPort("abc"))
}

func TestDirectoryReset(t *testing.T) {
	d := freshDirectory(t)

	require.True(t, d.Set(port.New(331), "something"))
	name, _ := d.Get(port.New(331))
	require.Equal(t, "something", name)

	require.True(t, d.Reset(port.New(331)))
	name, _ = d.Get(port.New(331))
	require.Equal(t, "", name)
}

func TestDirectoryUnspecifiedPortIsRejected(t *testing.T) {
	d := freshDirectory(t)

	require.False(t, d.Set(port.Unspecified, "anything"))
	_, ok := d.Get(port.Unspecified)
	require.False(t, ok)
	require.False(t, d.Reset(port.Unspecified))
}

// TestDirectoryABASafety exercises the single-writer / multi-reader
// dual-buffer protocol: one goroutine repeatedly overwrites a slot while
// several readers concurrently read it. Every observed value must equal
// the content of some complete prior Set call, never a torn mix of two.
func TestDirectoryABASafety(t *testing.T) {
	d := freshDirectory(t)
	p := port.New(500)

	const iterations = 2000
	values := []string{
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
	}
	valid := map[string]bool{values[0]: true, values[1]: true, "": true}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					name, _ := d.Get(p)
					require.True(t, valid[name], "torn read: %q", name)
				}
			}
		}()
	}

	for i := 0; i < iterations; i++ {
		d.Set(p, values[i%2])
	}
	close(stop)
	wg.Wait()
}
