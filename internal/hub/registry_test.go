package hub

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kangsudal/nerdycatcher-server/internal/models"
)

func TestRegistry_AddRemove(t *testing.T) {
	r := NewRegistry()
	c := NewConn(&fakeWire{})

	r.Add(c)
	assert.Equal(t, 1, r.Len())

	r.Remove(c)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_ForEachOpenSkipsClosed(t *testing.T) {
	r := NewRegistry()

	open := NewConn(&fakeWire{})
	closed := NewConn(&fakeWire{})
	r.Add(open)
	r.Add(closed)

	// 已关闭但尚未移除的连接不能被访问到
	closed.Close()

	var visited []string
	r.ForEachOpen(func(c *Conn) {
		visited = append(visited, c.ID)
	})

	require.Len(t, visited, 1)
	assert.Equal(t, open.ID, visited[0])
}

func TestRegistry_ForEachOpenVisitsOnce(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 10; i++ {
		r.Add(NewConn(&fakeWire{}))
	}

	seen := make(map[string]int)
	r.ForEachOpen(func(c *Conn) {
		seen[c.ID]++
	})

	assert.Len(t, seen, 10)
	for _, n := range seen {
		assert.Equal(t, 1, n)
	}
}

func TestRegistry_FindDeviceByPlant(t *testing.T) {
	r := NewRegistry()

	device := NewConn(&fakeWire{})
	require.NoError(t, device.PromoteDevice(&models.DeviceIdentity{DeviceID: "dev-1", PlantID: "plant-7"}))
	viewer := NewConn(&fakeWire{})
	require.NoError(t, viewer.PromoteViewer(&models.ViewerIdentity{UserID: "user-1"}))
	r.Add(device)
	r.Add(viewer)

	found := r.FindDeviceByPlant("plant-7")
	require.NotNil(t, found)
	assert.Equal(t, device.ID, found.ID)

	assert.Nil(t, r.FindDeviceByPlant("plant-8"))

	// 设备连接关闭后不再可寻址
	device.Close()
	assert.Nil(t, r.FindDeviceByPlant("plant-7"))
}

func TestRegistry_ConcurrentMutationAndIteration(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 50; i++ {
		r.Add(NewConn(&fakeWire{}))
	}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			c := NewConn(&fakeWire{})
			r.Add(c)
			r.Remove(c)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			r.ForEachOpen(func(c *Conn) {
				_ = c.Role()
			})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = r.FindDeviceByPlant("plant-7")
		}
	}()

	wg.Wait()
	assert.Equal(t, 50, r.Len())
}
