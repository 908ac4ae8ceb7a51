package stream

import (
	"context"
	"net/http/httptest"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"surface3d/model"
	"surface3d/surface"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func readMesh(t *testing.T, conn *websocket.Conn) MeshData {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var m MeshData
	require.NoError(t, conn.ReadJSON(&m))
	return m
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Clients() == n }, 5*time.Second, 10*time.Millisecond)
}

func TestHubBroadcast(t *testing.T) {
	h := NewHub(nil)
	srv := httptest.NewServer(h)
	defer srv.Close()
	defer h.Close()

	conn := dial(t, srv)
	defer conn.Close()
	waitClients(t, h, 1)

	_, err := model.Build(context.Background(), h, model.Params{
		Name: "Surface3D",
		Func: surface.HalfSphere,
		U:    2,
		V:    4,
	})
	require.NoError(t, err)

	m := readMesh(t, conn)
	assert.Equal(t, "mesh", m.Type)
	assert.Equal(t, "Surface3D", m.Name)
	assert.Len(t, m.Vertices, 15)
	assert.Len(t, m.Faces, 8)
	assert.Equal(t, [4]int{0, 1, 4, 3}, m.Faces[0])
	assert.Equal(t, [3]float64{0, 0, 1}, m.Vertices[0])
	assert.True(t, m.Smooth)
}

func TestHubSendsPublishedOnConnect(t *testing.T) {
	h := NewHub(nil)
	srv := httptest.NewServer(h)
	defer srv.Close()
	defer h.Close()

	ctx := context.Background()
	for _, name := range []string{"a", "b", "a"} {
		_, err := model.Build(ctx, h, model.Params{Name: name, Func: surface.Plane, U: 1, V: 1})
		require.NoError(t, err)
	}

	conn := dial(t, srv)
	defer conn.Close()
	assert.Equal(t, "a", readMesh(t, conn).Name)
	assert.Equal(t, "b", readMesh(t, conn).Name)

	require.NoError(t, conn.WriteJSON(Request{Type: "resend"}))
	assert.Equal(t, "a", readMesh(t, conn).Name)
	assert.Equal(t, "b", readMesh(t, conn).Name)
}

func TestHubDropsClosedClients(t *testing.T) {
	h := NewHub(nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dial(t, srv)
	waitClients(t, h, 1)
	require.NoError(t, conn.Close())
	waitClients(t, h, 0)
}

func TestServeShutsDown(t *testing.T) {
	h := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0", h, zap.NewNop()) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestHubConnectDuringPublishDeliversOnce(t *testing.T) {
	h := NewHub(nil)
	srv := httptest.NewServer(h)
	defer srv.Close()
	defer h.Close()

	const n = 40
	ctx := context.Background()
	publish := func(name string) {
		_, err := model.Build(ctx, h, model.Params{Name: name, Func: surface.Plane, U: 1, V: 1})
		assert.NoError(t, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			publish(fmt.Sprintf("m%02d", i))
		}()
	}
	conn := dial(t, srv)
	defer conn.Close()
	wg.Wait()
	waitClients(t, h, 1)
	publish("done")

	seen := map[string]int{}
	for {
		m := readMesh(t, conn)
		if m.Name == "done" {
			break
		}
		seen[m.Name]++
	}
	assert.Len(t, seen, n)
	for name, count := range seen {
		assert.Equal(t, 1, count, "%s delivered %d times", name, count)
	}
}
