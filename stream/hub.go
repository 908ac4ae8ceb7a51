// Package stream publishes meshes to websocket clients. Every client gets the
// meshes published so far when it connects and each new mesh as it is created.
package stream

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"surface3d/model"
	"surface3d/surface"
	vm "surface3d/vector_math"
)

// MeshData is the JSON message sent for each mesh.
type MeshData struct {
	Type     string       `json:"type"`
	Name     string       `json:"name"`
	Origin   [3]float64   `json:"origin"`
	Vertices [][3]float64 `json:"vertices"`
	Edges    [][2]int     `json:"edges"`
	Faces    [][4]int     `json:"faces"`
	Smooth   bool         `json:"smooth"`
}

// Request is a message a client may send.
type Request struct {
	Type string `json:"type"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub is a MeshSink that broadcasts to all connected websocket clients.
type Hub struct {
	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]*sync.Mutex

	meshesMu sync.RWMutex
	meshes   []MeshData

	log *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*websocket.Conn]*sync.Mutex),
		log:     log,
	}
}

func (h *Hub) CreateMesh(ctx context.Context, name string, origin vm.Vec3, verts []vm.Vec3, edges []model.Edge, faces []surface.Quad) (*model.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := model.CheckFaces(len(verts), faces); err != nil {
		return nil, fmt.Errorf("creating %q: %w", name, err)
	}
	m := model.NewModel(name, origin, verts, edges, faces)
	m.SetSmooth(true)

	data := NewMeshData(m)
	// Publishing and broadcasting happen under meshesMu so a connecting
	// client sees each mesh either in its backlog or as a broadcast.
	h.meshesMu.Lock()
	defer h.meshesMu.Unlock()
	replaced := false
	for i := range h.meshes {
		if h.meshes[i].Name == name {
			h.meshes[i] = data
			replaced = true
			break
		}
	}
	if !replaced {
		h.meshes = append(h.meshes, data)
	}
	h.broadcast(data)
	return m, nil
}

// NewMeshData converts a model into its wire form.
func NewMeshData(m *model.Model) MeshData {
	vertices := make([][3]float64, len(m.Vertices))
	for i, v := range m.Vertices {
		vertices[i] = v.Array()
	}
	edges := make([][2]int, len(m.Edges))
	for i, e := range m.Edges {
		edges[i] = e
	}
	faces := make([][4]int, len(m.Faces))
	for i, q := range m.Faces {
		faces[i] = q
	}
	return MeshData{
		Type:     "mesh",
		Name:     m.Name,
		Origin:   m.Origin.Array(),
		Vertices: vertices,
		Edges:    edges,
		Faces:    faces,
		Smooth:   len(m.Smooth) > 0 && m.Smooth[0],
	}
}

// ServeHTTP upgrades the request, sends all published meshes and then
// serves client requests until the connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// Register and take the backlog in one step, and keep the connection
	// locked until the backlog is out so broadcasts queue up behind it.
	connMutex := &sync.Mutex{}
	h.meshesMu.RLock()
	h.clientsMu.Lock()
	h.clients[conn] = connMutex
	h.clientsMu.Unlock()
	backlog := append([]MeshData(nil), h.meshes...)
	connMutex.Lock()
	h.meshesMu.RUnlock()
	defer h.remove(conn)
	h.log.Debug("client connected", zap.String("remote", conn.RemoteAddr().String()))

	h.write(conn, backlog)
	connMutex.Unlock()

	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			h.log.Debug("client gone", zap.Error(err))
			return
		}
		switch req.Type {
		case "resend":
			h.sendAll(conn, connMutex)
		default:
			h.log.Debug("ignoring request", zap.String("type", req.Type))
		}
	}
}

func (h *Hub) sendAll(conn *websocket.Conn, mu *sync.Mutex) {
	h.meshesMu.RLock()
	meshes := append([]MeshData(nil), h.meshes...)
	h.meshesMu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	h.write(conn, meshes)
}

// write sends meshes in order. The caller holds the connection mutex.
func (h *Hub) write(conn *websocket.Conn, meshes []MeshData) {
	for _, m := range meshes {
		if err := conn.WriteJSON(m); err != nil {
			h.log.Warn("websocket write failed", zap.Error(err))
			return
		}
	}
}

func (h *Hub) broadcast(data MeshData) {
	h.clientsMu.RLock()
	var failed []*websocket.Conn
	for client, mu := range h.clients {
		mu.Lock()
		err := client.WriteJSON(data)
		mu.Unlock()
		if err != nil {
			h.log.Warn("websocket write failed", zap.Error(err))
			client.Close()
			failed = append(failed, client)
		}
	}
	h.clientsMu.RUnlock()

	for _, c := range failed {
		h.remove(c)
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.clientsMu.Lock()
	delete(h.clients, conn)
	h.clientsMu.Unlock()
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	for c := range h.clients {
		c.Close()
		delete(h.clients, c)
	}
}
