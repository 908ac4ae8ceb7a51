// Package gpu packs sampled surfaces into the vertex and index buffers a
// Vulkan pipeline draws with.
package gpu

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unsafe"

	"surface3d/surface"
	vm "surface3d/vector_math"
)

// Buffers holds a mesh ready for upload: interleaved vertices and a triangle
// list of uint32 indices.
type Buffers struct {
	Vertices []Vertex
	Indices  []uint32
}

// GridUV returns the (s, t) parameters of every grid vertex in vertex order.
func GridUV(g surface.Grid) []vm.Vec2 {
	uv := make([]vm.Vec2, 0, g.VertexCount())
	for j := 0; j <= g.V; j++ {
		for i := 0; i <= g.U; i++ {
			s, t := g.Params(i, j)
			uv = append(uv, vm.Vec2{X: s, Y: t})
		}
	}
	return uv
}

// Pack builds smooth normals for the mesh and splits each quad into the
// triangles (0,1,2) and (0,2,3). Degenerate triangles are kept so the index
// count stays 6 per quad. uv may be nil, leaving texture coordinates at zero.
func Pack(verts []vm.Vec3, faces []surface.Quad, uv []vm.Vec2) *Buffers {
	normals := surface.VertexNormals(verts, faces)
	b := &Buffers{
		Vertices: make([]Vertex, len(verts)),
		Indices:  make([]uint32, 0, 6*len(faces)),
	}
	for k, v := range verts {
		b.Vertices[k] = Vertex{
			Pos:    toVec3f(v),
			Normal: toVec3f(normals[k]),
		}
		if k < len(uv) {
			b.Vertices[k].TexCoord = Vec2f{X: float32(uv[k].X), Y: float32(uv[k].Y)}
		}
	}
	for _, q := range faces {
		b.Indices = append(b.Indices,
			uint32(q[0]), uint32(q[1]), uint32(q[2]),
			uint32(q[0]), uint32(q[2]), uint32(q[3]),
		)
	}
	return b
}

// VertexBufferSize is the size required for keeping the vertices in device memory.
func (b *Buffers) VertexBufferSize() int {
	return int(unsafe.Sizeof(Vertex{})) * len(b.Vertices)
}

// IndexBufferSize is the size required for keeping the indices in device memory.
func (b *Buffers) IndexBufferSize() int {
	return int(unsafe.Sizeof(uint32(0))) * len(b.Indices)
}

// VertexBytes returns the raw little endian bytes of all vertices, the source
// for vk.Memcopy.
func (b *Buffers) VertexBytes() []byte {
	return rawBytes(b.Vertices)
}

// IndexBytes returns the raw little endian bytes of all indices.
func (b *Buffers) IndexBytes() []byte {
	return rawBytes(b.Indices)
}

// bufferMagic starts every buffer file written by WriteBuffers.
const bufferMagic = "S3DB"

var ErrBadBufferFile = errors.New("not a surface3d buffer file")

// WriteBuffers writes b as a buffer file: the magic "S3DB", the vertex and
// index counts as little endian uint32 and then the raw vertex and index
// bytes, ready for vk.Memcopy.
func WriteBuffers(w io.Writer, b *Buffers) error {
	hdr := make([]byte, 12)
	copy(hdr, bufferMagic)
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(len(b.Vertices)))
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(len(b.Indices)))
	for _, part := range [][]byte{hdr, b.VertexBytes(), b.IndexBytes()} {
		if _, err := w.Write(part); err != nil {
			return err
		}
	}
	return nil
}

// ReadBuffers reads a buffer file written by WriteBuffers.
func ReadBuffers(r io.Reader) (*Buffers, error) {
	hdr := make([]byte, 12)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadBufferFile, err)
	}
	if string(hdr[:4]) != bufferMagic {
		return nil, ErrBadBufferFile
	}
	b := &Buffers{
		Vertices: make([]Vertex, binary.LittleEndian.Uint32(hdr[4:8])),
		Indices:  make([]uint32, binary.LittleEndian.Uint32(hdr[8:12])),
	}
	if err := binary.Read(r, binary.LittleEndian, b.Vertices); err != nil {
		return nil, fmt.Errorf("%w: vertices: %v", ErrBadBufferFile, err)
	}
	if err := binary.Read(r, binary.LittleEndian, b.Indices); err != nil {
		return nil, fmt.Errorf("%w: indices: %v", ErrBadBufferFile, err)
	}
	return b, nil
}

// rawBytes writes a given object as its byte representation voiding all type
// information in the process. The types used here are fixed size, so the
// write cannot fail.
func rawBytes(p any) []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.LittleEndian, p)
	return buf.Bytes()
}
