// Package stl encodes quad meshes as STL. Quads are split along the
// (0,2) diagonal into two triangles; triangles without area, as found at the
// poles of a sampled surface, are dropped since STL cannot express them.
package stl

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"surface3d/surface"
	vm "surface3d/vector_math"
)

const (
	headerSize = 80
	stride     = 50
)

var ErrTruncated = errors.New("truncated stl data")

// Triangle is one STL facet.
type Triangle struct {
	Normal vm.Vec3
	V      [3]vm.Vec3
}

// Model is the content of an STL file.
type Model struct {
	Header    string
	Triangles []Triangle
}

// Triangulate splits every quad into the triangles (0,1,2) and (0,2,3) and
// keeps the ones with a non-zero area.
func Triangulate(verts []vm.Vec3, faces []surface.Quad) []Triangle {
	tris := make([]Triangle, 0, 2*len(faces))
	for _, q := range faces {
		for _, idx := range [2][3]int{{q[0], q[1], q[2]}, {q[0], q[2], q[3]}} {
			a, b, c := verts[idx[0]], verts[idx[1]], verts[idx[2]]
			n := b.Sub(a).Cross(c.Sub(a))
			if n.Len() == 0 {
				continue
			}
			tris = append(tris, Triangle{Normal: n.Norm(), V: [3]vm.Vec3{a, b, c}})
		}
	}
	return tris
}

// Write encodes the mesh as binary STL. name ends up in the 80 byte header.
func Write(w io.Writer, name string, verts []vm.Vec3, faces []surface.Quad) error {
	tris := Triangulate(verts, faces)
	bw := bufio.NewWriter(w)

	header := make([]byte, headerSize)
	copy(header, name)
	if _, err := bw.Write(header); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(tris))); err != nil {
		return err
	}

	rec := make([]byte, stride)
	for _, t := range tris {
		putVec3(rec[0:12], t.Normal)
		putVec3(rec[12:24], t.V[0])
		putVec3(rec[24:36], t.V[1])
		putVec3(rec[36:48], t.V[2])
		// attribute byte count stays zero
		if _, err := bw.Write(rec); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteASCII encodes the mesh as ASCII STL.
func WriteASCII(w io.Writer, name string, verts []vm.Vec3, faces []surface.Quad) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "solid %s\n", name)
	for _, t := range Triangulate(verts, faces) {
		fmt.Fprintf(bw, "  facet normal %g %g %g\n", t.Normal.X, t.Normal.Y, t.Normal.Z)
		fmt.Fprintf(bw, "    outer loop\n")
		for _, v := range t.V {
			fmt.Fprintf(bw, "      vertex %g %g %g\n", v.X, v.Y, v.Z)
		}
		fmt.Fprintf(bw, "    endloop\n  endfacet\n")
	}
	fmt.Fprintf(bw, "endsolid %s\n", name)
	return bw.Flush()
}

// Read parses binary STL.
func Read(r io.Reader) (*Model, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(b) < headerSize+4 {
		return nil, fmt.Errorf("%w: %d bytes, header needs %d", ErrTruncated, len(b), headerSize+4)
	}
	header := b[:headerSize]
	tCnt := binary.LittleEndian.Uint32(b[headerSize : headerSize+4])
	body := b[headerSize+4:]
	if uint64(len(body)) < uint64(tCnt)*stride {
		return nil, fmt.Errorf("%w: %d triangles announced, room for %d", ErrTruncated, tCnt, len(body)/stride)
	}
	return &Model{
		Header:    trimHeader(header),
		Triangles: toTriangles(body, tCnt),
	}, nil
}

func toTriangles(bytes []byte, triangleCnt uint32) []Triangle {
	tris := make([]Triangle, triangleCnt)
	for k := range tris {
		i := k * stride
		tris[k] = Triangle{
			Normal: toVec3(bytes[i : i+12]),
			V: [3]vm.Vec3{
				toVec3(bytes[i+12 : i+24]),
				toVec3(bytes[i+24 : i+36]),
				toVec3(bytes[i+36 : i+48]),
			},
		}
	}
	return tris
}

func trimHeader(h []byte) string {
	end := len(h)
	for end > 0 && (h[end-1] == 0 || h[end-1] == ' ') {
		end--
	}
	return string(h[:end])
}

func putVec3(dst []byte, v vm.Vec3) {
	binary.LittleEndian.PutUint32(dst[0:4], math.Float32bits(float32(v.X)))
	binary.LittleEndian.PutUint32(dst[4:8], math.Float32bits(float32(v.Y)))
	binary.LittleEndian.PutUint32(dst[8:12], math.Float32bits(float32(v.Z)))
}

func toVec3(bytes []byte) vm.Vec3 {
	return vm.Vec3{
		X: toFloat(bytes[:4]),
		Y: toFloat(bytes[4:8]),
		Z: toFloat(bytes[8:12]),
	}
}

func toFloat(bytes []byte) float64 {
	bits := binary.LittleEndian.Uint32(bytes)
	return float64(math.Float32frombits(bits))
}
