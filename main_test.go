package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surface3d/authoring"
	"surface3d/gpu"
	"surface3d/stl"
	"surface3d/stream"
)

// execute runs the CLI with fresh flag state and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, c := range append([]*cobra.Command{rootCmd}, rootCmd.Commands()...) {
		resetFlags(c.Flags())
		resetFlags(c.PersistentFlags())
	}
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "none.yaml")))
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
}

func TestGenerateSTL(t *testing.T) {
	out := filepath.Join(t.TempDir(), "half_sphere.stl")
	_, err := execute(t, "generate", "--u", "4", "--v", "8", "--out", out)
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	m, err := stl.Read(f)
	require.NoError(t, err)
	assert.Equal(t, "Surface3D", m.Header)
	assert.Len(t, m.Triangles, 2*4*8-8)
}

func TestGenerateJSON(t *testing.T) {
	out := filepath.Join(t.TempDir(), "plane.json")
	_, err := execute(t, "generate", "--function", "plane", "--u", "2", "--v", "3", "--workers", "2", "--format", "json", "--out", out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var m stream.MeshData
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "mesh", m.Type)
	assert.Len(t, m.Vertices, 12)
	assert.Len(t, m.Faces, 6)
	assert.Len(t, m.Edges, 2*4+3*3)
	assert.Equal(t, [3]float64{-1, -1, 0}, m.Vertices[0])
}

func TestGenerateRejectsNegativeResolution(t *testing.T) {
	_, err := execute(t, "generate", "--u", "-2", "--out", filepath.Join(t.TempDir(), "x.stl"))
	assert.Error(t, err)
}

func TestScriptAndRecord(t *testing.T) {
	script, err := execute(t, "script", "--name", "Jelly")
	require.NoError(t, err)
	assert.Contains(t, script, `createMeshFromData("Jelly"`)

	path := filepath.Join(t.TempDir(), "half_sphere.py")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o644))

	printed, err := execute(t, "record", path)
	require.NoError(t, err)
	rec, err := authoring.Parse([]byte(printed))
	require.NoError(t, err)
	assert.Equal(t, authoring.HalfSphereRecord(), rec)

	out := filepath.Join(t.TempDir(), "from_record.stl")
	_, err = execute(t, "generate", "--record", path, "--out", out)
	require.NoError(t, err)
	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(84))
}

func TestGenerateGPUBuffers(t *testing.T) {
	out := filepath.Join(t.TempDir(), "half_sphere.s3db")
	_, err := execute(t, "generate", "--u", "2", "--v", "2", "--format", "gpu", "--out", out)
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	b, err := gpu.ReadBuffers(f)
	require.NoError(t, err)
	require.Len(t, b.Vertices, 9)
	assert.Len(t, b.Indices, 6*4)
	assert.Equal(t, gpu.Vec2f{X: 1, Y: 1}, b.Vertices[8].TexCoord)
}

// writeRecordScript stores the half sphere script at a small resolution.
func writeRecordScript(t *testing.T, u, v string) string {
	t.Helper()
	rec := authoring.HalfSphereRecord()
	rec.U, rec.V = u, v
	script, err := authoring.ScriptString(rec, "Surface3D")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "half_sphere.py")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o644))
	return path
}

func generateJSON(t *testing.T, args ...string) stream.MeshData {
	t.Helper()
	out := filepath.Join(t.TempDir(), "mesh.json")
	_, err := execute(t, append([]string{"generate", "--format", "json", "--out", out}, args...)...)
	require.NoError(t, err)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var m stream.MeshData
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestGenerateRecordResolution(t *testing.T) {
	path := writeRecordScript(t, "2", "3")

	m := generateJSON(t, "--record", path)
	assert.Len(t, m.Faces, 2*3, "record resolution is used by default")

	m = generateJSON(t, "--record", path, "--u", "4", "--v", "8")
	assert.Len(t, m.Faces, 4*8)

	m = generateJSON(t, "--record", path, "--v", "5")
	assert.Len(t, m.Faces, 2*5)

	t.Setenv("SURFACE3D_U", "3")
	m = generateJSON(t, "--record", path)
	assert.Len(t, m.Faces, 3*3)
}

func TestGenerateRecordMatchesBuiltin(t *testing.T) {
	path := writeRecordScript(t, "3", "4")
	fromRecord := generateJSON(t, "--record", path)
	builtin := generateJSON(t, "--u", "3", "--v", "4")

	require.Len(t, fromRecord.Vertices, len(builtin.Vertices))
	for k := range builtin.Vertices {
		for c := 0; c < 3; c++ {
			assert.InDelta(t, builtin.Vertices[k][c], fromRecord.Vertices[k][c], 1e-12, "vertex %d", k)
		}
	}
}
