package authoring

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surface3d/surface"
)

const jellyfishRecord = `{"x":"1","y":"0","z":"0","u":"100","v":"64","active":1,"mapsto":0,"matrices":[{"mat":[["cos(0.5*pi*u)","0","sin(0.5*pi*u)","0"],["0","1","0","0"],["-sin(0.5*pi*u)","0","cos(0.5*pi*u)","0"],["0","0","0","1"]]},{"mat":[["cos(2*pi*v)","sin(2*pi*v)","0","0"],["-sin(2*pi*v)","cos(2*pi*v)","0","0"],["0","0","1","0"],["0","0","0","1"]]}]}`

func TestParse(t *testing.T) {
	rec, err := Parse([]byte(jellyfishRecord))
	require.NoError(t, err)

	assert.Equal(t, "1", rec.X)
	assert.Equal(t, "100", rec.U)
	assert.Equal(t, "64", rec.V)
	assert.True(t, rec.IsActive())
	assert.Equal(t, MapColumn, rec.MapsTo)
	assert.Equal(t, CurrentVersion, rec.Version)
	require.Len(t, rec.Matrices, 2)
	assert.Equal(t, "-sin(0.5*pi*u)", rec.Matrices[0].Mat[2][0])

	u, v, err := rec.Resolution()
	require.NoError(t, err)
	assert.Equal(t, 100, u)
	assert.Equal(t, 64, v)
}

func TestMarshalRoundTrip(t *testing.T) {
	rec, err := Parse([]byte(jellyfishRecord))
	require.NoError(t, err)

	data, err := rec.Marshal()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "\n")

	back, err := Parse(data)
	require.NoError(t, err)
	if diff := cmp.Diff(rec, back); diff != "" {
		t.Errorf("record changed on round trip (-want +got):\n%s", diff)
	}
}

func TestParseRejectsNewerVersion(t *testing.T) {
	_, err := Parse([]byte(`{"version": 99}`))
	assert.Error(t, err)
	_, err = Parse([]byte(`{not json`))
	assert.Error(t, err)
}

func TestResolutionInvalid(t *testing.T) {
	rec := HalfSphereRecord()
	rec.U = "-4"
	_, _, err := rec.Resolution()
	assert.ErrorIs(t, err, surface.ErrInvalidResolution)

	rec.U = "many"
	_, _, err = rec.Resolution()
	assert.Error(t, err)
}

func TestCompileJellyfishRecord(t *testing.T) {
	rec, err := Parse([]byte(jellyfishRecord))
	require.NoError(t, err)

	fn, err := rec.Compile(context.Background())
	require.NoError(t, err)

	p := fn(0, 0)
	assert.InDelta(t, 1, p.X, 1e-12)
	assert.InDelta(t, 0, p.Y, 1e-12)
	assert.InDelta(t, 0, p.Z, 1e-12)

	p = fn(1, 0)
	assert.InDelta(t, 0, p.X, 1e-12)
	assert.InDelta(t, -1, p.Z, 1e-12)

	for _, st := range [][2]float64{{0.3, 0.1}, {0.7, 0.55}, {1, 1}} {
		assert.InDelta(t, 1, fn(st[0], st[1]).Len(), 1e-12, "s=%v t=%v", st[0], st[1])
	}
}

func TestHalfSphereRecordMatchesHalfSphere(t *testing.T) {
	fn, err := HalfSphereRecord().Compile(context.Background())
	require.NoError(t, err)

	for _, st := range [][2]float64{{0, 0}, {1, 0}, {0.25, 0.1}, {0.5, 0.5}, {1, 0.25}, {1, 0.9}} {
		got := fn(st[0], st[1])
		want := surface.HalfSphere(st[0], st[1])
		assert.InDelta(t, want.X, got.X, 1e-12, "x at s=%v t=%v", st[0], st[1])
		assert.InDelta(t, want.Y, got.Y, 1e-12, "y at s=%v t=%v", st[0], st[1])
		assert.InDelta(t, want.Z, got.Z, 1e-12, "z at s=%v t=%v", st[0], st[1])
	}
}

func TestCompileRowMapping(t *testing.T) {
	rec := HalfSphereRecord()
	rec.MapsTo = MapRow
	fn, err := rec.Compile(context.Background())
	require.NoError(t, err)

	// The row-vector product applies the transposed rotations.
	p := fn(0.5, 0)
	assert.InDelta(t, 0, p.X, 1e-12)
	assert.InDelta(t, math.Sin(0.25*math.Pi), p.Y, 1e-12)
	assert.InDelta(t, math.Cos(0.25*math.Pi), p.Z, 1e-12)

	p = fn(1, 0.25)
	want := surface.HalfSphere(1, 0.75)
	assert.InDelta(t, -want.X, p.X, 1e-12)
	assert.InDelta(t, -want.Y, p.Y, 1e-12)
}

func TestCompileIntegerDivision(t *testing.T) {
	rec := &Record{X: "1/2", Y: "3/4*u", Z: "-(1/4)", U: "1", V: "1", Active: 1}
	fn, err := rec.Compile(context.Background())
	require.NoError(t, err)

	p := fn(1, 0)
	assert.InDelta(t, 0.5, p.X, 1e-12)
	assert.InDelta(t, 0.75, p.Y, 1e-12)
	assert.InDelta(t, -0.25, p.Z, 1e-12)
}

func TestCompileTranslation(t *testing.T) {
	rec := &Record{X: "u", Y: "v", Z: "0", U: "1", V: "1", Active: 1, Matrices: []Matrix{{Mat: [4][4]string{
		{"1", "0", "0", "2"},
		{"0", "1", "0", "0"},
		{"0", "0", "1", "0.5"},
		{"0", "0", "0", "1"},
	}}}}
	fn, err := rec.Compile(context.Background())
	require.NoError(t, err)
	p := fn(0.25, 1)
	assert.InDelta(t, 2.25, p.X, 1e-12)
	assert.InDelta(t, 1, p.Y, 1e-12)
	assert.InDelta(t, 0.5, p.Z, 1e-12)
}

func TestCompileUnknownMapping(t *testing.T) {
	rec := HalfSphereRecord()
	rec.MapsTo = 7
	_, err := rec.Compile(context.Background())
	assert.ErrorIs(t, err, ErrUnknownMapping)
}

func TestCompileRejectsBadEntry(t *testing.T) {
	rec := HalfSphereRecord()
	rec.Matrices[1].Mat[0][0] = `os.Exit(1)`
	_, err := rec.Compile(context.Background())
	assert.ErrorIs(t, err, ErrBadExpression)
}

func TestValidateExpr(t *testing.T) {
	for _, ok := range []string{"1", "-0.5", "1/2", "0x10", "cos(2*pi*v)", "pow(u, 2) + sqrt(abs(v))", "(u-v)/e"} {
		assert.NoError(t, ValidateExpr(ok), ok)
	}
	for _, bad := range []string{
		"", "x", `"1"`, "u == v", "u % 2", "math.Sin(u)", "func() float64 { return 1 }()", "u[0]",
		"sin", "cos + 1", "pow(u)", "sin(u, v)", "sin(u)(v)", "99999999999999999999",
	} {
		assert.ErrorIs(t, ValidateExpr(bad), ErrBadExpression, bad)
	}
}

func TestGoExprFloatLiterals(t *testing.T) {
	for in, want := range map[string]string{
		"1/2":             "1.0 / 2.0",
		"0x10*u":          "16.0 * u",
		"-(3 - v)":        "-(3.0 - v)",
		"pow(u, 2) + 1e3": "pow(u, 2.0) + 1e3",
	} {
		got, err := goExpr(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestCompileRejectsBareFunction(t *testing.T) {
	rec := HalfSphereRecord()
	rec.X = "sin"
	_, err := rec.Compile(context.Background())
	assert.ErrorIs(t, err, ErrBadExpression)
}

func TestScriptRoundTrip(t *testing.T) {
	rec := HalfSphereRecord()
	script, err := ScriptString(rec, "Surface3D")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(script, "import bpy\n"))
	assert.Contains(t, script, "u = 32\nv = 128\n")
	assert.Contains(t, script, `createMeshFromData("Surface3D", [0, 0, 0], verts, [], faces)`)
	assert.Contains(t, script, "lambda u, v: [0, 0, 1, 1]")

	back, err := ExtractFromScript([]byte(script))
	require.NoError(t, err)
	if diff := cmp.Diff(rec, back); diff != "" {
		t.Errorf("record changed through script (-want +got):\n%s", diff)
	}
}

func TestExtractFromOriginalScript(t *testing.T) {
	script := "import bpy\nu = 32\nv = 128\n# smooth shade\ncreateMeshFromData('Surface3D', [0, 0, 0], verts, [], faces)\n\n# " + jellyfishRecord + "\n"
	rec, err := ExtractFromScript([]byte(script))
	require.NoError(t, err)
	assert.Equal(t, "100", rec.U)

	_, err = ExtractFromScript([]byte("import bpy\n# just a comment\n"))
	assert.ErrorIs(t, err, ErrNoRecord)
}
