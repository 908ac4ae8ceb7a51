package authoring

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/template"
)

// ExtractFromScript returns the record stored in the last "# {...}" comment
// line of a surface script.
func ExtractFromScript(script []byte) (*Record, error) {
	var last string
	sc := bufio.NewScanner(bytes.NewReader(script))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "#") {
			continue
		}
		body := strings.TrimSpace(strings.TrimPrefix(line, "#"))
		if strings.HasPrefix(body, "{") {
			last = body
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if last == "" {
		return nil, ErrNoRecord
	}
	return Parse([]byte(last))
}

var scriptTmpl = template.Must(template.New("script").Parse(`import bpy
from math import *

def createMeshFromData(name, origin, verts, edges, faces):
    me = bpy.data.meshes.new(name+'Mesh')
    ob = bpy.data.objects.new(name, me)
    ob.location = origin
    ob.show_name = False
    bpy.context.collection.objects.link(ob)
    ob.select_set(True)
    me.from_pydata(verts, edges, faces)
    me.polygons.foreach_set("use_smooth", [True] * len(me.polygons))
    me.update()

def apply(m, p):
{{- if .Row}}
    return [sum(p[r]*m[r][c] for r in range(4)) for c in range(4)]
{{- else}}
    return [sum(m[r][c]*p[c] for c in range(4)) for r in range(4)]
{{- end}}

axis = lambda u, v: [{{.Rec.X}}, {{.Rec.Y}}, {{.Rec.Z}}, 1]
matrices = [
{{- range .Rec.Matrices}}
    lambda u, v: [
{{- range .Mat}}
        [{{index . 0}}, {{index . 1}}, {{index . 2}}, {{index . 3}}],
{{- end}}
    ],
{{- end}}
]

def point(s, t):
    p = axis(s, t)
    for m in matrices:
        p = apply(m(s, t), p)
    return p[:3]

u = {{.U}}
v = {{.V}}
verts = [ point(i/u, j/v) for j in range(v+1) for i in range(u+1) ]
faces = [ [(u+1)*j+i, (u+1)*j+i+1, (u+1)*j+i+u+2, (u+1)*j+i+u+1] for j in range(v) for i in range(u)]
createMeshFromData({{printf "%q" .Name}}, [{{.Origin}}], verts, [], faces)

# {{.JSON}}
`))

// WriteScript writes a host script that rebuilds the surface described by
// rec as an object called name, with rec appended as the trailing comment
// so ExtractFromScript can read it back.
func WriteScript(w io.Writer, rec *Record, name string) error {
	u, v, err := rec.Resolution()
	if err != nil {
		return err
	}
	if _, err := rec.source(); err != nil {
		return err
	}
	js, err := rec.Marshal()
	if err != nil {
		return err
	}
	return scriptTmpl.Execute(w, struct {
		Rec    *Record
		Row    bool
		U, V   int
		Name   string
		Origin string
		JSON   string
	}{
		Rec:    rec,
		Row:    rec.MapsTo == MapRow,
		U:      u,
		V:      v,
		Name:   name,
		Origin: "0, 0, 0",
		JSON:   string(js),
	})
}

// ScriptString is WriteScript into a string.
func ScriptString(rec *Record, name string) (string, error) {
	var b strings.Builder
	if err := WriteScript(&b, rec, name); err != nil {
		return "", fmt.Errorf("writing script for %q: %w", name, err)
	}
	return b.String(), nil
}
