// Package authoring reads and writes the authoring record that surface
// scripts carry as a trailing JSON comment. The record describes a surface
// as an axis point pushed through a list of symbolic 4x4 matrices whose
// entries depend on the surface parameters u and v.
package authoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"surface3d/surface"
)

const CurrentVersion = 1

// Mapping modes of Record.MapsTo.
const (
	// MapColumn applies the matrices to the column vector (x,y,z,1), the
	// first listed matrix first.
	MapColumn = 0
	// MapRow multiplies the row vector (x,y,z,1) with the matrices from the
	// left, in listed order.
	MapRow = 1
)

var (
	ErrInactive       = errors.New("authoring record is inactive")
	ErrUnknownMapping = errors.New("unknown mapping mode")
	ErrNoRecord       = errors.New("no authoring record found")
)

// Matrix is a 4x4 matrix of symbolic entries.
type Matrix struct {
	Mat [4][4]string `json:"mat"`
}

// Record is the serialized authoring description of a surface.
type Record struct {
	X        string   `json:"x"`
	Y        string   `json:"y"`
	Z        string   `json:"z"`
	U        string   `json:"u"`
	V        string   `json:"v"`
	Active   int      `json:"active"`
	MapsTo   int      `json:"mapsto"`
	Matrices []Matrix `json:"matrices"`
	Version  int      `json:"version,omitempty"`
}

// Parse decodes a record. Records written before versioning was introduced
// carry no version field and are read as version 1.
func Parse(data []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing authoring record: %w", err)
	}
	if rec.Version == 0 {
		rec.Version = CurrentVersion
	}
	if rec.Version > CurrentVersion {
		return nil, fmt.Errorf("authoring record version %d is newer than supported version %d", rec.Version, CurrentVersion)
	}
	return &rec, nil
}

// Marshal encodes the record on a single line, the form it takes in a
// script comment.
func (r *Record) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (r *Record) IsActive() bool {
	return r.Active == 1
}

// Resolution parses the u and v step counts.
func (r *Record) Resolution() (int, int, error) {
	u, err := strconv.Atoi(strings.TrimSpace(r.U))
	if err != nil {
		return 0, 0, fmt.Errorf("resolution u=%q: %w", r.U, err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(r.V))
	if err != nil {
		return 0, 0, fmt.Errorf("resolution v=%q: %w", r.V, err)
	}
	if _, err := surface.NewGrid(u, v); err != nil {
		return 0, 0, err
	}
	return u, v, nil
}

// HalfSphereRecord is the record of surface.HalfSphere: the pole (0,0,1)
// tilted about x by a quarter turn along u, then spun once about z along v.
func HalfSphereRecord() *Record {
	return &Record{
		X: "0", Y: "0", Z: "1",
		U:      strconv.Itoa(surface.DefaultU),
		V:      strconv.Itoa(surface.DefaultV),
		Active: 1,
		MapsTo: MapColumn,
		Matrices: []Matrix{
			{Mat: [4][4]string{
				{"1", "0", "0", "0"},
				{"0", "cos(0.5*pi*u)", "-sin(0.5*pi*u)", "0"},
				{"0", "sin(0.5*pi*u)", "cos(0.5*pi*u)", "0"},
				{"0", "0", "0", "1"},
			}},
			{Mat: [4][4]string{
				{"cos(2*pi*v)", "-sin(2*pi*v)", "0", "0"},
				{"sin(2*pi*v)", "cos(2*pi*v)", "0", "0"},
				{"0", "0", "1", "0"},
				{"0", "0", "0", "1"},
			}},
		},
		Version: CurrentVersion,
	}
}
