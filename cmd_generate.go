package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"surface3d/authoring"
	"surface3d/config"
	"surface3d/gpu"
	"surface3d/model"
	"surface3d/stl"
	"surface3d/stream"
	"surface3d/surface"
	vm "surface3d/vector_math"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Sample the configured surface and write the mesh",
	Long: `Samples the configured surface and writes the mesh to --out (stdout by
default) as binary STL, ASCII STL, JSON or a GPU buffer file.
With --record the record's own resolution is used unless --u or --v is given.

Example:
  surface3d generate --u 16 --v 64 --format stl-ascii --out half_sphere.stl`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	addSurfaceFlags(generateCmd)
	generateCmd.Flags().String("format", "", "output format: stl, stl-ascii, json or gpu")
	generateCmd.Flags().String("out", "", `output path, "-" for stdout`)
}

// addSurfaceFlags registers the flags that override the surface section of
// the config.
func addSurfaceFlags(cmd *cobra.Command) {
	cmd.Flags().Int("u", 0, "steps along u (s parameter)")
	cmd.Flags().Int("v", 0, "steps along v (t parameter)")
	cmd.Flags().String("function", "", "surface function: halfsphere, plane or record")
	cmd.Flags().String("record", "", "authoring record or script carrying one")
	cmd.Flags().String("name", "", "mesh object name")
	cmd.Flags().Int("workers", 0, "sample rows on this many goroutines")
}

// applyFlags copies explicitly set flags over the loaded config.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	f := cmd.Flags()
	if f.Changed("u") {
		c.Surface.U, _ = f.GetInt("u")
	}
	if f.Changed("v") {
		c.Surface.V, _ = f.GetInt("v")
	}
	if f.Changed("function") {
		c.Surface.Function, _ = f.GetString("function")
	}
	if f.Changed("record") {
		c.Surface.Record, _ = f.GetString("record")
		if !f.Changed("function") {
			c.Surface.Function = config.FunctionRecord
		}
	}
	if f.Changed("name") {
		c.Surface.Name, _ = f.GetString("name")
	}
	if f.Changed("workers") {
		c.Sampling.Workers, _ = f.GetInt("workers")
	}
	if f.Lookup("format") != nil && f.Changed("format") {
		c.Output.Format, _ = f.GetString("format")
	}
	if f.Lookup("out") != nil && f.Changed("out") {
		c.Output.Path, _ = f.GetString("out")
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	w, closeOut, err := openOutput(cmd, cfg.Output.Path)
	if err != nil {
		return err
	}
	defer closeOut()

	switch cfg.Output.Format {
	case config.FormatSTL, config.FormatSTLASCII:
		sink := stl.NewSink(w, cfg.Output.Format == config.FormatSTLASCII, logger)
		_, err = buildConfigured(cmd, sink, cfg)
		return err
	case config.FormatGPU:
		sink := gpu.NewSink(logger)
		m, err := buildConfigured(cmd, sink, cfg)
		if err != nil {
			return err
		}
		b, _ := sink.Buffers(m.Name)
		return gpu.WriteBuffers(w, b)
	default:
		scene := model.NewScene(logger)
		m, err := buildConfigured(cmd, scene, cfg)
		if err != nil {
			return err
		}
		m.Edges = model.EdgesFromFaces(m.Faces)
		enc := json.NewEncoder(w)
		return enc.Encode(stream.NewMeshData(m))
	}
}

// buildConfigured builds the surface the config describes into sink.
func buildConfigured(cmd *cobra.Command, sink model.MeshSink, c *config.Config) (*model.Model, error) {
	ctx := cmd.Context()
	s := c.Surface
	p := model.Params{
		Name:      s.Name,
		Origin:    vm.Vec3{X: s.Origin[0], Y: s.Origin[1], Z: s.Origin[2]},
		U:         s.U,
		V:         s.V,
		Transform: s.Transform.Matrix(),
		Workers:   c.Sampling.Workers,
	}
	if p.Transform != nil {
		logger.Debug("surface transform", zap.Stringer("matrix", p.Transform))
	}

	var (
		m   *model.Model
		err error
	)
	if s.Function == config.FunctionRecord {
		rec, rerr := loadRecord(s.Record)
		if rerr != nil {
			return nil, rerr
		}
		overrideRecordResolution(cmd, rec, s)
		m, err = model.BuildRecord(ctx, sink, p, rec)
	} else {
		p.Func, _ = surface.Named(s.Function)
		m, err = model.Build(ctx, sink, p)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("surface built",
		zap.String("name", m.Name),
		zap.String("function", s.Function),
		zap.Int("vertices", len(m.Vertices)),
		zap.Int("faces", len(m.Faces)),
	)
	return m, nil
}

// overrideRecordResolution replaces the record's step counts with --u/--v or
// SURFACE3D_U/V when those are given. Otherwise the record keeps its own.
func overrideRecordResolution(cmd *cobra.Command, rec *authoring.Record, s config.SurfaceConfig) {
	if explicitlySet(cmd, "u", config.EnvU) {
		rec.U = strconv.Itoa(s.U)
	}
	if explicitlySet(cmd, "v", config.EnvV) {
		rec.V = strconv.Itoa(s.V)
	}
	logger.Debug("record resolution", zap.String("u", rec.U), zap.String("v", rec.V))
}

func explicitlySet(cmd *cobra.Command, flag, env string) bool {
	if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
		return true
	}
	return os.Getenv(env) != ""
}

// loadRecord reads an authoring record from a JSON file or from the trailing
// comment of a script.
func loadRecord(path string) (*authoring.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	if rec, err := authoring.Parse(data); err == nil {
		return rec, nil
	}
	rec, err := authoring.ExtractFromScript(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}

func openOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() {
		if err := f.Close(); err != nil {
			logger.Warn("closing output", zap.String("path", path), zap.Error(err))
		}
	}, nil
}
