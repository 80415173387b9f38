// Package scene loads models, turns them into sampled point buffers and re-samples
// them when the stroke density changes.
package scene

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/stipple/internal/config"
	"github.com/Faultbox/stipple/internal/engine/camera"
	"github.com/Faultbox/stipple/internal/logger"
	"github.com/Faultbox/stipple/internal/mesh"
	"github.com/Faultbox/stipple/internal/pipeline"
	"github.com/Faultbox/stipple/internal/sampler"
	"github.com/Faultbox/stipple/pkg/formats"
)

// ErrNoModel is returned when no model path was configured.
var ErrNoModel = errors.New("no model path given")

// seedStride separates the per-model sampling streams.
const seedStride = 0x9e3779b97f4a7c15

// Model is one mesh of the scene with a stable identity across re-samples.
type Model struct {
	ID    uuid.UUID
	Name  string
	Mesh  *mesh.Mesh
	Stats sampler.Stats // From the most recent sampling pass
}

// Scene is the set of models loaded from one file.
type Scene struct {
	Source  string
	Models  []*Model
	Seed    uint64
	Workers int

	density float32
	brushes int
}

// New builds a scene from meshes that are already in memory. Every mesh must pass
// Validate. seed 0 picks a random seed.
func New(source string, seed uint64, workers int, meshes ...*mesh.Mesh) (*Scene, error) {
	if seed == 0 {
		seed = rand.Uint64()
		logger.Info("picked sampling seed", zap.Uint64("seed", seed))
	}
	s := &Scene{Source: source, Seed: seed, Workers: workers}
	for _, m := range meshes {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("model %q: %w", m.Name, err)
		}
		s.Models = append(s.Models, &Model{ID: uuid.New(), Name: m.Name, Mesh: m})
	}
	return s, nil
}

// Load reads the configured OBJ file, samples every model at the configured density
// and returns the scene together with its point buffers.
func Load(ctx context.Context, cfg config.SceneConfig, workers int) (*Scene, pipeline.BufferSet, error) {
	if cfg.Model == "" {
		return nil, nil, ErrNoModel
	}

	obj, err := formats.ParseOBJFile(cfg.Model)
	if err != nil {
		return nil, nil, fmt.Errorf("loading %s: %w", cfg.Model, err)
	}
	for _, o := range obj.Objects {
		logger.Info("loaded model",
			zap.String("model", o.Name),
			zap.Int("triangles", o.TriangleCount()),
			zap.Int("vertices", len(o.Vertices)),
		)
		if o.GeneratedNormals {
			logger.Warn("model has no normals, using smoothed face normals", zap.String("model", o.Name))
		}
		if o.MissingUVs {
			logger.Warn("model has vertices without uvs, tangent frames will fall back", zap.String("model", o.Name))
		}
	}

	s, err := New(cfg.Model, cfg.Seed, workers, MeshesFromOBJ(obj)...)
	if err != nil {
		return nil, nil, err
	}

	buffers, err := s.Sample(ctx, cfg.StrokeDensity, cfg.Brushes)
	if err != nil {
		return nil, nil, err
	}
	return s, buffers, nil
}

// Sample (re-)samples every model in parallel and returns one buffer per model,
// keyed by the model IDs. The result only depends on the scene seed, density and
// brushes.
func (s *Scene) Sample(ctx context.Context, density float32, brushes int) (pipeline.BufferSet, error) {
	buffers := make(pipeline.BufferSet, len(s.Models))
	stats := make([]sampler.Stats, len(s.Models))

	g, ctx := errgroup.WithContext(ctx)
	for i, m := range s.Models {
		g.Go(func() error {
			start := time.Now()
			seed := s.Seed + uint64(i)*seedStride
			points, st, err := sampler.SampleParallel(ctx, m.Mesh, density, brushes, seed, s.Workers)
			if err != nil {
				return fmt.Errorf("sampling %q: %w", m.Name, err)
			}
			logger.Info("generated points",
				zap.String("model", m.Name),
				zap.Stringer("id", m.ID),
				zap.Int("points", len(points)),
				zap.Duration("took", time.Since(start)),
			)
			buffers[i] = pipeline.Buffer{ID: m.ID, Name: m.Name, Points: points}
			stats[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, m := range s.Models {
		m.Stats = stats[i]
	}
	s.density = density
	s.brushes = brushes
	return buffers, nil
}

// NeedsResample reports whether cfg asks for a different density or brush count than
// the last sampling pass.
func (s *Scene) NeedsResample(cfg config.SceneConfig) bool {
	return cfg.StrokeDensity != s.density || cfg.Brushes != s.brushes
}

// Density returns the density of the last sampling pass.
func (s *Scene) Density() float32 { return s.density }

// Brushes returns the brush count of the last sampling pass.
func (s *Scene) Brushes() int { return s.brushes }

// MeshesFromOBJ converts every OBJ object into a mesh.
func MeshesFromOBJ(obj *formats.OBJ) []*mesh.Mesh {
	meshes := make([]*mesh.Mesh, 0, len(obj.Objects))
	for i := range obj.Objects {
		meshes = append(meshes, MeshFromOBJ(&obj.Objects[i]))
	}
	return meshes
}

// MeshFromOBJ converts one OBJ object into a mesh. Indices are shared, not copied.
func MeshFromOBJ(o *formats.OBJObject) *mesh.Mesh {
	m := &mesh.Mesh{
		Name:      o.Name,
		Positions: make([]mgl32.Vec3, len(o.Vertices)),
		Normals:   make([]mgl32.Vec3, len(o.Vertices)),
		UVs:       make([]mgl32.Vec2, len(o.Vertices)),
		Indices:   o.Indices,
	}
	for i, v := range o.Vertices {
		m.Positions[i] = v.Position
		m.Normals[i] = v.Normal
		m.UVs[i] = v.UV
	}
	return m
}

// ModelMatrix builds the initial model transform: scale, then rotation about X, Y
// and Z in that order, then translation.
func ModelMatrix(t config.TransformConfig) mgl32.Mat4 {
	scale := t.Scale
	if scale == 0 {
		scale = 1
	}
	rot := mgl32.HomogRotate3DZ(mgl32.DegToRad(t.RotationDeg[2])).
		Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(t.RotationDeg[1]))).
		Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(t.RotationDeg[0])))
	return mgl32.Translate3D(t.Translation[0], t.Translation[1], t.Translation[2]).
		Mul4(rot).
		Mul4(mgl32.Scale3D(scale, scale, scale))
}

// NewCamera builds the initial camera from config.
func NewCamera(cfg config.CameraConfig, aspect float32) *camera.Camera {
	return camera.New(
		mgl32.Vec3(cfg.Position),
		mgl32.Vec3(cfg.Direction),
		mgl32.DegToRad(cfg.FOVDeg),
		aspect,
		cfg.Near,
		cfg.Far,
	)
}
