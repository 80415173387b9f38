package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// OBJ format errors.
var (
	ErrInvalidOBJ = errors.New("invalid OBJ data")
	ErrNoGeometry = errors.New("OBJ contains no faces")
)

// DefaultOBJObjectName names faces that appear before any "o" or "g" statement.
const DefaultOBJObjectName = "default"

// OBJVertex is one unique position/uv/normal combination.
type OBJVertex struct {
	Position [3]float32
	Normal   [3]float32
	UV       [2]float32
}

// OBJObject is a named triangle list with a single index per vertex.
type OBJObject struct {
	Name     string
	Vertices []OBJVertex
	Indices  []uint32 // Triangle list, three per face

	GeneratedNormals bool // Some vertices had no "vn" and got a smoothed face normal
	MissingUVs       bool // Some vertices had no "vt" and got (0, 0)
}

// TriangleCount returns the number of triangles in the object.
func (o *OBJObject) TriangleCount() int {
	return len(o.Indices) / 3
}

// OBJ represents a parsed Wavefront OBJ file.
type OBJ struct {
	Objects []OBJObject

	// Raw attribute counts as declared in the file
	PositionCount int
	UVCount       int
	NormalCount   int
}

// TriangleCount returns the number of triangles across all objects.
func (o *OBJ) TriangleCount() int {
	n := 0
	for i := range o.Objects {
		n += o.Objects[i].TriangleCount()
	}
	return n
}

// objCorner is a face corner as referenced in the file, 0-based; -1 means absent.
type objCorner struct {
	pos, uv, normal int
}

type objBuilder struct {
	obj       *OBJ
	positions [][3]float32
	uvs       [][2]float32
	normals   [][3]float32

	cur      *OBJObject
	lookup   map[objCorner]uint32
	needNorm map[uint32]bool
}

// ParseOBJ parses Wavefront OBJ text. Polygons are fan-triangulated and every
// distinct v/vt/vn triple becomes one vertex, so each object maps onto a single
// indexed triangle list. Points, lines and material statements are ignored.
func ParseOBJ(data []byte) (*OBJ, error) {
	b := &objBuilder{obj: &OBJ{}}
	b.startObject(DefaultOBJObjectName)

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		if err := b.statement(fields); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOBJ, err)
	}
	b.finishObject()

	b.obj.PositionCount = len(b.positions)
	b.obj.UVCount = len(b.uvs)
	b.obj.NormalCount = len(b.normals)

	if len(b.obj.Objects) == 0 {
		return nil, ErrNoGeometry
	}
	return b.obj, nil
}

// ParseOBJFile parses an OBJ file from disk.
func ParseOBJFile(path string) (*OBJ, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading OBJ file: %w", err)
	}
	return ParseOBJ(data)
}

func (b *objBuilder) statement(fields []string) error {
	switch fields[0] {
	case "v":
		v, err := parseFloats(fields[1:], 3)
		if err != nil {
			return err
		}
		b.positions = append(b.positions, [3]float32{v[0], v[1], v[2]})
	case "vt":
		v, err := parseFloats(fields[1:], 1)
		if err != nil {
			return err
		}
		uv := [2]float32{v[0], 0}
		if len(v) > 1 {
			uv[1] = v[1]
		}
		b.uvs = append(b.uvs, uv)
	case "vn":
		v, err := parseFloats(fields[1:], 3)
		if err != nil {
			return err
		}
		b.normals = append(b.normals, [3]float32{v[0], v[1], v[2]})
	case "f":
		return b.face(fields[1:])
	case "o", "g":
		name := DefaultOBJObjectName
		if len(fields) > 1 {
			name = strings.Join(fields[1:], " ")
		}
		b.finishObject()
		b.startObject(name)
	}
	// s, usemtl, mtllib, l, p and unknown statements carry nothing we keep.
	return nil
}

func (b *objBuilder) startObject(name string) {
	b.cur = &OBJObject{Name: name}
	b.lookup = make(map[objCorner]uint32)
	b.needNorm = make(map[uint32]bool)
}

func (b *objBuilder) finishObject() {
	if b.cur == nil || len(b.cur.Indices) == 0 {
		return
	}
	if len(b.needNorm) > 0 {
		b.smoothNormals()
		b.cur.GeneratedNormals = true
	}
	b.obj.Objects = append(b.obj.Objects, *b.cur)
	b.cur = nil
}

func (b *objBuilder) face(refs []string) error {
	if len(refs) < 3 {
		return fmt.Errorf("%w: face with %d vertices", ErrInvalidOBJ, len(refs))
	}

	corners := make([]uint32, len(refs))
	for i, ref := range refs {
		c, err := b.parseCorner(ref)
		if err != nil {
			return err
		}
		corners[i] = b.vertex(c)
	}

	for i := 1; i+1 < len(corners); i++ {
		b.cur.Indices = append(b.cur.Indices, corners[0], corners[i], corners[i+1])
	}
	return nil
}

// vertex returns the index of the vertex for c, creating it on first use.
func (b *objBuilder) vertex(c objCorner) uint32 {
	if idx, ok := b.lookup[c]; ok {
		return idx
	}

	v := OBJVertex{Position: b.positions[c.pos]}
	if c.uv >= 0 {
		v.UV = b.uvs[c.uv]
	} else {
		b.cur.MissingUVs = true
	}
	idx := uint32(len(b.cur.Vertices))
	if c.normal >= 0 {
		v.Normal = b.normals[c.normal]
	} else {
		b.needNorm[idx] = true
	}

	b.cur.Vertices = append(b.cur.Vertices, v)
	b.lookup[c] = idx
	return idx
}

// parseCorner decodes "v", "v/vt", "v//vn" or "v/vt/vn".
func (b *objBuilder) parseCorner(ref string) (objCorner, error) {
	parts := strings.Split(ref, "/")
	if len(parts) > 3 {
		return objCorner{}, fmt.Errorf("%w: bad face vertex %q", ErrInvalidOBJ, ref)
	}

	c := objCorner{pos: -1, uv: -1, normal: -1}
	var err error
	if c.pos, err = resolveIndex(parts[0], len(b.positions)); err != nil {
		return objCorner{}, err
	}
	if c.pos < 0 {
		return objCorner{}, fmt.Errorf("%w: face vertex %q has no position", ErrInvalidOBJ, ref)
	}
	if len(parts) > 1 {
		if c.uv, err = resolveIndex(parts[1], len(b.uvs)); err != nil {
			return objCorner{}, err
		}
	}
	if len(parts) > 2 {
		if c.normal, err = resolveIndex(parts[2], len(b.normals)); err != nil {
			return objCorner{}, err
		}
	}
	return c, nil
}

// resolveIndex converts a 1-based (or negative, relative) OBJ index to 0-based.
// An empty reference resolves to -1.
func resolveIndex(s string, count int) (int, error) {
	if s == "" {
		return -1, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: bad index %q", ErrInvalidOBJ, s)
	}
	switch {
	case i > 0 && i <= count:
		return i - 1, nil
	case i < 0 && -i <= count:
		return count + i, nil
	default:
		return 0, fmt.Errorf("%w: index %d out of range (have %d)", ErrInvalidOBJ, i, count)
	}
}

// smoothNormals gives every vertex without an explicit normal the area-weighted
// average of the face normals around it.
func (b *objBuilder) smoothNormals() {
	o := b.cur
	acc := make(map[uint32][3]float64, len(b.needNorm))

	for t := 0; t+2 < len(o.Indices); t += 3 {
		ia, ib, ic := o.Indices[t], o.Indices[t+1], o.Indices[t+2]
		n := faceCross(o.Vertices[ia].Position, o.Vertices[ib].Position, o.Vertices[ic].Position)
		for _, idx := range [3]uint32{ia, ib, ic} {
			if !b.needNorm[idx] {
				continue
			}
			s := acc[idx]
			acc[idx] = [3]float64{s[0] + n[0], s[1] + n[1], s[2] + n[2]}
		}
	}

	for idx := range b.needNorm {
		s := acc[idx]
		l := math.Sqrt(s[0]*s[0] + s[1]*s[1] + s[2]*s[2])
		if l == 0 {
			continue
		}
		o.Vertices[idx].Normal = [3]float32{float32(s[0] / l), float32(s[1] / l), float32(s[2] / l)}
	}
}

// faceCross returns (b-a) × (c-a), whose length is twice the triangle area.
func faceCross(a, b, c [3]float32) [3]float64 {
	ux, uy, uz := float64(b[0]-a[0]), float64(b[1]-a[1]), float64(b[2]-a[2])
	vx, vy, vz := float64(c[0]-a[0]), float64(c[1]-a[1]), float64(c[2]-a[2])
	return [3]float64{uy*vz - uz*vy, uz*vx - ux*vz, ux*vy - uy*vx}
}

// parseFloats parses at least want values.
func parseFloats(fields []string, want int) ([]float32, error) {
	if len(fields) < want {
		return nil, fmt.Errorf("%w: expected %d values, got %d", ErrInvalidOBJ, want, len(fields))
	}
	out := make([]float32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: bad number %q", ErrInvalidOBJ, f)
		}
		out[i] = float32(v)
	}
	return out, nil
}
