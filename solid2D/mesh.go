package solid2D

import (
	"fmt"
	"math"
	"sort"

	"github.com/pradeep-pyro/triangle"

	"github.com/notargets/gosolid/utils"
)

// Mesh carries the full simulation state of one deformable body (or
// several, concatenated): positions and velocities as flat DOF slices,
// lumped nodal masses, Dirichlet flags with optional scripted velocities
// and the immutable topology. The integrator is the only mutator of X and
// V between steps; Newton iterations work on their own trial copy.
type Mesh struct {
	X, V        []float64    // 2N, node i at (2i, 2i+1)
	Mass        []float64    // per node, > 0
	Fixed       []bool       // Dirichlet flag per node
	ScriptedVel [][2]float64 // prescribed velocity of fixed nodes

	Edges         [][2]int // unique element edges (spring network)
	Tris          [][3]int
	BoundaryNodes utils.Index
	BoundaryEdges [][2]int
	ContactArea   []float64 // per node; zero off the boundary
}

func (m *Mesh) NumNodes() int { return len(m.Mass) }
func (m *Mesh) NumDOF() int   { return 2 * len(m.Mass) }

// NewBlock builds a w x h rectangular block anchored at (x0, y0),
// triangulated from an (nx+1) x (ny+1) point grid by Delaunay. Lumped
// masses distribute a third of each element's mass to its corners.
func NewBlock(x0, y0, w, h float64, nx, ny int, density float64) (m *Mesh, err error) {
	if nx < 1 || ny < 1 {
		err = fmt.Errorf("block resolution must be at least 1x1, got %dx%d", nx, ny)
		return
	}
	var (
		nNodes = (nx + 1) * (ny + 1)
		pts    = make([][2]float64, 0, nNodes)
	)
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			pts = append(pts, [2]float64{
				x0 + w*float64(i)/float64(nx),
				y0 + h*float64(j)/float64(ny),
			})
		}
	}
	faces := triangle.Delaunay(pts)
	m = &Mesh{
		X:           make([]float64, 2*nNodes),
		V:           make([]float64, 2*nNodes),
		Mass:        make([]float64, nNodes),
		Fixed:       make([]bool, nNodes),
		ScriptedVel: make([][2]float64, nNodes),
		ContactArea: make([]float64, nNodes),
	}
	for i, p := range pts {
		m.X[2*i], m.X[2*i+1] = p[0], p[1]
	}
	for _, f := range faces {
		tri := [3]int{int(f[0]), int(f[1]), int(f[2])}
		// enforce counterclockwise orientation
		if signedArea(m.X, tri) < 0 {
			tri[1], tri[2] = tri[2], tri[1]
		}
		m.Tris = append(m.Tris, tri)
	}
	m.finishTopology(density)
	return
}

func signedArea(x []float64, tri [3]int) float64 {
	var (
		ax, ay = x[2*tri[0]], x[2*tri[0]+1]
		bx, by = x[2*tri[1]], x[2*tri[1]+1]
		cx, cy = x[2*tri[2]], x[2*tri[2]+1]
	)
	return 0.5 * ((bx-ax)*(cy-ay) - (by-ay)*(cx-ax))
}

// finishTopology derives edges, boundary features, masses and contact
// areas from the triangle list.
func (m *Mesh) finishTopology(density float64) {
	type edgeKey struct{ a, b int }
	count := make(map[edgeKey]int)
	for _, tri := range m.Tris {
		area := signedArea(m.X, tri)
		for c := 0; c < 3; c++ {
			m.Mass[tri[c]] += density * area / 3
			a, b := tri[c], tri[(c+1)%3]
			if a > b {
				a, b = b, a
			}
			count[edgeKey{a, b}]++
		}
	}
	var keys []edgeKey
	for k := range count {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].a != keys[j].a {
			return keys[i].a < keys[j].a
		}
		return keys[i].b < keys[j].b
	})
	onBoundary := make(map[int]bool)
	for _, k := range keys {
		m.Edges = append(m.Edges, [2]int{k.a, k.b})
		if count[k] == 1 {
			m.BoundaryEdges = append(m.BoundaryEdges, [2]int{k.a, k.b})
			onBoundary[k.a] = true
			onBoundary[k.b] = true
			// half the edge length accrues to each endpoint
			l := math.Hypot(m.X[2*k.a]-m.X[2*k.b], m.X[2*k.a+1]-m.X[2*k.b+1])
			m.ContactArea[k.a] += 0.5 * l
			m.ContactArea[k.b] += 0.5 * l
		}
	}
	for i := 0; i < m.NumNodes(); i++ {
		if onBoundary[i] {
			m.BoundaryNodes = append(m.BoundaryNodes, i)
		}
	}
}

// Append merges another body into this mesh, reindexing its topology.
// Used to stack blocks for self-contact scenarios.
func (m *Mesh) Append(o *Mesh) {
	off := m.NumNodes()
	m.X = append(m.X, o.X...)
	m.V = append(m.V, o.V...)
	m.Mass = append(m.Mass, o.Mass...)
	m.Fixed = append(m.Fixed, o.Fixed...)
	m.ScriptedVel = append(m.ScriptedVel, o.ScriptedVel...)
	m.ContactArea = append(m.ContactArea, o.ContactArea...)
	for _, e := range o.Edges {
		m.Edges = append(m.Edges, [2]int{e[0] + off, e[1] + off})
	}
	for _, t := range o.Tris {
		m.Tris = append(m.Tris, [3]int{t[0] + off, t[1] + off, t[2] + off})
	}
	for _, e := range o.BoundaryEdges {
		m.BoundaryEdges = append(m.BoundaryEdges, [2]int{e[0] + off, e[1] + off})
	}
	for _, n := range o.BoundaryNodes {
		m.BoundaryNodes = append(m.BoundaryNodes, n+off)
	}
}

// FixNode pins node i, optionally with a scripted velocity.
func (m *Mesh) FixNode(i int, vel [2]float64) {
	m.Fixed[i] = true
	m.ScriptedVel[i] = vel
}

// Translate shifts the whole body.
func (m *Mesh) Translate(dx, dy float64) {
	for i := 0; i < m.NumNodes(); i++ {
		m.X[2*i] += dx
		m.X[2*i+1] += dy
	}
}

// SetVelocity assigns one velocity to every node.
func (m *Mesh) SetVelocity(vx, vy float64) {
	for i := 0; i < m.NumNodes(); i++ {
		m.V[2*i] = vx
		m.V[2*i+1] = vy
	}
}
