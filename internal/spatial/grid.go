// Package spatial provides a sparse uniform grid for proximity queries over
// GameObjects.
package spatial

import (
	"sort"

	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/mironco/rigidcore/internal/engine"
)

const DefaultCellSize = 10

// MaxBoxCells bounds how many cells CellsInAABB enumerates. Objects whose
// bounds cover more cells are kept outside the cell map and checked on every
// query.
const MaxBoxCells = 1 << 16

// Cell coordinates are clamped to [-maxCellCoord, maxCellCoord].
const maxCellCoord = 1 << 20

// CellKey identifies a grid cell in integer coordinates.
type CellKey struct {
	X, Y, Z int32
}

// Filter narrows query results. A nil filter accepts everything.
type Filter func(*engine.GameObject) bool

type tracked struct {
	obj      *engine.GameObject
	cells    []CellKey
	oversize bool
}

// Grid stores each object in every cell its bounds (position ± |scale|/2)
// touch. Only occupied cells are kept. Not safe for concurrent use.
type Grid struct {
	cellSize    float32
	invCellSize float32
	cells       map[CellKey][]*engine.GameObject
	objects     map[uint64]*tracked
	oversize    map[uint64]*engine.GameObject
}

// NewGrid creates a grid. A non-positive cellSize uses DefaultCellSize.
func NewGrid(cellSize float32) *Grid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &Grid{
		cellSize:    cellSize,
		invCellSize: 1 / cellSize,
		cells:       make(map[CellKey][]*engine.GameObject),
		objects:     make(map[uint64]*tracked),
		oversize:    make(map[uint64]*engine.GameObject),
	}
}

func (g *Grid) CellSize() float32 {
	return g.cellSize
}

// WorldToCell returns the cell containing p. Coordinates far outside the
// grid's range land in its boundary cells; NaN maps to 0.
func (g *Grid) WorldToCell(p rl.Vector3) CellKey {
	return CellKey{
		X: cellCoord(p.X * g.invCellSize),
		Y: cellCoord(p.Y * g.invCellSize),
		Z: cellCoord(p.Z * g.invCellSize),
	}
}

func cellCoord(v float32) int32 {
	f := math32.Floor(v)
	switch {
	case math32.IsNaN(f):
		return 0
	case f < -maxCellCoord:
		return -maxCellCoord
	case f > maxCellCoord:
		return maxCellCoord
	}
	return int32(f)
}

// boxSpan counts the cells between lo and hi inclusive. ok is false once the
// count exceeds limit; the returned count is then only a lower bound.
func boxSpan(lo, hi CellKey, limit int64) (n int64, ok bool) {
	n = 1
	for _, d := range [3]int64{
		int64(hi.X) - int64(lo.X) + 1,
		int64(hi.Y) - int64(lo.Y) + 1,
		int64(hi.Z) - int64(lo.Z) + 1,
	} {
		if d <= 0 {
			return 0, true
		}
		n *= d
		if n > limit {
			return n, false
		}
	}
	return n, true
}

// CellsInAABB returns every cell overlapping the box, X-major. It returns nil
// for an inverted box or one covering more than MaxBoxCells cells.
func (g *Grid) CellsInAABB(min, max rl.Vector3) []CellKey {
	lo, hi := g.WorldToCell(min), g.WorldToCell(max)
	n, ok := boxSpan(lo, hi, MaxBoxCells)
	if !ok || n == 0 {
		return nil
	}
	keys := make([]CellKey, 0, n)
	for x := lo.X; x <= hi.X; x++ {
		for y := lo.Y; y <= hi.Y; y++ {
			for z := lo.Z; z <= hi.Z; z++ {
				keys = append(keys, CellKey{x, y, z})
			}
		}
	}
	return keys
}

// cellsFor returns obj's cells, or oversize when its bounds cover more than
// MaxBoxCells cells.
func (g *Grid) cellsFor(obj *engine.GameObject) (cells []CellKey, oversize bool) {
	min, max := obj.Bounds()
	lo, hi := g.WorldToCell(min), g.WorldToCell(max)
	if _, ok := boxSpan(lo, hi, MaxBoxCells); !ok {
		return nil, true
	}
	return g.CellsInAABB(min, max), false
}

// Insert adds obj. Inserting an object already in the grid updates it.
func (g *Grid) Insert(obj *engine.GameObject) {
	if obj == nil {
		return
	}
	if _, ok := g.objects[obj.UID]; ok {
		g.Update(obj)
		return
	}
	t := &tracked{obj: obj}
	t.cells, t.oversize = g.cellsFor(obj)
	g.objects[obj.UID] = t
	g.link(t)
}

// Remove drops obj from every cell. Returns false if it was not in the grid.
func (g *Grid) Remove(obj *engine.GameObject) bool {
	if obj == nil {
		return false
	}
	t, ok := g.objects[obj.UID]
	if !ok {
		return false
	}
	g.unlink(t)
	delete(g.objects, obj.UID)
	return true
}

// Update moves obj to the cells of its current bounds. Objects whose cell
// set did not change are left untouched.
func (g *Grid) Update(obj *engine.GameObject) {
	if obj == nil {
		return
	}
	t, ok := g.objects[obj.UID]
	if !ok {
		g.Insert(obj)
		return
	}
	cells, oversize := g.cellsFor(obj)
	if oversize == t.oversize && sameCells(t.cells, cells) {
		return
	}
	g.unlink(t)
	t.cells, t.oversize = cells, oversize
	g.link(t)
}

func (g *Grid) link(t *tracked) {
	if t.oversize {
		g.oversize[t.obj.UID] = t.obj
		return
	}
	for _, k := range t.cells {
		g.cells[k] = append(g.cells[k], t.obj)
	}
}

func (g *Grid) unlink(t *tracked) {
	if t.oversize {
		delete(g.oversize, t.obj.UID)
		return
	}
	for _, k := range t.cells {
		list := g.cells[k]
		for i, o := range list {
			if o == t.obj {
				list[i] = list[len(list)-1]
				list = list[:len(list)-1]
				break
			}
		}
		if len(list) == 0 {
			delete(g.cells, k)
		} else {
			g.cells[k] = list
		}
	}
}

// sameCells compares cell lists. CellsInAABB emits them in a canonical order.
func sameCells(a, b []CellKey) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// candidates collects the distinct objects in the cells overlapping the box.
func (g *Grid) candidates(min, max rl.Vector3) map[uint64]*engine.GameObject {
	lo, hi := g.WorldToCell(min), g.WorldToCell(max)
	found := make(map[uint64]*engine.GameObject, len(g.oversize))
	visit := func(list []*engine.GameObject) {
		for _, o := range list {
			found[o.UID] = o
		}
	}
	for uid, o := range g.oversize {
		found[uid] = o
	}

	n, ok := boxSpan(lo, hi, int64(len(g.cells)))
	if n == 0 && ok {
		return found
	}
	if !ok {
		// Cheaper to scan the occupied cells than to visit the whole range
		for k, list := range g.cells {
			if k.X >= lo.X && k.X <= hi.X && k.Y >= lo.Y && k.Y <= hi.Y && k.Z >= lo.Z && k.Z <= hi.Z {
				visit(list)
			}
		}
		return found
	}
	for x := lo.X; x <= hi.X; x++ {
		for y := lo.Y; y <= hi.Y; y++ {
			for z := lo.Z; z <= hi.Z; z++ {
				visit(g.cells[CellKey{x, y, z}])
			}
		}
	}
	return found
}

func sortByUID(objs []*engine.GameObject) []*engine.GameObject {
	sort.Slice(objs, func(i, j int) bool { return objs[i].UID < objs[j].UID })
	return objs
}

// QueryRadius returns the objects whose position lies within radius of
// center and that pass filter, ordered by UID.
func (g *Grid) QueryRadius(center rl.Vector3, radius float32, filter Filter) []*engine.GameObject {
	if radius < 0 {
		return nil
	}
	r := rl.Vector3{X: radius, Y: radius, Z: radius}
	r2 := radius * radius
	var out []*engine.GameObject
	for _, o := range g.candidates(rl.Vector3Subtract(center, r), rl.Vector3Add(center, r)) {
		if rl.Vector3LengthSqr(rl.Vector3Subtract(o.Transform.Position, center)) > r2 {
			continue
		}
		if filter != nil && !filter(o) {
			continue
		}
		out = append(out, o)
	}
	return sortByUID(out)
}

// QueryNearest returns the closest object within radius that passes filter,
// or nil. Ties go to the lower UID.
func (g *Grid) QueryNearest(center rl.Vector3, radius float32, filter Filter) *engine.GameObject {
	var best *engine.GameObject
	bestDist := float32(math32.MaxFloat32)
	for _, o := range g.QueryRadius(center, radius, filter) {
		d := rl.Vector3LengthSqr(rl.Vector3Subtract(o.Transform.Position, center))
		if d < bestDist {
			best, bestDist = o, d
		}
	}
	return best
}

// QueryAABB returns the objects whose bounds intersect the box, ordered by UID.
func (g *Grid) QueryAABB(min, max rl.Vector3) []*engine.GameObject {
	var out []*engine.GameObject
	for _, o := range g.candidates(min, max) {
		omin, omax := o.Bounds()
		if omin.X <= max.X && omax.X >= min.X &&
			omin.Y <= max.Y && omax.Y >= min.Y &&
			omin.Z <= max.Z && omax.Z >= min.Z {
			out = append(out, o)
		}
	}
	return sortByUID(out)
}

func (g *Grid) Contains(obj *engine.GameObject) bool {
	if obj == nil {
		return false
	}
	_, ok := g.objects[obj.UID]
	return ok
}

// CellsOf returns the cells obj currently occupies. Oversized objects occupy
// none.
func (g *Grid) CellsOf(obj *engine.GameObject) []CellKey {
	if obj == nil {
		return nil
	}
	t, ok := g.objects[obj.UID]
	if !ok {
		return nil
	}
	return append([]CellKey(nil), t.cells...)
}

func (g *Grid) ObjectCount() int {
	return len(g.objects)
}

// CellCount returns the number of occupied cells.
func (g *Grid) CellCount() int {
	return len(g.cells)
}

func (g *Grid) Clear() {
	g.cells = make(map[CellKey][]*engine.GameObject)
	g.objects = make(map[uint64]*tracked)
	g.oversize = make(map[uint64]*engine.GameObject)
}

// SetCellSize changes the cell size and re-buckets every object.
func (g *Grid) SetCellSize(cellSize float32) {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	if cellSize == g.cellSize {
		return
	}
	objs := make([]*engine.GameObject, 0, len(g.objects))
	for _, t := range g.objects {
		objs = append(objs, t.obj)
	}
	g.cellSize = cellSize
	g.invCellSize = 1 / cellSize
	g.Clear()
	for _, o := range objs {
		g.Insert(o)
	}
}
