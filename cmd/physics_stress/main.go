// Stress test comparing grid radius queries against brute force, and timing
// physics steps as the body count grows
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/mironco/rigidcore/internal/config"
	"github.com/mironco/rigidcore/internal/engine"
	"github.com/mironco/rigidcore/internal/physics"
	"github.com/mironco/rigidcore/internal/rigidbody"
	"github.com/mironco/rigidcore/internal/spatial"
)

func main() {
	cellSize := flag.Float64("cell", spatial.DefaultCellSize, "grid cell size")
	steps := flag.Int("steps", 120, "physics steps timed per body count")
	flag.Parse()

	// Test various object counts
	testCounts := []int{100, 500, 1000, 2000, 5000, 10000}

	fmt.Println("Radius queries")
	for _, count := range testCounts {
		testRadiusQuery(count, float32(*cellSize))
	}

	fmt.Println("\nPhysics steps")
	for _, count := range testCounts[:4] {
		testPhysicsStep(count, *steps)
	}
}

func randomObjects(rng *rand.Rand, count int, spawnSize float32) []*engine.GameObject {
	objs := make([]*engine.GameObject, count)
	for i := range objs {
		obj := engine.NewGameObject(fmt.Sprintf("obj_%d", i))
		obj.Transform.Position = rl.Vector3{
			X: rng.Float32()*spawnSize - spawnSize/2,
			Y: rng.Float32()*spawnSize - spawnSize/2,
			Z: rng.Float32()*spawnSize - spawnSize/2,
		}
		objs[i] = obj
	}
	return objs
}

func testRadiusQuery(count int, cellSize float32) {
	rng := rand.New(rand.NewSource(42)) // Consistent results

	// Spawn in a cube, size scales with count to keep density reasonable
	spawnSize := float32(50.0) + float32(count)/100.0
	objs := randomObjects(rng, count, spawnSize)

	grid := spatial.NewGrid(cellSize)
	for _, obj := range objs {
		grid.Insert(obj)
	}

	const queries = 200
	const radius = 5
	centers := make([]rl.Vector3, queries)
	for i := range centers {
		centers[i] = randomObjects(rng, 1, spawnSize)[0].Transform.Position
	}

	gridStart := time.Now()
	var gridHits int
	for _, c := range centers {
		gridHits += len(grid.QueryRadius(c, radius, nil))
	}
	gridTime := time.Since(gridStart) / queries

	bruteStart := time.Now()
	var bruteHits int
	for _, c := range centers {
		for _, obj := range objs {
			if rl.Vector3Distance(obj.Transform.Position, c) <= radius {
				bruteHits++
			}
		}
	}
	bruteTime := time.Since(bruteStart) / queries

	match := "ok"
	if gridHits != bruteHits {
		match = "MISMATCH"
	}
	speedup := float64(bruteTime) / float64(gridTime)

	fmt.Printf("%5d objects: grid %8v (%5d hits, %4d cells) | brute %8v (%5d hits) | %.1fx speedup | %s\n",
		count, gridTime.Round(time.Microsecond), gridHits, grid.CellCount(),
		bruteTime.Round(time.Microsecond), bruteHits, speedup, match)
}

func testPhysicsStep(count, steps int) {
	rng := rand.New(rand.NewSource(42))
	cfg := config.Default().Physics

	p := rigidbody.New(cfg, nil, nil, nil)
	p.Initialize()
	defer p.Cleanup()

	// Floor plus a loose pile of boxes above it
	p.CreateRigidBody(physics.ShapeBox, rl.Vector3{Y: -0.5}, rl.Vector3{X: 200, Y: 1, Z: 200}, 0, "Concrete")
	spawnSize := float32(20.0) + float32(count)/50.0
	for i := 0; i < count; i++ {
		pos := rl.Vector3{
			X: rng.Float32()*spawnSize - spawnSize/2,
			Y: 1 + rng.Float32()*spawnSize,
			Z: rng.Float32()*spawnSize - spawnSize/2,
		}
		p.CreateRigidBody(physics.ShapeBox, pos, rl.Vector3{X: 1, Y: 1, Z: 1}, 1, "Wood")
	}

	start := time.Now()
	for i := 0; i < steps; i++ {
		p.Update(cfg.FixedTimestep)
	}
	perStep := time.Since(start) / time.Duration(steps)
	budget := time.Duration(float64(cfg.FixedTimestep) * float64(time.Second))

	status := "realtime"
	if perStep > budget {
		status = "behind"
	}
	fmt.Printf("%5d bodies: %8v per step (budget %v) | %s\n",
		count, perStep.Round(time.Microsecond), budget.Round(time.Microsecond), status)
}
