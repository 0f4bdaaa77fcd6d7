package isosurface

// Cube corner numbering, as (x, y, z) offsets from the cell origin:
//
//	0 (0,0,0)  1 (1,0,0)  2 (1,1,0)  3 (0,1,0)
//	4 (0,0,1)  5 (1,0,1)  6 (1,1,1)  7 (0,1,1)
var cornerOffsets = [8][3]int{
	{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
	{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
}

// cubeEdges lists the corner pair of each of the 12 cube edges.
var cubeEdges = [12][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// cubeFaces lists the corners of each face counter-clockwise as seen from
// outside the cube.
var cubeFaces = [6][4]int{
	{0, 3, 2, 1}, // z = 0
	{4, 5, 6, 7}, // z = 1
	{0, 1, 5, 4}, // y = 0
	{3, 7, 6, 2}, // y = 1
	{0, 4, 7, 3}, // x = 0
	{1, 2, 6, 5}, // x = 1
}

var (
	// edgeTable[c] has bit e set when configuration c crosses edge e.
	edgeTable [256]uint16
	// triTable[c] lists edge indices, three per triangle, wound so the face
	// normal points away from the inside corners.
	triTable [256][]int8

	// edgeOrigin and edgeAxis name the grid edge a cube edge lies on: the
	// offset of its lower endpoint and the axis it runs along.
	edgeOrigin [12][3]int
	edgeAxis   [12]int
)

func init() {
	buildEdgeGeometry()
	for c := 0; c < 256; c++ {
		edgeTable[c], triTable[c] = buildCase(uint8(c))
	}
}

func buildEdgeGeometry() {
	for e, pair := range cubeEdges {
		a, b := cornerOffsets[pair[0]], cornerOffsets[pair[1]]
		for axis := 0; axis < 3; axis++ {
			if a[axis] != b[axis] {
				edgeAxis[e] = axis
			}
		}
		for i := 0; i < 3; i++ {
			edgeOrigin[e][i] = a[i]
			if b[i] < a[i] {
				edgeOrigin[e][i] = b[i]
			}
		}
	}
}

// edgeBetween returns the cube edge joining corners a and b.
func edgeBetween(a, b int) int {
	for e, pair := range cubeEdges {
		if (pair[0] == a && pair[1] == b) || (pair[0] == b && pair[1] == a) {
			return e
		}
	}
	return -1
}

// buildCase derives the crossing mask and triangles of configuration c.
//
// Walking each face counter-clockwise, a crossing edge is an exit when it
// leaves an inside corner and an enter otherwise. Every exit is linked to
// the enter that precedes it, which isolates each inside corner on faces
// with four crossings. Neighbouring cells see a shared face with the same
// corner states, so they pair its crossings identically and the surface
// closes. Following the links yields one loop per surface sheet.
func buildCase(c uint8) (uint16, []int8) {
	inside := func(corner int) bool { return c&(1<<uint(corner)) != 0 }

	var mask uint16
	next := [12]int{}
	for i := range next {
		next[i] = -1
	}

	for _, face := range cubeFaces {
		var crossings [4]int
		var exits [4]bool
		n := 0
		for k := 0; k < 4; k++ {
			a, b := face[k], face[(k+1)%4]
			if inside(a) == inside(b) {
				continue
			}
			e := edgeBetween(a, b)
			crossings[n] = e
			exits[n] = inside(a)
			n++
			mask |= 1 << uint(e)
		}
		for i := 0; i < n; i++ {
			if !exits[i] {
				continue
			}
			for j := 1; j < n; j++ {
				p := (i - j + n) % n
				if !exits[p] {
					next[crossings[i]] = crossings[p]
					break
				}
			}
		}
	}

	var tris []int8
	var visited [12]bool
	for start := 0; start < 12; start++ {
		if mask&(1<<uint(start)) == 0 || visited[start] {
			continue
		}
		var loop []int
		for e := start; e >= 0 && !visited[e]; e = next[e] {
			visited[e] = true
			loop = append(loop, e)
		}
		for i := 1; i+1 < len(loop); i++ {
			tris = append(tris, int8(loop[0]), int8(loop[i+1]), int8(loop[i]))
		}
	}
	return mask, tris
}
