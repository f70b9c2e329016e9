package imaging

import (
	"image"
)

// Contour is a closed polyline in pixel coordinates. The last point connects
// back to the first.
type Contour []image.Point

// neighbours lists the 8 neighbour offsets in clockwise order (y grows
// downward), starting from west.
var neighbours = [8]image.Point{
	{X: -1, Y: 0},  // W
	{X: -1, Y: -1}, // NW
	{X: 0, Y: -1},  // N
	{X: 1, Y: -1},  // NE
	{X: 1, Y: 0},   // E
	{X: 1, Y: 1},   // SE
	{X: 0, Y: 1},   // S
	{X: -1, Y: 1},  // SW
}

// FindExternalContours traces the outer borders of the edge pixels in a
// binary image.
//
// Any non-zero pixel of edges is foreground. Foreground pixels are grouped
// into 8-connected components and background into 4-connected regions.
//
// Only external contours are returned: a component that sits entirely inside
// a hole of another component (it is neither on the image border nor
// 4-adjacent to background reachable from the border) is dropped. No
// hierarchy is reported.
//
// Each contour is the component's outer border traced with Moore neighbour
// tracing, then simplified: points in the middle of a horizontal, vertical
// or diagonal run are removed, keeping only the run end points.
//
// Contours are ordered by the raster position (top to bottom, left to right)
// of their component's first pixel. Points are in the coordinate space of
// edges.
func FindExternalContours(edges *image.Gray) []Contour {
	bounds := edges.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	fg := make([][]bool, height)
	for y := 0; y < height; y++ {
		fg[y] = make([]bool, width)
		for x := 0; x < width; x++ {
			fg[y][x] = edges.GrayAt(x+bounds.Min.X, y+bounds.Min.Y).Y != 0
		}
	}

	outside := exteriorBackground(fg, width, height)

	labels := make([][]int, height)
	for y := range labels {
		labels[y] = make([]int, width)
	}

	contours := make([]Contour, 0)
	label := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !fg[y][x] || labels[y][x] != 0 {
				continue
			}
			label++
			component := labelComponent(fg, labels, x, y, width, height, label)
			if !isExternal(component, outside, width, height) {
				continue
			}

			border := traceBorder(labels, image.Point{X: x, Y: y}, label, width, height, len(component))
			simplified := simplifyContour(border)
			for i := range simplified {
				simplified[i] = simplified[i].Add(bounds.Min)
			}
			contours = append(contours, simplified)
		}
	}

	return contours
}

// exteriorBackground marks background pixels 4-connected to the image border.
func exteriorBackground(fg [][]bool, width, height int) [][]bool {
	outside := make([][]bool, height)
	for y := range outside {
		outside[y] = make([]bool, width)
	}

	stack := make([]image.Point, 0)
	push := func(x, y int) {
		if x < 0 || x >= width || y < 0 || y >= height {
			return
		}
		if fg[y][x] || outside[y][x] {
			return
		}
		outside[y][x] = true
		stack = append(stack, image.Point{X: x, Y: y})
	}

	for x := 0; x < width; x++ {
		push(x, 0)
		push(x, height-1)
	}
	for y := 0; y < height; y++ {
		push(0, y)
		push(width-1, y)
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		push(p.X-1, p.Y)
		push(p.X+1, p.Y)
		push(p.X, p.Y-1)
		push(p.X, p.Y+1)
	}
	return outside
}

// labelComponent flood-fills the 8-connected component containing (startX,
// startY), writes label into labels and returns the component's pixels.
//
// Uses a stack-based approach (not recursive) to avoid stack overflow
// on large components.
func labelComponent(fg [][]bool, labels [][]int, startX, startY, width, height, label int) []image.Point {
	component := make([]image.Point, 0)
	stack := []image.Point{{X: startX, Y: startY}}
	labels[startY][startX] = label

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		component = append(component, p)

		for _, d := range neighbours {
			n := p.Add(d)
			if n.X < 0 || n.X >= width || n.Y < 0 || n.Y >= height {
				continue
			}
			if !fg[n.Y][n.X] || labels[n.Y][n.X] != 0 {
				continue
			}
			labels[n.Y][n.X] = label
			stack = append(stack, n)
		}
	}
	return component
}

// isExternal reports whether a component touches the image border or the
// exterior background.
func isExternal(component []image.Point, outside [][]bool, width, height int) bool {
	for _, p := range component {
		if p.X == 0 || p.Y == 0 || p.X == width-1 || p.Y == height-1 {
			return true
		}
		if outside[p.Y][p.X-1] || outside[p.Y][p.X+1] || outside[p.Y-1][p.X] || outside[p.Y+1][p.X] {
			return true
		}
	}
	return false
}

// traceBorder walks the outer border of the component with the given label
// clockwise, starting at its raster-first pixel.
//
// The walk stops when it is about to repeat its first move from the start
// pixel (Jacob's stopping criterion). maxSteps bounds the walk for safety;
// a border never needs more than four visits per component pixel.
func traceBorder(labels [][]int, start image.Point, label, width, height, size int) Contour {
	inside := func(p image.Point) bool {
		return p.X >= 0 && p.X < width && p.Y >= 0 && p.Y < height && labels[p.Y][p.X] == label
	}

	border := Contour{start}
	// start is the raster-first pixel, so its west neighbour is background
	backtrack := 0
	current := start

	var firstMove image.Point
	maxSteps := 4*size + 8
	for step := 0; step < maxSteps; step++ {
		found := false
		var next image.Point
		nextBacktrack := 0
		for i := 1; i <= 8; i++ {
			dir := (backtrack + i) % 8
			candidate := current.Add(neighbours[dir])
			if !inside(candidate) {
				continue
			}
			// the previously checked neighbour is background; it becomes
			// the backtrack position seen from candidate
			prev := current.Add(neighbours[(dir+7)%8])
			nextBacktrack = directionIndex(prev.Sub(candidate))
			next = candidate
			found = true
			break
		}

		if !found {
			// isolated pixel
			return border
		}

		if step == 0 {
			firstMove = next
		} else if current == start && next == firstMove {
			break
		}

		border = append(border, next)
		current = next
		backtrack = nextBacktrack
	}

	// the walk ends back on start; drop the duplicate closing point
	if len(border) > 1 && border[len(border)-1] == start {
		border = border[:len(border)-1]
	}
	return border
}

// directionIndex returns the index in neighbours of a unit offset.
func directionIndex(d image.Point) int {
	for i, n := range neighbours {
		if n == d {
			return i
		}
	}
	return 0
}

// simplifyContour drops points whose incoming and outgoing steps point the
// same way, leaving only the corners of a closed polyline.
func simplifyContour(c Contour) Contour {
	n := len(c)
	if n < 3 {
		out := make(Contour, n)
		copy(out, c)
		return out
	}

	out := make(Contour, 0, n)
	for i := 0; i < n; i++ {
		prev := c[(i+n-1)%n]
		next := c[(i+1)%n]
		in := stepDirection(c[i].Sub(prev))
		outDir := stepDirection(next.Sub(c[i]))
		if in != outDir {
			out = append(out, c[i])
		}
	}
	if len(out) == 0 {
		// degenerate back-and-forth line: keep its end points
		out = append(out, c[0], c[n/2])
	}
	return out
}

// stepDirection reduces a step to its sign components.
func stepDirection(d image.Point) image.Point {
	return image.Point{X: sign(d.X), Y: sign(d.Y)}
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
