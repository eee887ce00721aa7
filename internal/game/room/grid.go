package room

import "slices"

// Grid is the occupancy board, indexed grid[x][y]. An empty string marks a free cell,
// any other value is the id of the player whose chip occupies it.
type Grid [][]string

// NewGrid allocates an empty rows×cols grid.
func NewGrid(rows, cols int) Grid {
	if rows <= 0 || cols <= 0 {
		return Grid{}
	}
	g := make(Grid, rows)
	for x := range g {
		g[x] = make([]string, cols)
	}
	return g
}

// Rows returns the number of rows.
func (g Grid) Rows() int {
	return len(g)
}

// Cols returns the number of columns.
func (g Grid) Cols() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// InBounds reports whether (x, y) addresses a cell.
func (g Grid) InBounds(x, y int) bool {
	return x >= 0 && x < len(g) && y >= 0 && y < len(g[x])
}

// At returns the occupant of (x, y); callers check bounds first.
func (g Grid) At(x, y int) string {
	return g[x][y]
}

// Occupied reports whether (x, y) holds a chip.
func (g Grid) Occupied(x, y int) bool {
	return g.InBounds(x, y) && g[x][y] != ""
}

// Clone copies every row.
func (g Grid) Clone() Grid {
	if g == nil {
		return nil
	}
	c := make(Grid, len(g))
	for x := range g {
		c[x] = slices.Clone(g[x])
	}
	return c
}

// OccupiedCells lists every occupied cell in row-major order.
func (g Grid) OccupiedCells() []Coord {
	var cells []Coord
	for x := range g {
		for y, id := range g[x] {
			if id != "" {
				cells = append(cells, Coord{X: x, Y: y})
			}
		}
	}
	return cells
}
