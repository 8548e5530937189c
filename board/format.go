package board

import "strings"

// FormatGrid dumps g one string per row: '#' for filled cells, '@' for the
// cells of an unlocked current shape and '.' for empty cells.
func FormatGrid(g *Grid, current *Shape) []string {
	lines := make([][]byte, g.height)
	for y, row := range g.rows {
		line := make([]byte, len(row))
		for x, c := range row {
			if c.Filled {
				line[x] = '#'
			} else {
				line[x] = '.'
			}
		}
		lines[y] = line
	}

	if current != nil && !current.locked {
		for _, p := range current.Cells() {
			if p.X >= 0 && p.X < g.width && p.Y >= 0 && p.Y < g.height {
				lines[p.Y][p.X] = '@'
			}
		}
	}

	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = string(l)
	}
	return out
}

// String renders the username and grid, one row per line.
func (b *Board) String() string {
	var sb strings.Builder
	sb.WriteString(b.username)
	if b.lost {
		sb.WriteString(" (lost)")
	}
	sb.WriteByte('\n')
	for _, line := range FormatGrid(b.grid, b.current) {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}
