package view

import (
	"fmt"

	"github.com/javiermolinar/horario/internal/grid"
	"github.com/javiermolinar/horario/internal/timetable"
)

// SlotHours returns the hour labels that start a teachable slot, which is
// every label except the closing one.
func SlotHours(g *grid.Grid) []grid.Hour {
	hours := g.Hours()
	if len(hours) == 0 {
		return nil
	}
	return hours[:len(hours)-1]
}

// CellKind classifies a grid cell for styling.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellStart          // first hour of a placement
	CellCont           // later hours of a placement
	CellClash          // more than one placement covers the cell
)

// Cell is one rendered grid position.
type Cell struct {
	Kind      CellKind
	Placement *timetable.Placement // first covering placement, nil when empty
	Text      string
}

// Layout maps placements onto the grid: Cells[hour][day], indexed like
// SlotHours and g.Days.
type Layout struct {
	Days  []grid.Day
	Hours []grid.Hour
	Cells [][]Cell
}

// BuildLayout places every placement into its cells. Placements that do
// not fit the grid are skipped.
func BuildLayout(g *grid.Grid, placements []*timetable.Placement) Layout {
	l := Layout{Days: g.Days(), Hours: SlotHours(g)}
	dayIdx := make(map[grid.Day]int, len(l.Days))
	for i, d := range l.Days {
		dayIdx[d] = i
	}
	hourIdx := make(map[grid.Hour]int, len(l.Hours))
	for i, h := range l.Hours {
		hourIdx[h] = i
	}

	l.Cells = make([][]Cell, len(l.Hours))
	for i := range l.Cells {
		l.Cells[i] = make([]Cell, len(l.Days))
	}

	for _, p := range placements {
		cells, err := p.Cells(g)
		if err != nil {
			continue
		}
		for n, c := range cells {
			row, col := hourIdx[c.Hour], dayIdx[c.Day]
			cell := &l.Cells[row][col]
			if cell.Placement != nil {
				cell.Kind = CellClash
				cell.Text = "!! clash"
				continue
			}
			cell.Placement = p
			if n == 0 {
				cell.Kind = CellStart
				cell.Text = Label(p)
			} else {
				cell.Kind = CellCont
				cell.Text = "  " + p.RoomID
			}
		}
	}
	return l
}

// Label is the short text shown in the first cell of a placement.
func Label(p *timetable.Placement) string {
	return fmt.Sprintf("%s-%d %s", p.CourseID, p.Group, p.RoomID)
}

// Headers returns the hour column header followed by the day names.
func (l Layout) Headers() []string {
	headers := make([]string, 0, len(l.Days)+1)
	headers = append(headers, "")
	for _, d := range l.Days {
		headers = append(headers, d.Short())
	}
	return headers
}

// Rows returns the plain text rows, each led by its hour label.
func (l Layout) Rows() [][]string {
	rows := make([][]string, len(l.Hours))
	for i, h := range l.Hours {
		row := make([]string, 0, len(l.Days)+1)
		row = append(row, h.String())
		for _, c := range l.Cells[i] {
			row = append(row, c.Text)
		}
		rows[i] = row
	}
	return rows
}
