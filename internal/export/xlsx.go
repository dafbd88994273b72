// Package export writes timetables to spreadsheet files.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/javiermolinar/horario/internal/catalog"
	"github.com/javiermolinar/horario/internal/grid"
	"github.com/javiermolinar/horario/internal/timetable"
)

// Sheet names.
const (
	GridSheet       = "Grid"
	PlacementsSheet = "Placements"
)

var placementHeaders = []string{"ID", "Day", "Start", "End", "Course", "Name", "Group", "Professor", "Room", "Hours"}

// Fill colors per course kind.
var kindFill = map[catalog.Kind]string{
	catalog.KindMandatory: "#DCEBFA",
	catalog.KindElective:  "#E3F4E6",
}

// WriteXLSX writes tt as a workbook with a weekly grid sheet and a flat
// placement list. Placements outside g appear only in the list.
func WriteXLSX(w io.Writer, g *grid.Grid, tt *timetable.Timetable, src catalog.Source) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", GridSheet); err != nil {
		return fmt.Errorf("naming grid sheet: %w", err)
	}
	if _, err := f.NewSheet(PlacementsSheet); err != nil {
		return fmt.Errorf("creating placements sheet: %w", err)
	}

	placements := sortedPlacements(tt.Placements)
	if err := writeGrid(f, g, placements, src); err != nil {
		return err
	}
	if err := writePlacements(f, placements, src); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeGrid(f *excelize.File, g *grid.Grid, placements []*timetable.Placement, src catalog.Source) error {
	days := g.Days()
	hours := g.Hours()
	slots := hours[:len(hours)-1]

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	col := make(map[grid.Day]int, len(days))
	for i, d := range days {
		col[d] = i + 2
		if err := setCell(f, GridSheet, i+2, 1, capitalize(d.String())); err != nil {
			return err
		}
	}
	row := make(map[grid.Hour]int, len(slots))
	for i, h := range slots {
		row[h] = i + 2
		label := fmt.Sprintf("%s-%s", h, hours[i+1])
		if err := setCell(f, GridSheet, 1, i+2, label); err != nil {
			return err
		}
	}

	last, _ := excelize.CoordinatesToCellName(len(days)+1, 1)
	if err := f.SetCellStyle(GridSheet, "A1", last, header); err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(days) + 1)
	if err := f.SetColWidth(GridSheet, "B", lastCol, 18); err != nil {
		return err
	}

	styles := make(map[catalog.Kind]int)
	for kind, fill := range kindFill {
		id, err := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{fill}},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		})
		if err != nil {
			return fmt.Errorf("creating cell style: %w", err)
		}
		styles[kind] = id
	}

	used := grid.NewCellSet()
	for _, p := range placements {
		cells, err := p.Cells(g)
		if err != nil {
			continue
		}
		if _, clash := used.Intersects(cells); clash {
			// corrupt data; the list sheet still has the row
			continue
		}
		used.Add(cells...)

		top, _ := excelize.CoordinatesToCellName(col[p.Day], row[cells[0].Hour])
		bottom, _ := excelize.CoordinatesToCellName(col[p.Day], row[cells[len(cells)-1].Hour])
		if err := f.SetCellValue(GridSheet, top, gridLabel(p)); err != nil {
			return err
		}
		if top != bottom {
			if err := f.MergeCell(GridSheet, top, bottom); err != nil {
				return err
			}
		}
		kind := catalog.KindMandatory
		if c, ok := src.Course(p.CourseID); ok {
			kind = c.Kind
		}
		if err := f.SetCellStyle(GridSheet, top, bottom, styles[kind]); err != nil {
			return err
		}
	}
	return nil
}

func writePlacements(f *excelize.File, placements []*timetable.Placement, src catalog.Source) error {
	for i, h := range placementHeaders {
		if err := setCell(f, PlacementsSheet, i+1, 1, h); err != nil {
			return err
		}
	}
	for i, p := range placements {
		name := ""
		if c, ok := src.Course(p.CourseID); ok {
			name = c.Name
		}
		values := []any{p.ID, capitalize(p.Day.String()), p.Start, p.End, p.CourseID, name, p.Group, p.ProfessorID, p.RoomID, p.Duration}
		for j, v := range values {
			if err := setCell(f, PlacementsSheet, j+1, i+2, v); err != nil {
				return err
			}
		}
	}
	return f.SetColWidth(PlacementsSheet, "F", "F", 30)
}

func setCell(f *excelize.File, sheet string, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, value)
}

func gridLabel(p *timetable.Placement) string {
	return fmt.Sprintf("%s-%d\n%s\n%s", p.CourseID, p.Group, p.RoomID, p.ProfessorID)
}

func sortedPlacements(ps []*timetable.Placement) []*timetable.Placement {
	out := append([]*timetable.Placement(nil), ps...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
