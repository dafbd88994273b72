package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/javiermolinar/horario/internal/catalog"
	"github.com/javiermolinar/horario/internal/grid"
	"github.com/javiermolinar/horario/internal/period"
	"github.com/javiermolinar/horario/internal/timetable"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(
		[]catalog.Course{
			{ID: "ALG", Name: "Algoritmos", Cycle: 3, WeeklyHours: 4, Kind: catalog.KindMandatory},
			{ID: "ETI", Name: "Etica", Cycle: 3, WeeklyHours: 2, Kind: catalog.KindElective},
		},
		[]catalog.Professor{{ID: "PX", Name: "Professor X"}},
		[]catalog.Room{{ID: "R1", Code: "A-101", Capacity: 30}},
	)
	if err != nil {
		t.Fatalf("catalog.New failed: %v", err)
	}
	return c
}

func testTimetable(t *testing.T) *timetable.Timetable {
	t.Helper()
	tt, err := timetable.New(period.Period{Year: 2025, Term: period.TermI})
	if err != nil {
		t.Fatalf("timetable.New failed: %v", err)
	}
	tt.Placements = []*timetable.Placement{
		{ID: 2, CourseID: "ETI", Group: 1, ProfessorID: "PX", RoomID: "R1", Day: grid.Tuesday, Start: "10:00", End: "12:00", Duration: 2},
		{ID: 1, CourseID: "ALG", Group: 1, ProfessorID: "PX", RoomID: "R1", Day: grid.Monday, Start: "09:00", End: "11:00", Duration: 2},
		// outside the grid: listed, not drawn
		{ID: 3, CourseID: "ALG", Group: 1, ProfessorID: "PX", RoomID: "R1", Day: grid.Monday, Start: "22:00", End: "00:00", Duration: 2},
	}
	return tt
}

func openWorkbook(t *testing.T, buf *bytes.Buffer) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func cell(t *testing.T, f *excelize.File, sheet, ref string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, ref)
	if err != nil {
		t.Fatalf("GetCellValue(%s, %s) failed: %v", sheet, ref, err)
	}
	return v
}

func TestWriteXLSX_Sheets(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, grid.Default(), testTimetable(t), testCatalog(t)); err != nil {
		t.Fatalf("WriteXLSX failed: %v", err)
	}
	f := openWorkbook(t, &buf)

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != GridSheet || sheets[1] != PlacementsSheet {
		t.Fatalf("sheets = %v", sheets)
	}
}

func TestWriteXLSX_Grid(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, grid.Default(), testTimetable(t), testCatalog(t)); err != nil {
		t.Fatalf("WriteXLSX failed: %v", err)
	}
	f := openWorkbook(t, &buf)

	tests := []struct {
		ref  string
		want string
	}{
		{"B1", "Monday"},
		{"G1", "Saturday"},
		{"A2", "07:00-08:00"},
		{"A17", "22:00-23:00"},
		{"B4", "ALG-1\nR1\nPX"}, // Monday 09:00
		{"C5", "ETI-1\nR1\nPX"}, // Tuesday 10:00
		{"B17", ""},             // out-of-grid placement is not drawn
	}
	for _, tt := range tests {
		if got := cell(t, f, GridSheet, tt.ref); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.ref, got, tt.want)
		}
	}

	merged, err := f.GetMergeCells(GridSheet)
	if err != nil {
		t.Fatalf("GetMergeCells failed: %v", err)
	}
	ranges := map[string]bool{}
	for _, m := range merged {
		ranges[m.GetStartAxis()+":"+m.GetEndAxis()] = true
	}
	if len(ranges) != 2 || !ranges["B4:B5"] || !ranges["C5:C6"] {
		t.Errorf("merged ranges = %v", ranges)
	}
}

func TestWriteXLSX_Placements(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, grid.Default(), testTimetable(t), testCatalog(t)); err != nil {
		t.Fatalf("WriteXLSX failed: %v", err)
	}
	f := openWorkbook(t, &buf)

	rows, err := f.GetRows(PlacementsSheet)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want header plus 3", len(rows))
	}
	if rows[0][0] != "ID" || rows[0][9] != "Hours" {
		t.Errorf("header = %v", rows[0])
	}

	// sorted by day then start
	var ids []string
	for _, r := range rows[1:] {
		ids = append(ids, r[0])
	}
	if ids[0] != "1" || ids[1] != "3" || ids[2] != "2" {
		t.Errorf("order = %v, want [1 3 2]", ids)
	}
	if rows[1][5] != "Algoritmos" || rows[3][1] != "Tuesday" {
		t.Errorf("rows = %v", rows[1:])
	}
}

func TestWriteXLSX_EmptyTimetable(t *testing.T) {
	tt, _ := timetable.New(period.Period{Year: 2025, Term: period.TermII})
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, grid.Default(), tt, testCatalog(t)); err != nil {
		t.Fatalf("WriteXLSX failed: %v", err)
	}
	f := openWorkbook(t, &buf)
	rows, err := f.GetRows(PlacementsSheet)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("rows = %d, want header only", len(rows))
	}
}
