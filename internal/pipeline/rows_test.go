package pipeline

import "testing"

func TestBuildJobRowsSubjectOrder(t *testing.T) {
	recs := []Record{
		{Category: "History", Date: "2026-08-29", Title: "H"},
		{Category: "Sociology", Date: "2026-08-29", Title: "S"},
		{Category: "Philosophy", Date: "2026-08-29", Title: "P"},
	}
	rows := buildJobRows(recs)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	wantOrder := []string{"Sociology", "History", "Philosophy"}
	for i, want := range wantOrder {
		if rows[i][1] != want {
			t.Errorf("row %d subject = %q, want %q", i, rows[i][1], want)
		}
	}
	if rows[0][0] != "'2026-08-29" {
		t.Errorf("date cell = %q, want leading apostrophe", rows[0][0])
	}
}

func TestBuildArticleRowsSeparators(t *testing.T) {
	recs := []Record{
		{Date: "2026-08-28", Category: "Demography", Title: "B"},
		{Date: "2026-08-27", Category: "Social Networks", Title: "A"},
		{Date: "2026-08-28", Category: "Demography", Title: "C"},
	}
	rows := buildArticleRows(recs)
	// one row + separator for the 27th, two rows + separator for the 28th
	if len(rows) != 5 {
		t.Fatalf("got %d rows, want 5", len(rows))
	}
	if rows[0][4] != "A" {
		t.Errorf("first row title = %q, want earliest date first", rows[0][4])
	}
	for _, i := range []int{1, 4} {
		for j, cell := range rows[i] {
			if cell != "" {
				t.Errorf("row %d cell %d = %q, want blank separator", i, j, cell)
			}
		}
	}
	if rows[2][4] != "B" || rows[3][4] != "C" {
		t.Errorf("second group rows = %q, %q", rows[2][4], rows[3][4])
	}
}

func TestBuildReportRowsCategorySortAndSeparator(t *testing.T) {
	recs := []Record{
		{Category: "Social Research", Source: "Pew Research Center", Title: "S"},
		{Category: "Economic Policy", Source: "CEPR", Title: "E"},
	}
	rows := buildReportRows(recs)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0][1] != "Economic Policy" || rows[1][1] != "Social Research" {
		t.Errorf("category order: %q then %q", rows[0][1], rows[1][1])
	}
	for j, cell := range rows[2] {
		if cell != "" {
			t.Errorf("trailing row cell %d = %q, want blank", j, cell)
		}
	}
}

func TestBuildReportRowsEmpty(t *testing.T) {
	if rows := buildReportRows(nil); len(rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rows))
	}
}
