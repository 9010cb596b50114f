package board

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Billy-Davies-2/draft-board-planner/internal/models"
)

func TestExportImportRoundTrip(t *testing.T) {
	s := NewStore(nil)
	if _, err := s.BulkAdd("WR", "CeeDee Lamb|DAL|7|\"quoted, notes\"\nA.J. Brown|PHI||"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RestatusSelected("RB", []int{1}, models.StatusWatch); err != nil {
		t.Fatal(err)
	}

	data, err := s.Export()
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	before := s.Boards()

	s.ClearAll()
	res, err := s.Import(data)
	if err != nil {
		t.Fatalf("Import() failed: %v", err)
	}
	if res.Rows != 5 {
		t.Errorf("expected 5 imported rows, got %d", res.Rows)
	}
	if diff := cmp.Diff([]string{"RB", "WR"}, res.Categories); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
	if len(res.Added) != 0 {
		t.Errorf("expected no new categories, got %v", res.Added)
	}
	if diff := cmp.Diff(before, s.Boards()); diff != "" {
		t.Errorf("round trip changed boards (-want +got):\n%s", diff)
	}
}

func TestExportFormat(t *testing.T) {
	s := NewStore([]string{"RB"})
	data, err := s.Export()
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "category,rank,name,group,cycle,notes,status" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[1] != "RB,1,Christian McCaffrey,SF,9,Elite talent,Available" {
		t.Errorf("unexpected first record %q", lines[1])
	}
}

func TestExportEmpty(t *testing.T) {
	s := NewStore(nil)
	s.ClearAll()
	data, err := s.Export()
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 0 {
		t.Errorf("expected nothing to export, got %q", data)
	}
}

func TestImportMissingColumns(t *testing.T) {
	s := NewStore(nil)
	before := s.State()

	_, err := s.Import([]byte("category,rank,name,group,cycle,notes\nQB,1,Joe Burrow,CIN,7,\n"))
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if !errors.Is(err, ErrMissingColumns) {
		t.Error("SchemaError should match ErrMissingColumns")
	}
	if diff := cmp.Diff([]string{"status"}, schemaErr.Missing); diff != "" {
		t.Errorf("missing mismatch (-want +got):\n%s", diff)
	}
	if err.Error() != "Missing required columns: status" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if diff := cmp.Diff(before, s.State()); diff != "" {
		t.Errorf("failed import changed the store (-want +got):\n%s", diff)
	}
}

func TestImportEmptyInput(t *testing.T) {
	s := NewStore(nil)
	for _, in := range []string{"", "\xEF\xBB\xBF"} {
		_, err := s.Import([]byte(in))
		var schemaErr *SchemaError
		if !errors.As(err, &schemaErr) {
			t.Fatalf("Import(%q): expected SchemaError, got %v", in, err)
		}
		if len(schemaErr.Missing) != len(Columns) {
			t.Errorf("Import(%q): expected every column missing, got %v", in, schemaErr.Missing)
		}
	}
}

func TestImportReplacesOnlyMentionedCategories(t *testing.T) {
	s := NewStore(nil)
	if _, err := s.AddItem("QB", models.Item{Name: "Lamar Jackson"}); err != nil {
		t.Fatal(err)
	}

	csv := "\xEF\xBB\xBFPosition,Rank,Player,Team,Bye,Notes,Status\n" +
		"rb,,Jahmyr Gibbs,DET,5,,watch\n" +
		"idp,,Micah Parsons,DAL,7.0,edge,\n" +
		"RB,9,Saquon Barkley,PHI,x,,Drafted\n" +
		",,Loose Row,,,,\n"
	res, err := s.Import([]byte(csv))
	if err != nil {
		t.Fatalf("Import() failed: %v", err)
	}

	if diff := cmp.Diff([]string{"RB", "IDP", ""}, res.Categories); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"IDP", ""}, res.Added); diff != "" {
		t.Errorf("added mismatch (-want +got):\n%s", diff)
	}

	qb := mustBoard(t, s, "QB")
	if diff := cmp.Diff([]string{"Lamar Jackson"}, names(qb)); diff != "" {
		t.Errorf("QB should be untouched (-want +got):\n%s", diff)
	}

	rb := mustBoard(t, s, "RB")
	want := []models.Item{
		{Rank: 1, Name: "Jahmyr Gibbs", Group: "DET", Cycle: models.IntPtr(5), Status: models.StatusWatch},
		{Rank: 2, Name: "Saquon Barkley", Group: "PHI", Status: models.StatusDrafted},
	}
	if diff := cmp.Diff(want, rb.Items); diff != "" {
		t.Errorf("RB mismatch (-want +got):\n%s", diff)
	}

	idp := mustBoard(t, s, "IDP")
	if *idp.Items[0].Cycle != 7 || idp.Items[0].Status != models.StatusAvailable {
		t.Errorf("unexpected IDP row: %+v", idp.Items[0])
	}
	blank := mustBoard(t, s, "")
	if diff := cmp.Diff([]string{"Loose Row"}, names(blank)); diff != "" {
		t.Errorf("blank category mismatch (-want +got):\n%s", diff)
	}
	assertDenseRanks(t, s)
}

func TestImportMalformedCSV(t *testing.T) {
	s := NewStore(nil)
	before := s.State()

	_, err := s.Import([]byte("category,rank,name,group,cycle,notes,status\nRB,1,\"unterminated\n"))
	if err == nil {
		// LazyQuotes tolerates a lot; the store must still be consistent
		assertDenseRanks(t, s)
		return
	}
	if diff := cmp.Diff(before, s.State()); diff != "" {
		t.Errorf("failed import changed the store (-want +got):\n%s", diff)
	}
}

func TestParseTableShortRecords(t *testing.T) {
	header, rows, err := ParseTable([]byte("Name,Group,Extra\nA\nB,X,1,overflow\n"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"name", "group", "extra"}, header); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	want := []Row{
		{"name": "A"},
		{"name": "B", "group": "X", "extra": "1"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestMissingColumns(t *testing.T) {
	got := MissingColumns([]string{"name", "rank", "category"})
	if diff := cmp.Diff([]string{"cycle", "group", "notes", "status"}, got); diff != "" {
		t.Errorf("missing mismatch (-want +got):\n%s", diff)
	}
	if got := MissingColumns(Columns); got != nil {
		t.Errorf("expected nothing missing, got %v", got)
	}
}
