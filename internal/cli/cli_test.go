package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Billy-Davies-2/draft-board-planner/internal/board"
	"github.com/Billy-Davies-2/draft-board-planner/internal/models"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func loadFile(t *testing.T, path string) *board.Store {
	t.Helper()
	s, err := (&App{File: path}).load()
	require.NoError(t, err)
	return s
}

func TestAddCreatesFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "board.csv")

	out, err := runCLI(t, "", "--file", file, "add", "qb", "Josh Allen", "--group", "BUF", "--cycle", "7")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Added Josh Allen to QB at rank 1")

	s := loadFile(t, file)
	b, err := s.Board("QB")
	require.NoError(t, err)
	require.Len(t, b.Items, 1)
	require.NotNil(t, b.Items[0].Cycle)
	assert.Equal(t, 7, *b.Items[0].Cycle)

	rb, err := s.Board("RB")
	require.NoError(t, err)
	assert.Empty(t, rb.Items, "a fresh file starts without sample items")
}

func TestBulkAddFromStdin(t *testing.T) {
	file := filepath.Join(t.TempDir(), "board.csv")

	out, err := runCLI(t, "Ja'Marr Chase|CIN|12|WR1\n\n|nobody\nCeeDee Lamb|DAL|7\n", "--file", file, "bulk-add", "WR")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Added 2 items to WR")

	out, err = runCLI(t, "\n\n", "--file", file, "bulk-add", "WR", "--input", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to add")

	b, err := loadFile(t, file).Board("WR")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ja'Marr Chase", "CeeDee Lamb"}, []string{b.Items[0].Name, b.Items[1].Name})
}

func TestStatusAndRemoveUseRanks(t *testing.T) {
	file := filepath.Join(t.TempDir(), "board.csv")
	_, err := runCLI(t, "", "--file", file, "reset")
	require.NoError(t, err)

	out, err := runCLI(t, "", "--file", file, "status", "RB", "--to", "drafted", "1", "3")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Marked 2 items as Drafted")

	out, err = runCLI(t, "", "--file", file, "remove", "RB", "2")
	require.NoError(t, err, out)

	b, err := loadFile(t, file).Board("RB")
	require.NoError(t, err)
	require.Len(t, b.Items, 2)
	assert.Equal(t, "Christian McCaffrey", b.Items[0].Name)
	assert.Equal(t, models.StatusDrafted, b.Items[0].Status)
	assert.Equal(t, "Bijan Robinson", b.Items[1].Name)
	assert.Equal(t, 2, b.Items[1].Rank)

	_, err = runCLI(t, "", "--file", file, "remove", "RB", "0")
	assert.Error(t, err, "ranks start at 1")
	_, err = runCLI(t, "", "--file", file, "remove", "RB", "9")
	assert.ErrorIs(t, err, board.ErrIndexOutOfRange)
	_, err = runCLI(t, "", "--file", file, "status", "RB", "--to", "gone", "1")
	assert.ErrorIs(t, err, board.ErrInvalidStatus)
}

func TestShowHidesStatuses(t *testing.T) {
	file := filepath.Join(t.TempDir(), "board.csv")
	_, err := runCLI(t, "", "--file", file, "reset")
	require.NoError(t, err)
	_, err = runCLI(t, "", "--file", file, "status", "RB", "--to", "Drafted", "1")
	require.NoError(t, err)

	out, err := runCLI(t, "", "--file", file, "show", "rb", "--hide", "Drafted")
	require.NoError(t, err)
	assert.NotContains(t, out, "Christian McCaffrey")
	assert.Contains(t, out, "Breece Hall")
	assert.Contains(t, out, "RB (2)")

	_, err = runCLI(t, "", "--file", file, "show", "LB")
	assert.ErrorIs(t, err, board.ErrUnknownCategory)
}

func TestWatchlistAndSummary(t *testing.T) {
	file := filepath.Join(t.TempDir(), "board.csv")
	_, err := runCLI(t, "", "--file", file, "reset")
	require.NoError(t, err)
	_, err = runCLI(t, "", "--file", file, "status", "RB", "--to", "Watch", "2")
	require.NoError(t, err)

	out, err := runCLI(t, "", "--file", file, "watchlist")
	require.NoError(t, err)
	assert.Contains(t, out, "Watchlist (1)")
	assert.Contains(t, out, "Breece Hall")

	out, err = runCLI(t, "", "--file", file, "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Players: 3  Drafted: 0  Next pick: 1")
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.csv")
	require.NoError(t, os.WriteFile(good, []byte("position,rank,player,team,bye,notes,status\nlb,1,Fred Warner,SF,9,,Available\n"), 0o644))

	out, err := runCLI(t, "", "--file", good, "validate")
	require.NoError(t, err, out)
	assert.Contains(t, out, "1 rows in 1 boards")
	assert.Contains(t, out, "Non-default categories: LB")

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("name,group\nA,B\n"), 0o644))
	_, err = runCLI(t, "", "--file", bad, "validate")
	assert.ErrorIs(t, err, board.ErrMissingColumns)
}

func TestClearKeepsHeader(t *testing.T) {
	file := filepath.Join(t.TempDir(), "board.csv")
	_, err := runCLI(t, "", "--file", file, "reset")
	require.NoError(t, err)

	_, err = runCLI(t, "", "--file", file, "clear")
	require.NoError(t, err)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "category,rank,name,group,cycle,notes,status\n", string(data))

	_, err = runCLI(t, "", "--file", file, "validate")
	assert.NoError(t, err)
}

func TestFileFromEnvironment(t *testing.T) {
	file := filepath.Join(t.TempDir(), "env.csv")
	t.Setenv("BOARDCTL_FILE", file)

	_, err := runCLI(t, "", "add", "K", "Justin Tucker")
	require.NoError(t, err)
	_, err = os.Stat(file)
	assert.NoError(t, err)
}

func TestParseRanks(t *testing.T) {
	idx, err := parseRanks([]string{"1", " 3 ", "3"})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 2}, idx)

	_, err = parseRanks([]string{"x"})
	assert.Error(t, err)
}
