package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pevans/headlines"
	"github.com/pevans/headlines/catalog"
)

func TestKeyCommand(t *testing.T) {
	cmd := keyCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"elespectador", "2024-12-25"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "headlines/final/periodico=elespectador/year=2024/month=12/day=25/noticias.csv\n", out.String())
}

func TestKeyCommand_InvalidDate(t *testing.T) {
	cmd := keyCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"elespectador", "25-12-2024"})

	assert.Error(t, cmd.Execute())
}

func TestParseDateFlag(t *testing.T) {
	date, err := parseDateFlag("2024-12-25")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC), date)

	today, err := parseDateFlag("")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, today.Location())
	assert.Zero(t, today.Hour())

	_, err = parseDateFlag("yesterday")
	assert.Error(t, err)
}

func TestPrintSummaries(t *testing.T) {
	var out bytes.Buffer
	printSummaries(&out, nil)
	assert.Equal(t, "No runs completed.\n", out.String())

	out.Reset()
	printSummaries(&out, []headlines.RunSummary{{
		Publisher: "eltiempo",
		Date:      "2024-12-25",
		Key:       "headlines/final/periodico=eltiempo/year=2024/month=12/day=25/noticias.csv",
		Records:   42,
	}})
	assert.Contains(t, out.String(), "eltiempo")
	assert.Contains(t, out.String(), "42")
}

func TestPrintPartitions(t *testing.T) {
	var out bytes.Buffer
	printPartitions(&out, []catalog.Partition{{
		Publisher: "elespectador",
		Date:      "2024-12-25",
		Rows:      7,
		RunID:     uuid.New(),
		CreatedAt: time.Now(),
	}})
	assert.Contains(t, out.String(), "elespectador")
	assert.Contains(t, out.String(), "2024-12-25")
}

func TestPrintRecords(t *testing.T) {
	table := headlines.NewResultTable(true)
	table.Records = append(table.Records, headlines.HeadlineRecord{
		Category: "colombia",
		Headline: "Bogotá inaugura su nueva línea de metro",
		Link:     "https://www.eltiempo.com/colombia/bogota/nuevo-metro-123456",
		FullText: "A.\nB.",
	})

	var out bytes.Buffer
	printRecords(&out, table)
	assert.Contains(t, out.String(), "colombia")
	assert.Contains(t, out.String(), "A. B.")
}
