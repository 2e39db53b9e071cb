package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"sleepywoodpecker/gsr-logger/internal/session"
)

func TestToCSV(t *testing.T) {
	out, err := ToCSV([]session.LogEntry{{Time: "00:01:000", GSRA: 500.12, GSRB: 300.4, GSRC: 710.0}})
	require.NoError(t, err)
	require.Equal(t, "Time,GSR A,GSR B,GSR C\n00:01:000,500.12,300.40,710.00\n", out)
}

func TestToCSVKeepsOrder(t *testing.T) {
	out, err := ToCSV([]session.LogEntry{
		{Time: "00:00:000", GSRA: 1, GSRB: 2, GSRC: 3},
		{Time: "00:01:003", GSRA: 0.125, GSRB: 699.999, GSRC: 1023},
	})
	require.NoError(t, err)
	require.Equal(t, "Time,GSR A,GSR B,GSR C\n"+
		"00:00:000,1.00,2.00,3.00\n"+
		"00:01:003,0.13,700.00,1023.00\n", out)
}

func TestCSVFileEmptyIsNoop(t *testing.T) {
	_, ok, err := CSVFile(nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCSVFile(t *testing.T) {
	f, ok, err := CSVFile([]session.LogEntry{{Time: "00:00:000", GSRA: 1, GSRB: 2, GSRC: 3}})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "GSR_data.csv", f.Name)
	require.Equal(t, "text/csv", f.ContentType)
}

func TestToJSON(t *testing.T) {
	out, err := ToJSON(session.SessionLog{
		SessionStarted: "2026-01-01T12:00:00.000Z",
		SessionEnded:   "2026-01-01T12:00:03.300Z",
		Baseline:       700,
		Data: []session.LogEntry{
			{Time: "00:00:000", GSRA: 100, GSRB: 400.5, GSRC: 600},
		},
	})
	require.NoError(t, err)
	require.Equal(t, `{
  "sessionStarted": "2026-01-01T12:00:00.000Z",
  "sessionEnded": "2026-01-01T12:00:03.300Z",
  "baseline": 700,
  "data": [
    {
      "time": "00:00:000",
      "gsrA": 100,
      "gsrB": 400.5,
      "gsrC": 600
    }
  ]
}`, out)
}

func TestToJSONEmptyData(t *testing.T) {
	out, err := ToJSON(session.SessionLog{Baseline: 700})
	require.NoError(t, err)
	require.Equal(t, `{
  "sessionStarted": "",
  "sessionEnded": "",
  "baseline": 700,
  "data": []
}`, out)
}

func TestJSONFileRoundTrip(t *testing.T) {
	log := session.SessionLog{
		SessionStarted: "a",
		SessionEnded:   "b",
		Baseline:       700,
		Data: []session.LogEntry{
			{Time: "00:00:000", GSRA: 1.5, GSRB: 2, GSRC: 3},
			{Time: "00:01:000", GSRA: 1.5, GSRB: 2, GSRC: 3},
		},
	}

	f, err := JSONFile(log)
	require.NoError(t, err)
	require.Equal(t, "session_data.json", f.Name)
	require.Equal(t, "application/json", f.ContentType)

	var decoded session.SessionLog
	require.NoError(t, json.Unmarshal(f.Body, &decoded))
	require.Equal(t, log, decoded)
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")

	path, replaced, err := WriteFile(dir, File{Name: CSVFilename, Body: []byte("x")})
	require.NoError(t, err)
	require.False(t, replaced)
	require.Equal(t, filepath.Join(dir, CSVFilename), path)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "x", string(contents))

	path, replaced, err = WriteFile(dir, File{Name: CSVFilename, Body: []byte("y")})
	require.NoError(t, err)
	require.True(t, replaced)

	contents, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "y", string(contents))
}
