// Package export renders session logs into downloadable files.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"sleepywoodpecker/gsr-logger/internal/session"
)

const (
	CSVFilename     = "GSR_data.csv"
	CSVContentType  = "text/csv"
	JSONFilename    = "session_data.json"
	JSONContentType = "application/json"
)

var CSVHeader = []string{"Time", "GSR A", "GSR B", "GSR C"}

// File is an export payload ready for delivery.
type File struct {
	Name        string
	ContentType string
	Body        []byte
}

// ToCSV renders the row log, header first, two decimals per channel.
func ToCSV(rows []session.LogEntry) (string, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(CSVHeader); err != nil {
		return "", err
	}
	for _, row := range rows {
		record := []string{
			row.Time,
			session.ToFixed(row.GSRA, 2),
			session.ToFixed(row.GSRB, 2),
			session.ToFixed(row.GSRC, 2),
		}
		if err := writer.Write(record); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ToJSON renders the session log with a two space indent, entries in insertion order.
func ToJSON(log session.SessionLog) (string, error) {
	if log.Data == nil {
		log.Data = []session.LogEntry{}
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(log); err != nil {
		return "", fmt.Errorf("encode session log: %w", err)
	}

	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// CSVFile builds the CSV download. An empty row log yields no file.
func CSVFile(rows []session.LogEntry) (File, bool, error) {
	if len(rows) == 0 {
		return File{}, false, nil
	}

	body, err := ToCSV(rows)
	if err != nil {
		return File{}, false, err
	}
	return File{Name: CSVFilename, ContentType: CSVContentType, Body: []byte(body)}, true, nil
}

func JSONFile(log session.SessionLog) (File, error) {
	body, err := ToJSON(log)
	if err != nil {
		return File{}, err
	}
	return File{Name: JSONFilename, ContentType: JSONContentType, Body: []byte(body)}, nil
}

// WriteFile stores f under dir and returns the path written. replaced reports
// whether an earlier export at that path was overwritten.
func WriteFile(dir string, f File) (path string, replaced bool, err error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", false, fmt.Errorf("create export dir: %w", err)
	}

	path = filepath.Join(dir, f.Name)
	if _, err := os.Stat(path); err == nil {
		replaced = true
	}
	if err := os.WriteFile(path, f.Body, 0644); err != nil {
		return "", false, fmt.Errorf("write %s: %w", f.Name, err)
	}
	return path, replaced, nil
}
