// Package data reads and writes bar streams as CSV for replay and capture.
package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/sawpanic/zonerun/internal/domain/zone"
)

var csvHeader = []string{"timestamp", "open", "high", "low", "close", "volume"}

// LoadBars reads a bar CSV file. The timestamp column accepts RFC3339 or
// unix milliseconds. Bars are returned in file order; ordering is the
// engine's concern, not the loader's.
func LoadBars(path string) ([]zone.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars file: %w", err)
	}
	defer f.Close()
	return ReadBars(f)
}

// ReadBars parses a bar CSV stream. A header row is detected and skipped.
func ReadBars(r io.Reader) ([]zone.Bar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvHeader)

	var bars []zone.Bar
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read bar record: %w", err)
		}
		line++
		if line == 1 && record[0] == csvHeader[0] {
			continue
		}
		bar, err := parseBar(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// WriteBars writes bars as CSV with a header row, timestamps in RFC3339.
func WriteBars(w io.Writer, bars []zone.Bar) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, b := range bars {
		record := []string{
			b.Timestamp.UTC().Format(time.RFC3339),
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			formatFloat(b.Volume),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write bar: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func parseBar(record []string) (zone.Bar, error) {
	ts, err := parseTimestamp(record[0])
	if err != nil {
		return zone.Bar{}, err
	}
	fields := make([]float64, 5)
	for i, raw := range record[1:] {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return zone.Bar{}, fmt.Errorf("parse %s %q: %w", csvHeader[i+1], raw, err)
		}
		fields[i] = v
	}
	return zone.Bar{
		Timestamp: ts,
		Open:      fields[0],
		High:      fields[1],
		Low:       fields[2],
		Close:     fields[3],
		Volume:    fields[4],
	}, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return ts.UTC(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
