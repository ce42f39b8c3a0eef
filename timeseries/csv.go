package timeseries

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// CSVOptions holds options for CSV loading.
type CSVOptions struct {
	DateColumn  string    // Column name for dates (optional)
	ValueColumn string    // Column name for values (default: "y")
	IDColumn    string    // Column name for series ID (optional, for filtering)
	IDFilter    string    // Value to filter by ID column
	DateFormat  string    // Date format (default: "2006-01-02")
	HasHeader   bool      // Whether CSV has header row (default: true)
	Delimiter   rune      // Field delimiter (default: ',')
	SkipRows    int       // Number of rows to skip at start
	Frequency   int       // Used when no date column is present (default: 12)
	Start       time.Time // Used when no date column is present
}

// DefaultCSVOptions returns default options for CSV loading.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		ValueColumn: "y",
		DateFormat:  "2006-01-02",
		HasHeader:   true,
		Delimiter:   ',',
		Frequency:   12,
		Start:       time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

// LoadCSV loads a time series from a CSV file.
func LoadCSV(filename string, opts *CSVOptions) (*Series, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	s, err := LoadCSVFromReader(file, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filename[strings.LastIndex(filename, "/")+1:], ".csv")
	}
	return s, nil
}

// LoadCSVFromReader loads a time series from an io.Reader.
// Empty, NA, NaN and null cells are kept as missing observations.
func LoadCSVFromReader(r io.Reader, opts *CSVOptions) (*Series, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}

	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	reader.TrimLeadingSpace = true

	for i := 0; i < opts.SkipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, err
		}
	}

	valueIdx, dateIdx, idIdx := -1, -1, -1
	name := ""

	if opts.HasHeader {
		headers, err := reader.Read()
		if err != nil {
			return nil, err
		}

		for i, h := range headers {
			h = strings.TrimSpace(strings.Trim(h, "\""))
			switch {
			case h == opts.ValueColumn || (opts.ValueColumn == "" && (h == "y" || h == "value" || h == "Value")):
				valueIdx = i
				name = h
			case opts.DateColumn != "" && h == opts.DateColumn:
				dateIdx = i
			case h == "ds" || h == "date" || h == "Date" || h == "Month":
				if dateIdx == -1 {
					dateIdx = i
				}
			case opts.IDColumn != "" && h == opts.IDColumn:
				idIdx = i
			}
		}

		if valueIdx == -1 {
			valueIdx = len(headers) - 1
		}
	} else {
		valueIdx = 1
		dateIdx = 0
	}

	var values []float64
	var timestamps []time.Time

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if opts.IDFilter != "" && idIdx >= 0 && idIdx < len(record) {
			id := strings.TrimSpace(strings.Trim(record[idIdx], "\""))
			if id != opts.IDFilter {
				continue
			}
		}

		if valueIdx >= len(record) {
			continue
		}
		values = append(values, parseCell(record[valueIdx]))

		if dateIdx >= 0 && dateIdx < len(record) {
			if ts, ok := parseDate(record[dateIdx], opts.DateFormat); ok {
				timestamps = append(timestamps, ts)
			}
		}
	}

	if len(values) == 0 {
		return nil, errors.New("no valid data found in CSV")
	}

	var s *Series
	var err error
	if len(timestamps) == len(values) {
		s, err = NewWithTimestamps(timestamps, values)
	} else {
		s, err = NewPeriodic(values, opts.Frequency, opts.Start)
	}
	if err != nil {
		return nil, err
	}
	if name != "" && name != "y" {
		s.Name = name
	}
	return s, nil
}

func parseCell(cell string) float64 {
	str := strings.TrimSpace(strings.Trim(cell, "\""))
	switch str {
	case "", "NA", "NaN", "null", ".":
		return math.NaN()
	}
	v, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func parseDate(cell, preferred string) (time.Time, bool) {
	str := strings.TrimSpace(strings.Trim(cell, "\""))
	formats := []string{
		preferred,
		"2006-01-02",
		"2006-01",
		"2006/01/02",
		"01/02/2006",
		"2006 Jan",
		"Jan 2006",
	}
	for _, f := range formats {
		if f == "" {
			continue
		}
		if ts, err := time.Parse(f, str); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// LoadCSVColumn loads a specific column from a CSV file as a series.
func LoadCSVColumn(filename string, column string) (*Series, error) {
	opts := DefaultCSVOptions()
	opts.ValueColumn = column
	return LoadCSV(filename, opts)
}

// SaveCSV saves a time series to a CSV file.
func SaveCSV(series *Series, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteCSV(series, file)
}

// WriteCSV writes the series as a two-column ds,y table.
func WriteCSV(series *Series, w io.Writer) error {
	writer := bufio.NewWriter(w)

	if _, err := writer.WriteString("ds,y\n"); err != nil {
		return err
	}
	for i, v := range series.Values {
		if i < len(series.Timestamps) {
			writer.WriteString(series.Timestamps[i].Format("2006-01-02"))
		} else {
			writer.WriteString(strconv.Itoa(i + 1))
		}
		writer.WriteString(",")
		if math.IsNaN(v) {
			writer.WriteString("NA")
		} else {
			writer.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		}
		writer.WriteString("\n")
	}

	return writer.Flush()
}
