package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sartorproj/goami/timeseries"
)

// Dataset describes one series to identify.
type Dataset struct {
	Name       string  `yaml:"name"`
	File       string  `yaml:"file"`
	Column     string  `yaml:"column"`
	DateColumn string  `yaml:"date_column"`
	DateFormat string  `yaml:"date_format"`
	FilterCol  string  `yaml:"filter_column"` // Column to filter on (optional)
	FilterVal  string  `yaml:"filter_value"`
	Period     int     `yaml:"period"` // Observations per year, 0 infers it from the dates
	Scale      float64 `yaml:"scale"`
	SkipFirst  int     `yaml:"skip_first"`
	MaxObs     int     `yaml:"max_obs"` // Max observations to use (0 = all, from end)
}

// Manifest lists the datasets of a batch run.
type Manifest struct {
	Datasets []Dataset `yaml:"datasets"`
}

// loadManifest reads a manifest. Relative file paths are resolved against
// the manifest directory.
func loadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i := range m.Datasets {
		d := &m.Datasets[i]
		if d.File == "" {
			return nil, fmt.Errorf("manifest %s: dataset %d has no file", path, i)
		}
		if !filepath.IsAbs(d.File) {
			d.File = filepath.Join(dir, d.File)
		}
	}
	return &m, nil
}

// datasets returns the manifest datasets followed by one dataset per file
// argument, built from the command line flags.
func (c *cli) datasets(files []string) ([]Dataset, error) {
	var out []Dataset
	if c.manifest != "" {
		m, err := loadManifest(c.manifest)
		if err != nil {
			return nil, err
		}
		out = append(out, m.Datasets...)
	}
	for _, f := range files {
		d := c.dataset
		d.File = f
		out = append(out, d)
	}
	return out, nil
}

// load reads the dataset and applies its cuts and scale.
func (d Dataset) load() (*timeseries.Series, error) {
	opts := timeseries.DefaultCSVOptions()
	if d.Column != "" {
		opts.ValueColumn = d.Column
	}
	if d.DateFormat != "" {
		opts.DateFormat = d.DateFormat
	}
	opts.DateColumn = d.DateColumn
	opts.IDColumn = d.FilterCol
	opts.IDFilter = d.FilterVal
	if d.Period > 0 {
		opts.Frequency = d.Period
	}

	series, err := timeseries.LoadCSV(d.File, opts)
	if err != nil {
		return nil, err
	}
	if d.Period > 0 {
		series.Frequency = d.Period
	}
	if d.SkipFirst > 0 && series.Len() > d.SkipFirst {
		series = series.Slice(d.SkipFirst, series.Len())
	}
	if d.MaxObs > 0 && series.Len() > d.MaxObs {
		series = series.Slice(series.Len()-d.MaxObs, series.Len())
	}
	if d.Scale != 0 {
		for i := range series.Values {
			series.Values[i] *= d.Scale
		}
	}
	if d.Name != "" {
		series.Name = d.Name
	}
	return series, nil
}
