package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/sartorproj/goami/autoarima"
)

// entry is the output record of one dataset.
type entry struct {
	File   string            `json:"file" yaml:"file"`
	Report *autoarima.Report `json:"report,omitempty" yaml:"report,omitempty"`
	Error  string            `json:"error,omitempty" yaml:"error,omitempty"`
}

// identify runs the identification of every dataset, at most c.concurrency
// at a time, and writes the reports in input order.
func (c *cli) identify(ctx context.Context, datasets []Dataset, w io.Writer) error {
	if c.format != "json" && c.format != "yaml" {
		return fmt.Errorf("unknown format %q", c.format)
	}
	id, err := autoarima.NewIdentifier(c.opts, c.logger)
	if err != nil {
		return err
	}
	if c.metricsAddr != "" {
		stop := c.serveMetrics()
		defer stop()
	}

	entries := make([]entry, len(datasets))
	g, gctx := errgroup.WithContext(ctx)
	if c.concurrency > 0 {
		g.SetLimit(c.concurrency)
	}
	for i, d := range datasets {
		i, d := i, d
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entries[i] = c.identifyOne(id, d)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	failed := 0
	for _, e := range entries {
		if e.Error != "" {
			failed++
		}
	}
	c.logger.Info().Int("series", len(entries)).Int("failed", failed).Msg("run complete")

	if err := writeEntries(w, c.format, entries); err != nil {
		return err
	}
	if failed == len(entries) {
		return errors.New("no series could be identified")
	}
	return nil
}

func (c *cli) identifyOne(id *autoarima.Identifier, d Dataset) entry {
	e := entry{File: d.File}
	series, err := d.load()
	if err != nil {
		c.logger.Error().Err(err).Str("file", d.File).Msg("load failed")
		e.Error = err.Error()
		return e
	}
	res, err := id.Identify(series)
	if err != nil {
		c.logger.Error().Err(err).Str("series", series.Name).Msg("identification failed")
		e.Error = err.Error()
		return e
	}
	rep := res.Report()
	e.Report = &rep
	return e
}

func writeEntries(w io.Writer, format string, entries []entry) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("json output: %w (non-finite statistics can be written with --format yaml)", err)
	}
	return nil
}

// serveMetrics exposes the Prometheus registry until the returned function
// is called.
func (c *cli) serveMetrics() func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: c.metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error().Err(err).Str("addr", c.metricsAddr).Msg("metrics server failed")
		}
	}()
	c.logger.Info().Str("addr", c.metricsAddr).Msg("serving metrics")
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
