// Copyright 2016 Gareth Watts
// Licensed under an MIT license
// See the LICENSE file for details

package pkmnddb

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/sirupsen/logrus"
)

// Archiver receives a copy of every JSON file written by a Walker.
type Archiver interface {
	Archive(ctx context.Context, name string, data []byte) error
}

// WalkerStats is returned by Walker.Stats.
type WalkerStats struct {
	FilesMatched   int64
	FilesProcessed int64
	LoaderStats
}

// Walker converts every CSV file in a single directory to JSON and loads
// the rows into DynamoDB.  Files are handled one at a time and the walk
// stops at the first failure.
type Walker struct {
	FS       billy.Filesystem
	Dir      string         // Directory to scan; subdirectories are not descended into
	Loader   *Loader        // Receives the records of each file
	Archiver Archiver       // Optional
	Logger   *logrus.Logger // Optional

	filesMatched   int64
	filesProcessed int64
}

// Files lists the CSV files in Dir, in the order the filesystem returns them.
func (w *Walker) Files() ([]string, error) {
	fi, err := w.FS.Stat(w.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", w.Dir, err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", w.Dir)
	}

	entries, err := w.FS.ReadDir(w.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", w.Dir, err)
	}

	var files []string
	for _, fi := range entries {
		if fi.IsDir() || !strings.HasSuffix(fi.Name(), CSVExt) {
			continue
		}
		files = append(files, w.FS.Join(w.Dir, fi.Name()))
	}
	atomic.StoreInt64(&w.filesMatched, int64(len(files)))
	return files, nil
}

// Run lists Dir and processes every CSV file found.
func (w *Walker) Run(ctx context.Context) error {
	files, err := w.Files()
	if err != nil {
		return err
	}
	return w.Process(ctx, files)
}

// Process converts and loads each of the named files in turn.
func (w *Walker) Process(ctx context.Context, files []string) error {
	conv := &Converter{FS: w.FS}
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.processFile(ctx, conv, name); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		atomic.AddInt64(&w.filesProcessed, 1)
	}
	return nil
}

// Stats returns the progress of the walk so far.  It is safe to call from
// concurrent goroutines.
func (w *Walker) Stats() WalkerStats {
	stats := WalkerStats{
		FilesMatched:   atomic.LoadInt64(&w.filesMatched),
		FilesProcessed: atomic.LoadInt64(&w.filesProcessed),
	}
	if w.Loader != nil {
		stats.LoaderStats = w.Loader.Stats()
	}
	return stats
}

func (w *Walker) processFile(ctx context.Context, conv *Converter, name string) error {
	log := w.logger().WithField("file", name)

	records, jsonPath, err := conv.Convert(name)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"target": jsonPath, "records": len(records)}).Info("Converted file")

	if log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		for i, rec := range records {
			log.Debugf("record %d: %s", i, spew.Sdump(rec.Map()))
		}
	}

	if w.Archiver != nil {
		data, err := util.ReadFile(w.FS, jsonPath)
		if err != nil {
			return fmt.Errorf("failed to read %s for archive: %w", jsonPath, err)
		}
		if err := w.Archiver.Archive(ctx, jsonPath, data); err != nil {
			return err
		}
		log.WithField("target", jsonPath).Info("Archived file")
	}

	before := w.Loader.Stats().ItemsWritten
	if err := w.Loader.Load(ctx, records); err != nil {
		return err
	}
	log.WithField("items", w.Loader.Stats().ItemsWritten-before).Info("Loaded file")
	return nil
}

func (w *Walker) logger() *logrus.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	l := logrus.New()
	l.Out = io.Discard
	return l
}
