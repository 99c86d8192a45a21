// Copyright 2016 Gareth Watts
// Licensed under an MIT license
// See the LICENSE file for details

package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cheggaaa/pb"
	cli "github.com/jawher/mow.cli"
	"github.com/sirupsen/logrus"
)

type action interface {
	init() error
	newProgressBar() (bar *pb.ProgressBar)
	updateProgress(bar *pb.ProgressBar)
	start(termWriter io.Writer, logger *logrus.Logger) (doneChan chan error, err error)
	abort()
	printFinalStats(w io.Writer)
}

type progressLogger interface {
	logProgress(logger *logrus.Logger)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newLogger returns a logger writing to target; "-" selects stdout and an
// empty target discards all output.  The returned closer must be called
// once logging is finished.
func newLogger(target string, verbose bool) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()
	logger.Formatter = &logrus.TextFormatter{FullTimestamp: true, DisableColors: true}
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	switch target {
	case "-":
		logger.Out = os.Stdout
		return logger, nopCloser{}, nil
	case "":
		logger.Out = io.Discard
		return logger, nopCloser{}, nil
	}

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0666)
	if err != nil {
		return nil, nil, err
	}
	logger.Out = f
	return logger, f, nil
}

// actionRunner handles running an action which may take a while to complete
// providing progress bars and signal handling.
func actionRunner(cmd *cli.Cmd, action action) func() {
	cmd.Spec = "[--silent] [--no-progress] [--log] [--verbose] " + cmd.Spec
	silent := cmd.Bool(cli.BoolOpt{
		Name:   "silent",
		Value:  false,
		Desc:   "Set to true to disable all non-error and non-log output",
		EnvVar: "SILENT",
	})
	noProgress := cmd.Bool(cli.BoolOpt{
		Name:   "no-progress",
		Value:  false,
		Desc:   "Set to true to disable the progress bar",
		EnvVar: "NO_PROGRESS",
	})
	logTarget := cmd.String(cli.StringOpt{
		Name:   "log",
		Value:  "",
		Desc:   "Set to a filename or --log=- for stdout; defaults to no log output",
		EnvVar: "LOG_TARGET",
	})
	verbose := cmd.Bool(cli.BoolOpt{
		Name:   "verbose",
		Value:  false,
		Desc:   "Set to true to include every parsed record in the log output",
		EnvVar: "VERBOSE",
	})

	return func() {
		var termWriter io.Writer = os.Stderr
		var aborted bool
		var progressTicker <-chan time.Time
		var logTicker <-chan time.Time

		logger, closer, err := newLogger(*logTarget, *verbose)
		if err != nil {
			fail("could not open logfile for write: %s", err)
		}
		defer closer.Close()

		if *logTarget != "" {
			if _, ok := action.(progressLogger); ok {
				logTicker = time.Tick(logFrequency)
			}
		}

		if *silent {
			termWriter = io.Discard
		}

		if err := action.init(); err != nil {
			logger.WithError(err).Error("Initialization failed")
			fail("Initialization failed: %v", err)
		}

		done, err := action.start(termWriter, logger)
		if err != nil {
			logger.WithError(err).Error("Startup failed")
			fail("Startup failed: %v", err)
		}

		var bar *pb.ProgressBar
		if !*silent && !*noProgress {
			bar = action.newProgressBar()
			if bar != nil {
				progressTicker = time.Tick(statsFrequency)
				bar.Output = os.Stderr
				bar.ShowSpeed = true
				bar.ManualUpdate = true
				bar.SetMaxWidth(78)
				bar.Start()
				bar.Update()
			}
		}

		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGTERM, syscall.SIGINT)

	LOOP:
		for {
			select {
			case <-progressTicker:
				action.updateProgress(bar)
				bar.Update()

			case <-logTicker:
				action.(progressLogger).logProgress(logger)

			case <-sigchan:
				if bar != nil {
					bar.Finish()
					bar = nil
				}
				fmt.Fprintf(termWriter, "\nAborting..")
				logger.Warn("Aborting on signal")
				action.abort()
				<-done
				fmt.Fprintf(termWriter, "Aborted.\n")
				aborted = true
				break LOOP

			case err := <-done:
				if bar != nil {
					action.updateProgress(bar)
					bar.Finish()
					bar = nil
				}
				if err != nil {
					fail("Processing failed: %v", err)
				}
				break LOOP
			}
		}

		if !*silent {
			action.printFinalStats(termWriter)
		}
		if aborted {
			cli.Exit(100)
		}
	}
}
