// Copyright 2016 Gareth Watts
// Licensed under an MIT license
// See the LICENSE file for details

package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cheggaaa/pb"
	"github.com/go-git/go-billy/v5/osfs"
	cli "github.com/jawher/mow.cli"
	"github.com/sirupsen/logrus"

	"github.com/pkmnstuff/pkmnddb/pkmnddb"
)

// ConfigureUpload sets up app to convert the CSV files in the source
// directory and upload their rows to DynamoDB.
func ConfigureUpload(app *cli.Cli) {
	app.Spec = "[--profile] --table-name --region [--write-capacity] [--max-retries] [--s3-bucket [--s3-prefix]]"
	action := &uploader{
		profile: app.String(cli.StringOpt{
			Name:   "profile",
			Value:  "",
			Desc:   "AWS shared config profile to use for credentials",
			EnvVar: "AWS_PROFILE",
		}),
		tableName: app.String(cli.StringOpt{
			Name:   "table-name",
			Value:  "",
			Desc:   "DynamoDB table name to load into",
			EnvVar: "TABLE_NAME",
		}),
		region: app.String(cli.StringOpt{
			Name:   "region",
			Value:  "",
			Desc:   "AWS region of the table",
			EnvVar: "AWS_REGION",
		}),
		writeCapacity: app.Int(cli.IntOpt{
			Name:   "w write-capacity",
			Value:  0,
			Desc:   "Average aggregate write capacity to use for the load (set to 0 for unlimited)",
			EnvVar: "WRITE_CAPACITY",
		}),
		maxRetries: app.Int(cli.IntOpt{
			Name:   "max-retries",
			Value:  awsMaxRetries,
			Desc:   "Maximum number of retry attempts the AWS SDK makes for a single request",
			EnvVar: "AWS_MAX_RETRIES",
		}),
		s3BucketName: app.String(cli.StringOpt{
			Name:   "s3-bucket",
			Value:  "",
			Desc:   "S3 bucket name to archive the generated JSON files to",
			EnvVar: "S3_BUCKET",
		}),
		s3Prefix: app.String(cli.StringOpt{
			Name:   "s3-prefix",
			Value:  "",
			Desc:   `Path prefix to use to store JSON files in S3 (eg. "pkmn/2016-04-01-")`,
			EnvVar: "S3_PREFIX",
		}),
	}

	app.Before = func() {
		if *action.tableName == "" {
			fail("--table-name must be set")
		}
		if *action.region == "" {
			fail("--region must be set")
		}
		if *action.writeCapacity < 0 {
			fail("Invalid value for --write-capacity")
		}
		if *action.maxRetries < 0 {
			fail("Invalid value for --max-retries")
		}
	}

	app.Action = actionRunner(app.Cmd, action)
}

type uploader struct {
	walker    *pkmnddb.Walker
	files     []string
	cancel    context.CancelFunc
	startTime time.Time
	dir       string

	// options
	profile       *string
	tableName     *string
	region        *string
	writeCapacity *int
	maxRetries    *int
	s3BucketName  *string
	s3Prefix      *string
}

func (u *uploader) init() error {
	dir, err := defaultSourceDir()
	if err != nil {
		return err
	}
	u.dir = dir

	aws, err := initAWS(*u.profile, *u.region, *u.maxRetries)
	if err != nil {
		return err
	}

	u.walker = &pkmnddb.Walker{
		FS:  osfs.New("/"),
		Dir: dir,
		Loader: &pkmnddb.Loader{
			Dyn:           aws.dyn,
			TableName:     *u.tableName,
			WriteCapacity: float64(*u.writeCapacity),
		},
	}
	if *u.s3BucketName != "" {
		u.walker.Archiver = &pkmnddb.S3Archiver{
			S3:         aws.s3(),
			Bucket:     *u.s3BucketName,
			PathPrefix: *u.s3Prefix,
		}
	}

	u.files, err = u.walker.Files()
	return err
}

func (u *uploader) start(termWriter io.Writer, logger *logrus.Logger) (done chan error, err error) {
	u.walker.Logger = logger

	fmt.Fprintf(termWriter, "Beginning upload: table=%q source=%q files=%d writeCapacity=%d\n",
		*u.tableName, u.dir, len(u.files), *u.writeCapacity)
	logger.WithFields(logrus.Fields{
		"table":          *u.tableName,
		"region":         *u.region,
		"source":         u.dir,
		"files":          len(u.files),
		"write_capacity": *u.writeCapacity,
		"s3_bucket":      *u.s3BucketName,
	}).Info("Beginning upload")

	ctx, cancel := context.WithCancel(context.Background())
	u.cancel = cancel
	done = make(chan error, 1)
	u.startTime = time.Now()

	go func() {
		err := u.walker.Process(ctx, u.files)
		if err != nil {
			logger.WithError(err).Error("Upload failed")
		} else {
			logger.Info("Upload completed OK")
		}
		logger.WithFields(u.statsFields()).Info("Final upload stats")
		done <- err
	}()

	return done, nil
}

func (u *uploader) statsFields() logrus.Fields {
	stats := u.walker.Stats()
	return logrus.Fields{
		"files_processed": stats.FilesProcessed,
		"files_matched":   stats.FilesMatched,
		"items_written":   stats.ItemsWritten,
		"bytes_written":   stats.BytesWritten,
		"capacity_used":   stats.CapacityUsed,
	}
}

func (u *uploader) logProgress(logger *logrus.Logger) {
	logger.WithFields(u.statsFields()).Info("Upload progress")
}

func (u *uploader) abort() {
	u.cancel()
}

func (u *uploader) newProgressBar() *pb.ProgressBar {
	if len(u.files) == 0 {
		return nil
	}
	bar := pb.New(len(u.files))
	bar.Prefix("Files ")
	return bar
}

func (u *uploader) updateProgress(bar *pb.ProgressBar) {
	bar.Set64(u.walker.Stats().FilesProcessed)
}

func (u *uploader) printFinalStats(w io.Writer) {
	stats := u.walker.Stats()
	deltaSeconds := time.Since(u.startTime).Seconds()

	fmt.Fprintf(w, "Avg items/sec: %.2f\n", float64(stats.ItemsWritten)/deltaSeconds)
	fmt.Fprintf(w, "Avg capacity/sec: %.2f\n", stats.CapacityUsed/deltaSeconds)
	fmt.Fprintf(w, "Total files processed: %d of %d\n", stats.FilesProcessed, stats.FilesMatched)
	fmt.Fprintln(w, "Total items written: ", stats.ItemsWritten)
	fmt.Fprintln(w, "Total data written: ", fmtBytes(stats.BytesWritten))
}
