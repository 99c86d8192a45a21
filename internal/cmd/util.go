// Copyright 2016 Gareth Watts
// Licensed under an MIT license
// See the LICENSE file for details

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/s3"
	cli "github.com/jawher/mow.cli"
)

const (
	kib = 1 << 10
	mib = 1 << 20
	gib = 1 << 30
	tib = 1 << 40
)

func fmtBytes(bytes int64) string {
	switch {
	case bytes < 0:
		return "unknown"
	case bytes < kib:
		return fmt.Sprintf("%d bytes", bytes)
	case bytes < mib:
		return fmt.Sprintf("%.1f KB", float64(bytes)/kib)
	case bytes < gib:
		return fmt.Sprintf("%.1f MB", float64(bytes)/mib)
	case bytes < tib:
		return fmt.Sprintf("%.1f GB", float64(bytes)/gib)
	default:
		return fmt.Sprintf("%.1f TB", float64(bytes)/tib)
	}
}

func fail(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	cli.Exit(100)
}

// defaultSourceDir returns the directory scanned for CSV files.
func defaultSourceDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, filepath.FromSlash(sourceDir)), nil
}

type awsServices struct {
	sess *session.Session
	dyn  *dynamodb.DynamoDB
}

// s3 is only created when an archive bucket is in use.
func (a *awsServices) s3() *s3.S3 {
	return s3.New(a.sess)
}

// initAWS creates a session for the given region, resolving credentials
// from the named shared config profile if one is supplied.
func initAWS(profile, region string, maxRetries int) (*awsServices, error) {
	cfg := aws.NewConfig().
		WithRegion(region).
		WithMaxRetries(maxRetries)

	s, err := session.NewSessionWithOptions(session.Options{
		Config:            *cfg,
		Profile:           profile,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &awsServices{
		sess: s,
		dyn:  dynamodb.New(s),
	}, nil
}
