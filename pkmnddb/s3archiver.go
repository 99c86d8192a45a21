// Copyright 2016 Gareth Watts
// Licensed under an MIT license
// See the LICENSE file for details

package pkmnddb

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3 defines the portion of the s3 service that S3Archiver requires
type S3 interface {
	PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error)
}

// S3Archiver stores gzipped copies of converted JSON files in an S3 bucket.
type S3Archiver struct {
	S3         S3
	Bucket     string
	PathPrefix string // prepended as-is to the file's base name
}

// Key returns the object key used to store the named file.
func (a *S3Archiver) Key(name string) string {
	return a.PathPrefix + filepath.Base(name) + ".gz"
}

// Archive compresses data and uploads it under the key for name.
func (a *S3Archiver) Archive(ctx context.Context, name string, data []byte) error {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}

	key := a.Key(name)
	req := &s3.PutObjectInput{
		Bucket:          aws.String(a.Bucket),
		Key:             aws.String(key),
		Body:            bytes.NewReader(buf.Bytes()),
		ContentEncoding: aws.String("gzip"),
		ContentType:     aws.String("application/json"),
	}
	if _, err := a.S3.PutObjectWithContext(ctx, req); err != nil {
		return fmt.Errorf("upload to s3://%s/%s failed: %w", a.Bucket, key, err)
	}
	return nil
}
