// Copyright 2016 Gareth Watts
// Licensed under an MIT license
// See the LICENSE file for details

package cmd

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkmnstuff/pkmnddb/pkmnddb"
)

type countingDynPuter struct {
	ids []string
}

func (d *countingDynPuter) PutItemWithContext(ctx aws.Context, input *dynamodb.PutItemInput, opts ...request.Option) (*dynamodb.PutItemOutput, error) {
	d.ids = append(d.ids, aws.StringValue(input.Item["ID"].S))
	return &dynamodb.PutItemOutput{
		ConsumedCapacity: &dynamodb.ConsumedCapacity{CapacityUnits: aws.Float64(1)},
	}, nil
}

func newTestUploader(t *testing.T, dyn pkmnddb.DynPuter, files map[string]string) *uploader {
	t.Helper()
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("pkmn_stuff", 0o755))
	for name, content := range files {
		require.NoError(t, util.WriteFile(fs, fs.Join("pkmn_stuff", name), []byte(content), 0o644))
	}

	str := func(s string) *string { return &s }
	num := func(n int) *int { return &n }
	u := &uploader{
		dir: "pkmn_stuff",
		walker: &pkmnddb.Walker{
			FS:     fs,
			Dir:    "pkmn_stuff",
			Loader: &pkmnddb.Loader{Dyn: dyn, TableName: "pkmn"},
		},
		profile:       str(""),
		tableName:     str("pkmn"),
		region:        str("us-west-2"),
		writeCapacity: num(0),
		maxRetries:    num(awsMaxRetries),
		s3BucketName:  str(""),
		s3Prefix:      str(""),
	}

	var err error
	u.files, err = u.walker.Files()
	require.NoError(t, err)
	return u
}

func waitDone(t *testing.T, done chan error) error {
	t.Helper()
	select {
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for upload to complete")
		return nil
	case err := <-done:
		return err
	}
}

func TestUploaderRun(t *testing.T) {
	dyn := new(countingDynPuter)
	u := newTestUploader(t, dyn, map[string]string{
		"a.csv":     "ID,Name\n1,Pikachu\n,MissingNo\n",
		"b.csv":     "ID,Name\n4,Charmander\n",
		"notes.txt": "not a csv",
	})
	logger, hook := test.NewNullLogger()

	var term bytes.Buffer
	done, err := u.start(&term, logger)
	require.NoError(t, err)
	require.NoError(t, waitDone(t, done))

	assert.ElementsMatch(t, []string{"1", "4"}, dyn.ids)
	assert.Contains(t, term.String(), `Beginning upload: table="pkmn" source="pkmn_stuff" files=2`)

	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, "Final upload stats", last.Message)
	assert.Equal(t, int64(2), last.Data["items_written"])
	assert.Equal(t, int64(2), last.Data["files_processed"])

	var stats bytes.Buffer
	u.printFinalStats(&stats)
	assert.Contains(t, stats.String(), "Total files processed: 2 of 2\n")
	assert.Contains(t, stats.String(), "Total items written:  2\n")

	bar := u.newProgressBar()
	require.NotNil(t, bar)
	u.updateProgress(bar)
	assert.Equal(t, int64(2), bar.Get())
}

func TestUploaderAbort(t *testing.T) {
	block := make(chan struct{})
	dyn := &blockingDynPuter{block: block}
	u := newTestUploader(t, dyn, map[string]string{
		"a.csv": "ID\n1\n2\n",
	})
	logger, _ := test.NewNullLogger()

	done, err := u.start(io.Discard, logger)
	require.NoError(t, err)

	u.abort()
	close(block)
	assert.Error(t, waitDone(t, done))
	assert.Less(t, u.walker.Stats().ItemsWritten, int64(2))
}

func TestUploaderNoFiles(t *testing.T) {
	u := newTestUploader(t, new(countingDynPuter), nil)
	assert.Nil(t, u.newProgressBar())
}

// blockingDynPuter holds each put until block is closed, then honours the
// request context.
type blockingDynPuter struct {
	block chan struct{}
}

func (d *blockingDynPuter) PutItemWithContext(ctx aws.Context, input *dynamodb.PutItemInput, opts ...request.Option) (*dynamodb.PutItemOutput, error) {
	<-d.block
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &dynamodb.PutItemOutput{}, nil
}
