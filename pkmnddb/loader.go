// Copyright 2016 Gareth Watts
// Licensed under an MIT license
// See the LICENSE file for details

package pkmnddb

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/juju/ratelimit"
)

// DefaultHashKey is the attribute used as the table's partition key.
const DefaultHashKey = "ID"

// DynPuter defines the portion of the DynamoDB service the Loader requires.
type DynPuter interface {
	PutItemWithContext(ctx aws.Context, input *dynamodb.PutItemInput, opts ...request.Option) (*dynamodb.PutItemOutput, error)
}

// LoaderStats are returned by Loader.Stats
type LoaderStats struct {
	ItemsWritten int64
	BytesWritten int64
	CapacityUsed float64
}

// Loader writes records into a DynamoDB table, one PutItem call per record.
//
// Records without a value for the hash key are ignored.  Existing items with
// the same key are overwritten.
type Loader struct {
	Dyn           DynPuter
	TableName     string  // Table name to write to
	HashKey       string  // The attribute name of the hash key for the table; defaults to DefaultHashKey
	WriteCapacity float64 // Maximum write capacity per second to use; 0 for unlimited

	rateLimit    *ratelimit.Bucket
	itemsWritten int64
	bytesWritten int64
	capacityUsed int64 // multiplied by 10
	usedCapacity int64
}

// Load puts each eligible record into the table in order.  It returns the
// first error received from DynamoDB without attempting further writes.
func (ld *Loader) Load(ctx context.Context, records []Record) error {
	if ld.WriteCapacity > 0 && ld.rateLimit == nil {
		ld.rateLimit = ratelimit.NewBucketWithQuantum(time.Second, int64(ld.WriteCapacity), int64(ld.WriteCapacity))
	}

	hashKey := ld.hashKey()
	for _, rec := range records {
		id, ok := rec.Get(hashKey)
		if !ok || id == "" {
			continue
		}
		if err := ld.waitForRateLimit(ctx); err != nil {
			return err
		}
		if err := ld.put(ctx, rec); err != nil {
			return fmt.Errorf("put item %s=%q failed: %w", hashKey, id, err)
		}
	}
	return nil
}

// Stats return the current loader statistics.  It is safe to call from
// concurrent goroutines.
func (ld *Loader) Stats() LoaderStats {
	return LoaderStats{
		ItemsWritten: atomic.LoadInt64(&ld.itemsWritten),
		BytesWritten: atomic.LoadInt64(&ld.bytesWritten),
		CapacityUsed: float64(atomic.LoadInt64(&ld.capacityUsed)) / 10,
	}
}

func (ld *Loader) hashKey() string {
	if ld.HashKey == "" {
		return DefaultHashKey
	}
	return ld.HashKey
}

// Interruptible rate limit wait, charged with the capacity used by the
// previous write.
func (ld *Loader) waitForRateLimit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ld.rateLimit == nil {
		return nil
	}
	used := ld.usedCapacity
	if used < 1 {
		used = 1
	}
	if d := ld.rateLimit.Take(used); d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (ld *Loader) put(ctx context.Context, rec Record) error {
	item := recordToItem(rec)
	req := &dynamodb.PutItemInput{
		TableName:              aws.String(ld.TableName),
		Item:                   item,
		ReturnConsumedCapacity: aws.String(dynamodb.ReturnConsumedCapacityTotal),
	}

	resp, err := ld.Dyn.PutItemWithContext(ctx, req)
	if err != nil {
		return err
	}

	var units float64
	if resp != nil && resp.ConsumedCapacity != nil {
		units = aws.Float64Value(resp.ConsumedCapacity.CapacityUnits)
	}
	ld.usedCapacity = int64(math.Ceil(units))
	atomic.AddInt64(&ld.itemsWritten, 1)
	atomic.AddInt64(&ld.bytesWritten, int64(calcItemSize(item)))
	atomic.AddInt64(&ld.capacityUsed, int64(units*10))
	return nil
}

// recordToItem maps every field to a string attribute, empty values included.
func recordToItem(rec Record) map[string]*dynamodb.AttributeValue {
	item := make(map[string]*dynamodb.AttributeValue, rec.Len())
	for _, k := range rec.keys {
		item[k] = &dynamodb.AttributeValue{S: aws.String(rec.values[k])}
	}
	return item
}
