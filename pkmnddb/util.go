// Copyright 2016 Gareth Watts
// Licensed under an MIT license
// See the LICENSE file for details

package pkmnddb

import (
	"github.com/aws/aws-sdk-go/service/dynamodb"
)

// this is based on https://docs.aws.amazon.com/amazondynamodb/latest/developerguide/WorkingWithTables.html#ItemSizeCalculations
// Loader only ever writes string attributes.
func calcItemSize(item map[string]*dynamodb.AttributeValue) (size int) {
	for k, av := range item {
		size += len(k)
		if av.S != nil {
			size += len(*av.S)
		}
	}
	return size
}
