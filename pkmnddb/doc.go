// Copyright 2016 Gareth Watts
// Licensed under an MIT license
// See the LICENSE file for details

/*
Package pkmnddb converts a directory of CSV files to JSON and loads their rows
into a DynamoDB table.

Each CSV file is parsed using its first line as the header, written back out
as a JSON array alongside the source file, and each row is then sent to
DynamoDB with a single PutItem call.  Rows without a value for the table's
hash key ("ID" by default) are not sent.

Files are processed sequentially and processing stops at the first error.
*/
package pkmnddb
