// Copyright 2016 Gareth Watts
// Licensed under an MIT license
// See the LICENSE file for details

/*
Command pkmnddb converts the CSV files in ~/Desktop/pkmn_stuff to JSON and
uploads every row to a DynamoDB table.

Each CSV file must start with a header line.  A JSON file holding an array of
objects, one per row with keys in header order, is written next to each CSV
file.  Every row with a non-empty "ID" column is then written to the table
using a PutItem call, replacing any existing item with the same ID.  All
values are stored as strings.

Processing stops at the first error and the command exits with a non-zero
status.

AWS credentials are resolved using the SDK's default chain; --profile selects
a named profile from the shared config and credentials files.
*/
package main

import (
	"os"

	cli "github.com/jawher/mow.cli"
	"github.com/pkmnstuff/pkmnddb/internal/cmd"
)

func main() {
	app := cli.App("pkmnddb", "Convert a directory of CSV files to JSON and load them into DynamoDB")
	cmd.ConfigureUpload(app)
	app.Run(os.Args)
}
