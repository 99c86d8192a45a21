package cmd

import "time"

const (
	statsFrequency = 2 * time.Second
	logFrequency   = 30 * time.Second
	awsMaxRetries  = 3
	sourceDir      = "Desktop/pkmn_stuff" // relative to the user's home directory
)
