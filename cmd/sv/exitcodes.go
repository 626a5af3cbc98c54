package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (missing bib or topics, topic out of range)
	ExitDataError   = 3 // Data error (unreadable bibliography, index failure)
)
