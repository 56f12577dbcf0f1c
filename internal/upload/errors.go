package upload

import "errors"

// ErrNoFileSubmitted is returned when the form ends before a "file" part.
var ErrNoFileSubmitted = errors.New("no file submitted")

// ErrFilenameNotSpecified is returned when neither the query parameter nor
// the file part supplies a filename.
var ErrFilenameNotSpecified = errors.New("filename not specified")

// ErrMalformedForm is returned when the multipart form cannot be read.
var ErrMalformedForm = errors.New("error reading multipart form")

// ErrConnectionDropped is returned when the client's stream fails
// mid-transfer.
var ErrConnectionDropped = errors.New("connection dropped")

// ErrMissingHost is returned when the request carries no Host header, which
// makes the public URL impossible to compose.
var ErrMissingHost = errors.New("missing Host header")
