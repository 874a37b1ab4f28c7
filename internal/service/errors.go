package service

import "errors"

var (
	// ErrEmptyCollection is returned when a request does not name a
	// collection.
	ErrEmptyCollection = errors.New("collection name is required")

	// ErrEmptyRecordID is returned when a record arrives without an id.
	ErrEmptyRecordID = errors.New("record id is required")
)
