package main

import "errors"

// ErrStorage is returned when the backing store is unreachable or rejects a query.
var ErrStorage = errors.New("storage error")

// ErrInvalidIdentifier is returned when a sighting id is not a valid identifier for the store.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// ErrValidation is returned when a request payload has the wrong shape.
var ErrValidation = errors.New("invalid input")
