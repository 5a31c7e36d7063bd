package domain

import "errors"

// Sentinel errors shared by store and pipeline packages (spec.md §7 taxonomy).
var (
	errEmptyActivities   = errors.New("domain: activity entry has no activities")
	errPrimaryLayerCount = errors.New("domain: activity entry must have exactly one primary layer")
)

var (
	// ErrFrameUnparseable is returned when a filename does not match the
	// strict YYYYMMDD_HHMMSSmmm.jpg pattern.
	ErrFrameUnparseable = errors.New("domain: frame filename unparseable")
	// ErrImageUnreadable is returned when a frame cannot be decoded.
	ErrImageUnreadable = errors.New("domain: image unreadable")
	// ErrExtractionTransport signals a network/model failure reaching the oracle.
	ErrExtractionTransport = errors.New("domain: extraction transport failure")
	// ErrExtractionMalformed signals a non-JSON or unparsable oracle response.
	ErrExtractionMalformed = errors.New("domain: extraction response malformed")
	// ErrExtractionEmpty signals a well-formed response with zero activities.
	ErrExtractionEmpty = errors.New("domain: extraction response empty")
	// ErrStoreIO wraps a JSON store read/write failure.
	ErrStoreIO = errors.New("domain: store io failure")
	// ErrProfileParse signals a non-JSON profile-update response.
	ErrProfileParse = errors.New("domain: profile update response malformed")
	// ErrRuleParse signals a non-JSON rule-interpretation response.
	ErrRuleParse = errors.New("domain: rule interpretation response malformed")
)
