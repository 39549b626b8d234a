package model

import "errors"

var (
	// ErrEmptyInput is returned for blank utterances; nothing is dispatched.
	ErrEmptyInput = errors.New("empty utterance")

	// ErrNoCredential means remote generation is not configured. Not a failure.
	ErrNoCredential = errors.New("no remote generation credential")

	// ErrRemoteCallFailed wraps any network, status, or payload failure of a
	// remote generation call.
	ErrRemoteCallFailed = errors.New("remote generation failed")

	// ErrLocationDenied is returned when no geolocation sample can be obtained.
	ErrLocationDenied = errors.New("location unavailable")

	// ErrUtteranceTooLong rejects input above the configured length limit.
	ErrUtteranceTooLong = errors.New("utterance too long")

	ErrSessionNotFound = errors.New("session not found")
)
