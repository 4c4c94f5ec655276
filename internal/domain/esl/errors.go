package esl

import "errors"

var (
	// Vendor connectivity errors
	ErrKeyFetch    = errors.New("esl: public key fetch failed")
	ErrAuth        = errors.New("esl: vendor authentication failed")
	ErrTransport   = errors.New("esl: vendor unreachable")
	ErrVendorAPI   = errors.New("esl: vendor request failed")
	ErrEmptyResult = errors.New("esl: vendor returned no usable data")
	ErrValidation  = errors.New("esl: missing required configuration")

	// Session errors
	ErrSessionExists   = errors.New("esl: only one connection session is allowed")
	ErrSessionNotFound = errors.New("esl: no connection session configured")

	// Slot assignment errors
	ErrSlotDuplicate = errors.New("esl: barcode already assigned to a slot")
	ErrSlotsFull     = errors.New("esl: all template slots are occupied")
)
