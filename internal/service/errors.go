package service

import "errors"

// Resolution and processing failures the handlers translate into response
// codes. Network-level failures come wrapped from the client package.
var (
	ErrNoShareLink   = errors.New("no share link found in text")
	ErrMediaNotFound = errors.New("no media url found in page")
	ErrNoVideoStream = errors.New("input has no usable video stream")
	ErrTaskNotFound  = errors.New("task not found")
)
