package internal

import "errors"

var (
	ErrTimeout         = errors.New("timed out")
	ErrProcessorFailed = errors.New("processor failed")
	ErrQueueClosed     = errors.New("queue closed")
	ErrUnknownStorage  = errors.New("unknown storage")
)
