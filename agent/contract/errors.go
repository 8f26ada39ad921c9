package contract

import "errors"

var (
	ErrModelInvoke   = errors.New("model invoke failed")
	ErrPromptMissing = errors.New("required prompt is missing")
	ErrValidation    = errors.New("validation failed")
	ErrToolFailed    = errors.New("tool execution failed")
	ErrUnknownTool   = errors.New("unknown tool")
)
