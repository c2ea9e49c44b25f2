package domain

import "errors"

var (
	// ErrRemoteService signals a network or HTTP failure against an external service.
	ErrRemoteService = errors.New("remote service error")
	// ErrInvalidArgument signals an empty or invalid caller-supplied parameter.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrParse signals malformed XML from the literature API; the whole batch is aborted.
	ErrParse = errors.New("parse error")
	// ErrIndexUnavailable signals a missing or corrupt persisted index.
	ErrIndexUnavailable = errors.New("index unavailable")
	// ErrGenerationFormat signals structured LLM output that does not conform to the
	// required schema. Fatal for the report run that produced it.
	ErrGenerationFormat = errors.New("generation format error")

	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrGenerationProvider signals a text-generation provider failure.
	ErrGenerationProvider = errors.New("generation provider error")
)
