package service

import (
	"errors"
	"fmt"
)

// Error kinds, one per failure condition the pipeline can surface. Callers
// branch with errors.Is; the wrapping Error carries stage and score context.
var (
	ErrFileTooLarge         = errors.New("file too large")
	ErrUnsupportedFileType  = errors.New("unsupported file type")
	ErrDocumentUnreadable   = errors.New("document unreadable")
	ErrOCRFailure           = errors.New("ocr failure")
	ErrNoTransactionsFound  = errors.New("no transactions found")
	ErrLowQualityExtraction = errors.New("low quality extraction")
	ErrDateFormatUndetected = errors.New("date format undetected")
)

// Stage identifies where in the pipeline a run currently is, or was when it
// failed.
type Stage string

const (
	StageIdle           Stage = "idle"
	StageExtracting     Stage = "extracting"
	StageReconstructing Stage = "reconstructing"
	StageAssembling     Stage = "assembling"
	StageScoring        Stage = "scoring"
	StageSucceeded      Stage = "succeeded"
	StageFailed         Stage = "failed"
)

// Error is the single failure type returned by the pipeline. Kind is one of
// the sentinel errors above; Score is meaningful only for low-quality
// failures. No stage retries: every Error is final for its invocation.
type Error struct {
	Kind  error
	Stage Stage
	Score int
	cause error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%v (stage %s)", e.Kind, e.Stage)
	if errors.Is(e.Kind, ErrLowQualityExtraction) {
		msg = fmt.Sprintf("%s: score %d below threshold", msg, e.Score)
	}
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Kind, e.cause}
	}
	return []error{e.Kind}
}

func failure(kind error, stage Stage, cause error) *Error {
	return &Error{Kind: kind, Stage: stage, cause: cause}
}
