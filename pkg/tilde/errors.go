package tilde

import (
	"errors"

	tildeerr "github.com/conneroisu/tilde/internal/errors"
)

// ErrNegativeCount is returned when a repetition count is below zero.
var ErrNegativeCount = errors.New("tilde: negative repetition count")

type (
	// ParseError reports the first grammar violation in a template source.
	ParseError = tildeerr.ParseError
	// ParseErrorCode identifies a grammar violation.
	ParseErrorCode = tildeerr.ParseErrorCode
	// RenderError reports a misuse of a render session.
	RenderError = tildeerr.RenderError
	// RenderErrorCode identifies a render protocol violation.
	RenderErrorCode = tildeerr.RenderErrorCode
)

// Parse error codes.
const (
	DuplicateTmplName       = tildeerr.DuplicateTmplName
	IllegalTmplName         = tildeerr.IllegalTmplName
	VarNameWithTmplName     = tildeerr.VarNameWithTmplName
	NoPlaceholderDefined    = tildeerr.NoPlaceholderDefined
	InvalidIncludePath      = tildeerr.InvalidIncludePath
	BeginTagNotTerminated   = tildeerr.BeginTagNotTerminated
	EndTagNotTerminated     = tildeerr.EndTagNotTerminated
	IncludeTagNotTerminated = tildeerr.IncludeTagNotTerminated
	MissingEndTag           = tildeerr.MissingEndTag
	DanglingEndTag          = tildeerr.DanglingEndTag
	DitchBlockNotClosed     = tildeerr.DitchBlockNotClosed
	PlaceholderNotClosed    = tildeerr.PlaceholderNotClosed
	IllegalVarPrefix        = tildeerr.IllegalVarPrefix
	IncludeCycle            = tildeerr.IncludeCycle
)

// Render error codes.
const (
	NoSuchVariable              = tildeerr.NoSuchVariable
	NoSuchTemplate              = tildeerr.NoSuchTemplate
	TemplateNotInstantiated     = tildeerr.TemplateNotInstantiated
	AccessException             = tildeerr.AccessException
	NotTextOnly                 = tildeerr.NotTextOnly
	NotOneVarTemplate           = tildeerr.NotOneVarTemplate
	NotTwoVarTemplate           = tildeerr.NotTwoVarTemplate
	StringifierReturnedNull     = tildeerr.StringifierReturnedNull
	StringifierNotNullResistant = tildeerr.StringifierNotNullResistant
	RepetitionsFixed            = tildeerr.RepetitionsFixed
	RepetitionMismatch          = tildeerr.RepetitionMismatch
	UnexpectedError             = tildeerr.UnexpectedError
)

// Sentinels for errors.Is. Each matches any error of the same family with
// the same code.
var (
	ErrDuplicateTmplName       error = &ParseError{Code: DuplicateTmplName}
	ErrIllegalTmplName         error = &ParseError{Code: IllegalTmplName}
	ErrVarNameWithTmplName     error = &ParseError{Code: VarNameWithTmplName}
	ErrNoPlaceholderDefined    error = &ParseError{Code: NoPlaceholderDefined}
	ErrInvalidIncludePath      error = &ParseError{Code: InvalidIncludePath}
	ErrBeginTagNotTerminated   error = &ParseError{Code: BeginTagNotTerminated}
	ErrEndTagNotTerminated     error = &ParseError{Code: EndTagNotTerminated}
	ErrIncludeTagNotTerminated error = &ParseError{Code: IncludeTagNotTerminated}
	ErrMissingEndTag           error = &ParseError{Code: MissingEndTag}
	ErrDanglingEndTag          error = &ParseError{Code: DanglingEndTag}
	ErrDitchBlockNotClosed     error = &ParseError{Code: DitchBlockNotClosed}
	ErrPlaceholderNotClosed    error = &ParseError{Code: PlaceholderNotClosed}
	ErrIllegalVarPrefix        error = &ParseError{Code: IllegalVarPrefix}
	ErrIncludeCycle            error = &ParseError{Code: IncludeCycle}

	ErrNoSuchVariable              error = &RenderError{Code: NoSuchVariable}
	ErrNoSuchTemplate              error = &RenderError{Code: NoSuchTemplate}
	ErrTemplateNotInstantiated     error = &RenderError{Code: TemplateNotInstantiated}
	ErrAccessException             error = &RenderError{Code: AccessException}
	ErrNotTextOnly                 error = &RenderError{Code: NotTextOnly}
	ErrNotOneVarTemplate           error = &RenderError{Code: NotOneVarTemplate}
	ErrNotTwoVarTemplate           error = &RenderError{Code: NotTwoVarTemplate}
	ErrStringifierReturnedNull     error = &RenderError{Code: StringifierReturnedNull}
	ErrStringifierNotNullResistant error = &RenderError{Code: StringifierNotNullResistant}
	ErrRepetitionsFixed            error = &RenderError{Code: RepetitionsFixed}
	ErrRepetitionMismatch          error = &RenderError{Code: RepetitionMismatch}
	ErrUnexpectedError             error = &RenderError{Code: UnexpectedError}
)
