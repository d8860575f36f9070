package errors

// ParseErrorCode identifies a compile-time violation of the template grammar.
type ParseErrorCode int

const (
	ParseErrorUnknown ParseErrorCode = iota
	DuplicateTmplName
	IllegalTmplName
	VarNameWithTmplName
	NoPlaceholderDefined
	InvalidIncludePath
	BeginTagNotTerminated
	EndTagNotTerminated
	IncludeTagNotTerminated
	MissingEndTag
	DanglingEndTag
	DitchBlockNotClosed
	PlaceholderNotClosed
	IllegalVarPrefix
	IncludeCycle
)

var parseCodeNames = map[ParseErrorCode]string{
	DuplicateTmplName:       "DUPLICATE_TMPL_NAME",
	IllegalTmplName:         "ILLEGAL_TMPL_NAME",
	VarNameWithTmplName:     "VAR_NAME_WITH_TMPL_NAME",
	NoPlaceholderDefined:    "NO_PLACEHOLDER_DEFINED",
	InvalidIncludePath:      "INVALID_INCLUDE_PATH",
	BeginTagNotTerminated:   "BEGIN_TAG_NOT_TERMINATED",
	EndTagNotTerminated:     "END_TAG_NOT_TERMINATED",
	IncludeTagNotTerminated: "INCLUDE_TAG_NOT_TERMINATED",
	MissingEndTag:           "MISSING_END_TAG",
	DanglingEndTag:          "DANGLING_END_TAG",
	DitchBlockNotClosed:     "DITCH_BLOCK_NOT_CLOSED",
	PlaceholderNotClosed:    "PLACEHOLDER_NOT_CLOSED",
	IllegalVarPrefix:        "ILLEGAL_VAR_PREFIX",
	IncludeCycle:            "INCLUDE_CYCLE",
}

// String returns the upper snake case name of the code.
func (c ParseErrorCode) String() string {
	if s, ok := parseCodeNames[c]; ok {
		return s
	}
	return "UNKNOWN"
}

// RenderErrorCode identifies a violation of the render protocol.
type RenderErrorCode int

const (
	RenderErrorUnknown RenderErrorCode = iota
	NoSuchVariable
	NoSuchTemplate
	TemplateNotInstantiated
	AccessException
	NotTextOnly
	NotOneVarTemplate
	NotTwoVarTemplate
	StringifierReturnedNull
	StringifierNotNullResistant
	RepetitionsFixed
	RepetitionMismatch
	UnexpectedError
)

var renderCodeNames = map[RenderErrorCode]string{
	NoSuchVariable:              "NO_SUCH_VARIABLE",
	NoSuchTemplate:              "NO_SUCH_TEMPLATE",
	TemplateNotInstantiated:     "TEMPLATE_NOT_INSTANTIATED",
	AccessException:             "ACCESS_EXCEPTION",
	NotTextOnly:                 "NOT_TEXT_ONLY",
	NotOneVarTemplate:           "NOT_ONE_VAR_TEMPLATE",
	NotTwoVarTemplate:           "NOT_TWO_VAR_TEMPLATE",
	StringifierReturnedNull:     "STRINGIFIER_RETURNED_NULL",
	StringifierNotNullResistant: "STRINGIFIER_NOT_NULL_RESISTENT",
	RepetitionsFixed:            "REPETITIONS_FIXED",
	RepetitionMismatch:          "REPETITION_MISMATCH",
	UnexpectedError:             "UNEXPECTED_ERROR",
}

// String returns the upper snake case name of the code.
func (c RenderErrorCode) String() string {
	if s, ok := renderCodeNames[c]; ok {
		return s
	}
	return "UNKNOWN"
}
