package status

// ErrorCode is a numeric code to classify API errors in a stable way
type ErrorCode int

// Reserved ranges by domain:
//   0-999:     client/validation errors
//   1000-1999: Course authoring
//   2000-2999: Chat / lesson playback
//   3000-3999: Media upload

const (
	BadRequestBase    ErrorCode = 0
	CourseErrorBase   ErrorCode = 1000
	ChatErrorBase     ErrorCode = 2000
	UploadErrorBase   ErrorCode = 3000
	InternalErrorBase ErrorCode = 9000
)

// Client/validation errors start at 0
const (
	InvalidRequestBody ErrorCode = BadRequestBase + iota // 0
	MissingParams                                        // 1
	NotFound                                             // 2
	Forbidden                                            // 3
	Conflict                                             // 4
)

// Course authoring errors start at 1000
const (
	CourseNotFound ErrorCode = CourseErrorBase + iota // 1000
	ChapterNotFound                                   // 1001
	ScriptUnparsed                                    // 1002
	NotCourseOwner                                    // 1003
	AlreadyEnrolled                                   // 1004
	OwnCourseEnroll                                   // 1005
)

// Chat errors start at 2000
const (
	LessonNotFound  ErrorCode = ChatErrorBase + iota // 2000
	NotAuthorized                                    // 2001
	StateLoadFailed                                  // 2002
)

// Media upload errors start at 3000
const (
	UploadMissingFile ErrorCode = UploadErrorBase + iota // 3000
	UploadStoreFailed                                    // 3001
)

// Internal errors start at 9000
const (
	ErrorCodeInternal ErrorCode = InternalErrorBase // 9000
)

// CodedError represents an error with an associated ErrorCode
type CodedError interface {
	error
	ErrorCode() ErrorCode
}

type codedError struct {
	code ErrorCode
	err  error
}

func (e codedError) Error() string        { return e.err.Error() }
func (e codedError) Unwrap() error        { return e.err }
func (e codedError) ErrorCode() ErrorCode { return e.code }

// New creates a new CodedError with the given code and underlying error
func New(code ErrorCode, err error) error {
	if err == nil {
		return nil
	}
	return codedError{code: code, err: err}
}
