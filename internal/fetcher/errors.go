package fetcher

import "fmt"

type Kind int

const (
	// KindDownload covers metadata lookup, stream selection and stream copy.
	KindDownload Kind = iota + 1
	KindFilesystem
)

func (k Kind) String() string {
	switch k {
	case KindDownload:
		return "download"
	case KindFilesystem:
		return "filesystem"
	default:
		return "unknown"
	}
}

// Error is returned by Fetch for every failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func downloadErr(format string, args ...any) error {
	return &Error{Kind: KindDownload, Err: fmt.Errorf(format, args...)}
}

func filesystemErr(format string, args ...any) error {
	return &Error{Kind: KindFilesystem, Err: fmt.Errorf(format, args...)}
}
