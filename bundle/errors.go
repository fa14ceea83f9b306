package bundle

import "fmt"

// DirectoryNotFoundError is returned when the scan root does not exist or is not
// a directory.
type DirectoryNotFoundError struct {
	Path string
	Err  error // underlying stat error, nil when the path exists but is not a directory
}

func (e *DirectoryNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("directory not found: %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("directory not found: %s: not a directory", e.Path)
}

func (e *DirectoryNotFoundError) Unwrap() error { return e.Err }

// DecodeError is returned when a file's content is not valid UTF-8 text.
type DecodeError struct {
	Path   string
	Offset int  // byte offset of the first invalid sequence
	Binary bool // content looks like a binary file
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("decoding %q: invalid UTF-8 at byte %d", e.Path, e.Offset)
	if e.Binary {
		msg += " (file looks binary)"
	}
	return msg
}
