package language

import "bytes"

// sniffLen is how much of a file is inspected when guessing whether it is binary.
const sniffLen = 512

// IsBinaryContent reports whether data looks binary: a NUL byte within the first
// sniffLen bytes.
func IsBinaryContent(data []byte) bool {
	if len(data) > sniffLen {
		data = data[:sniffLen]
	}
	return bytes.IndexByte(data, 0) >= 0
}
