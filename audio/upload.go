package audio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Upload errors are recoverable: they are reported to the user and nothing changes.
var (
	ErrUpload             = errors.New("upload rejected")
	ErrNoReference        = fmt.Errorf("%w: no .wav file found, upload a single .wav file", ErrUpload)
	ErrMultipleReferences = fmt.Errorf("%w: more than one .wav file, upload a single .wav file", ErrUpload)
)

var referenceExtensions = []string{".wav", ".wave"}

// IsReferenceFile reports whether path names a WAV file.
func IsReferenceFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range referenceExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// SelectReference picks the one WAV file among the uploaded paths.
func SelectReference(paths []string) (string, error) {
	var found []string
	for _, p := range paths {
		if IsReferenceFile(p) {
			found = append(found, p)
		}
	}
	switch len(found) {
	case 0:
		return "", ErrNoReference
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("%w (%s)", ErrMultipleReferences, strings.Join(found, ", "))
	}
}
