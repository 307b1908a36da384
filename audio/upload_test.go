package audio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectReference(t *testing.T) {
	p, err := SelectReference([]string{"notes.txt", "piece.WAV", "cover.png"})
	require.NoError(t, err)
	assert.Equal(t, "piece.WAV", p)

	p, err = SelectReference([]string{"a/b/take.wave"})
	require.NoError(t, err)
	assert.Equal(t, "a/b/take.wave", p)
}

func TestSelectReferenceNone(t *testing.T) {
	_, err := SelectReference([]string{"notes.txt"})
	assert.ErrorIs(t, err, ErrNoReference)
	assert.ErrorIs(t, err, ErrUpload)

	_, err = SelectReference(nil)
	assert.ErrorIs(t, err, ErrNoReference)
}

func TestSelectReferenceMultiple(t *testing.T) {
	_, err := SelectReference([]string{"one.wav", "two.wav"})
	assert.ErrorIs(t, err, ErrMultipleReferences)
	assert.ErrorIs(t, err, ErrUpload)
	assert.Contains(t, err.Error(), "two.wav")
}

func TestParseAnnotations(t *testing.T) {
	ann, err := ParseAnnotations(strings.NewReader("0\n1.5\n\n 12.25 \n"))
	require.NoError(t, err)
	assert.Equal(t, Annotations{0, 1.5, 12.25}, ann)
}

func TestParseAnnotationsWholeFileFails(t *testing.T) {
	ann, err := ParseAnnotations(strings.NewReader("1\n2\nthree\n4\n"))
	assert.Nil(t, ann)
	assert.ErrorContains(t, err, "line 3")
	assert.NotContains(t, err.Error(), "three")
}

func TestParseAnnotationsEmpty(t *testing.T) {
	ann, err := ParseAnnotations(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, ann)
}
