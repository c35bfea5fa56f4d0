package study

import (
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thywilljoshua/studybuddy/internal/domain"
)

func script(fragments []string, err error) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, f := range fragments {
			if !yield(f, nil) {
				return
			}
		}
		if err != nil {
			yield("", err)
		}
	}
}

func TestCollectJoinsFragments(t *testing.T) {
	var seen []string
	reply, err := Collect(script([]string{"The ", "answer", " is 4."}, nil), func(f string) {
		seen = append(seen, f)
	})

	require.NoError(t, err)
	assert.Equal(t, "The answer is 4.", reply)
	assert.Equal(t, []string{"The ", "answer", " is 4."}, seen)
}

func TestCollectEmptyStream(t *testing.T) {
	reply, err := Collect(script(nil, nil), nil)
	require.NoError(t, err)
	assert.Empty(t, reply)
}

func TestCollectDiscardsPartialReply(t *testing.T) {
	var seen []string
	reply, err := Collect(script([]string{"The ", "answer"}, errors.New("connection reset")), func(f string) {
		seen = append(seen, f)
	})

	require.Error(t, err)
	assert.Empty(t, reply)
	assert.Equal(t, []string{"The ", "answer"}, seen)
	assert.True(t, domain.IsKind(err, domain.KindCompletion))
	assert.ErrorContains(t, err, "connection reset")
}

func TestCollectKeepsConfigurationErrors(t *testing.T) {
	_, err := Collect(script(nil, domain.ConfigurationError("missing OPENAI_API_KEY", nil)), nil)
	assert.True(t, domain.IsKind(err, domain.KindConfig))
}
