package study

import (
	"errors"
	"iter"
	"strings"

	"github.com/thywilljoshua/studybuddy/internal/domain"
)

// Collect drains seq, handing each fragment to onFragment as it arrives.
// The joined reply is returned only when the sequence ends cleanly; on
// failure the partial text is dropped.
func Collect(seq iter.Seq2[string, error], onFragment func(string)) (string, error) {
	var buf strings.Builder
	for fragment, err := range seq {
		if err != nil {
			return "", completionFailure(err)
		}
		buf.WriteString(fragment)
		if onFragment != nil {
			onFragment(fragment)
		}
	}
	return buf.String(), nil
}

func completionFailure(err error) error {
	var de *domain.Error
	if errors.As(err, &de) && (de.Kind == domain.KindConfig || de.Kind == domain.KindCompletion) {
		return err
	}
	return domain.CompletionError("An error occurred", err)
}
