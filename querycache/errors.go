package querycache

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-resource-query/dictionary"
	"github.com/goliatone/go-resource-query/params"
)

// AsError converts a Query or Invalidate error into a structured error
// carrying requestID.
func AsError(err error, requestID string) *goerrors.Error {
	if err == nil {
		return nil
	}

	var (
		out      *goerrors.Error
		verr     *params.ValidationError
		notFound *dictionary.UnknownResourceError
	)
	switch {
	case errors.As(err, &verr):
		out = verr.ToError()
	case errors.As(err, &notFound):
		out = notFound.ToError()
	case errors.As(err, &out):
		out = out.Clone()
	default:
		out = goerrors.Wrap(err, goerrors.CategoryInternal, "query failed").
			WithCode(500).
			WithTextCode("QUERY_FAILED")
	}

	if requestID != "" {
		out = out.WithRequestID(requestID)
	}
	return out
}
