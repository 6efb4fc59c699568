package bus

import (
	"fmt"

	"github.com/basecore/basecore/internal/ferr"
)

// CodeInvalidTopic indicates subscribe() was given a malformed pattern.
const CodeInvalidTopic = "INVALID_TOPIC"

// ErrInvalidTopic reports why a topic pattern was rejected.
func ErrInvalidTopic(pattern, reason string) *ferr.Error {
	return ferr.New(CodeInvalidTopic, fmt.Sprintf("invalid topic %q: %s", pattern, reason), nil).
		WithContext("pattern", pattern)
}
