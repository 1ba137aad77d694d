package intake

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const applicationIDPrefix = "PROTV"

// submission ids derived from a client idempotency key live in this namespace
var idempotencyNamespace = uuid.MustParse("5c1f3c52-8a4e-4f0e-9d8b-2f6a1e7c9b31")

// NewApplicationID builds the human readable PROTV-YYYYMMDD-XXXXXXXX id from
// the submission day and the first eight hex characters of a fresh uuid.
func NewApplicationID(now time.Time) string {
	return formatApplicationID(now, uuid.New())
}

func formatApplicationID(now time.Time, id uuid.UUID) string {
	return fmt.Sprintf("%s-%s-%s", applicationIDPrefix, now.Format("20060102"), strings.ToUpper(id.String()[:8]))
}

// NewSubmissionID returns a random uuid, or a stable one when the caller
// supplied an idempotency key.
func NewSubmissionID(idempotencyKey string) string {
	if idempotencyKey == "" {
		return uuid.NewString()
	}

	return uuid.NewSHA1(idempotencyNamespace, []byte(idempotencyKey)).String()
}
