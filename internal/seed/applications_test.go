package seed

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand"
	"testing"

	"protv/internal/intake"
	"protv/pkg/types"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSubmitter struct {
	seen map[string]bool
	subs []*intake.Submission
	err  error
}

func (r *recordingSubmitter) Submit(ctx context.Context, sub *intake.Submission) (*intake.Result, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.seen == nil {
		r.seen = make(map[string]bool)
	}

	replayed := r.seen[sub.IdempotencyKey]
	r.seen[sub.IdempotencyKey] = true
	r.subs = append(r.subs, sub)

	return &intake.Result{
		Confirmation: types.Confirmation{Success: true, SubmissionID: intake.NewSubmissionID(sub.IdempotencyKey)},
		Replayed:     replayed,
	}, nil
}

func TestSeedApplications(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	submitter := new(recordingSubmitter)

	err := SeedApplications(context.Background(), logger, submitter, 8, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Len(t, submitter.subs, 8)

	for i, sub := range submitter.subs {
		var input types.ApplicationInput
		require.NoError(t, json.Unmarshal([]byte(sub.ApplicationData), &input))

		applicant := fakeApplicants[i%len(fakeApplicants)]
		assert.Equal(t, applicant.FullName, input.FullName)
		assert.NotEmpty(t, input.PreferredWorkTypes)

		if applicant.Resident {
			assert.Equal(t, "yes", input.HasQatarResidence)
			assert.NotNil(t, input.QatariIDNumber)
			assert.Nil(t, input.PassportNumber)
		} else {
			assert.Equal(t, "no", input.HasQatarResidence)
			assert.NotNil(t, input.PassportNumber)
			assert.Nil(t, input.QatariIDNumber)
		}

		cv := sub.Files[types.SlotCV]
		require.NotNil(t, cv)
		rc, err := cv.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.EqualValues(t, len(content), cv.Size)
	}
}

func TestSeedApplications_RerunReplays(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	submitter := new(recordingSubmitter)

	require.NoError(t, SeedApplications(context.Background(), logger, submitter, 3, rand.New(rand.NewSource(1))))
	require.NoError(t, SeedApplications(context.Background(), logger, submitter, 3, rand.New(rand.NewSource(2))))

	assert.Len(t, submitter.seen, 3)
	assert.Equal(t, submitter.subs[0].IdempotencyKey, submitter.subs[3].IdempotencyKey)
}

func TestSeedApplications_StopsOnError(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	submitter := &recordingSubmitter{err: errors.New("store down")}

	err := SeedApplications(context.Background(), logger, submitter, 2, rand.New(rand.NewSource(1)))
	assert.ErrorContains(t, err, "store down")
}
