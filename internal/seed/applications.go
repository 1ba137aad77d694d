package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"strings"

	"protv/internal/intake"
	"protv/internal/utils"
	"protv/pkg/types"

	"github.com/sirupsen/logrus"
)

type fakeApplicantSeed struct {
	FullName    string
	Nationality string
	Email       string
	CountryCode string
	PhoneNumber string
	Resident    bool
}

var fakeApplicants = []fakeApplicantSeed{
	{FullName: "Layla Al Mansouri", Nationality: "Qatari", Email: "layla.mansouri+seed1@example.com", CountryCode: "+974", PhoneNumber: "55012345", Resident: true},
	{FullName: "Omar Haddad", Nationality: "Jordanian", Email: "omar.haddad+seed2@example.com", CountryCode: "+962", PhoneNumber: "790001122", Resident: false},
	{FullName: "Priya Raman", Nationality: "Indian", Email: "priya.raman+seed3@example.com", CountryCode: "+974", PhoneNumber: "66004433", Resident: true},
	{FullName: "Youssef Benali", Nationality: "Moroccan", Email: "youssef.benali+seed4@example.com", CountryCode: "+212", PhoneNumber: "612345678", Resident: false},
	{FullName: "Sara Khalil", Nationality: "Lebanese", Email: "sara.khalil+seed5@example.com", CountryCode: "+961", PhoneNumber: "3123456", Resident: false},
	{FullName: "Ahmed Al Thani", Nationality: "Qatari", Email: "ahmed.thani+seed6@example.com", CountryCode: "+974", PhoneNumber: "33998877", Resident: true},
}

var fakePositions = []string{"Camera Operator", "Video Editor", "Producer", "Sound Engineer", "Presenter", "Colorist"}

var fakeWorkTypes = []string{"filming", "editing", "production", "sound", "presenting", "post-production"}

var fakeProjects = []string{"Doha Nights", "Desert Voices", "The Pearl Diaries", ""}

// Submitter is the intake entrypoint the seeder drives.
type Submitter interface {
	Submit(ctx context.Context, sub *intake.Submission) (*intake.Result, error)
}

// SeedApplications pushes count fake applications through the regular intake
// workflow. Each one carries a fixed idempotency key so reruns replay instead
// of duplicating.
func SeedApplications(ctx context.Context, logger *logrus.Logger, submitter Submitter, count int, rng *rand.Rand) error {
	seeded := 0
	for i := 0; i < count; i++ {
		sub, err := fakeSubmission(i, rng)
		if err != nil {
			return err
		}

		result, err := submitter.Submit(ctx, sub)
		if err != nil {
			return fmt.Errorf("failed to seed application %d: %w", i, err)
		}

		if !result.Replayed {
			seeded++
		}

		logger.WithFields(logrus.Fields{
			"application_id": result.Confirmation.ApplicationID,
			"submission_id":  result.Confirmation.SubmissionID,
			"replayed":       result.Replayed,
		}).Info("seeded application")
	}

	logger.WithField("count", seeded).Info("fake applications seeded")
	return nil
}

func fakeSubmission(i int, rng *rand.Rand) (*intake.Submission, error) {
	applicant := fakeApplicants[i%len(fakeApplicants)]

	input := types.ApplicationInput{
		FullName:           applicant.FullName,
		Nationality:        applicant.Nationality,
		DateOfBirth:        fmt.Sprintf("%02d/%02d/%d", 1+rng.Intn(28), 1+rng.Intn(12), 1975+rng.Intn(25)),
		Email:              applicant.Email,
		CountryCode:        applicant.CountryCode,
		PhoneNumber:        applicant.PhoneNumber,
		WorkedWithProtv:    "no",
		LastProjectName:    fakeProjects[rng.Intn(len(fakeProjects))],
		PreferredWorkTypes: pickWorkTypes(rng),
		Position:           fakePositions[rng.Intn(len(fakePositions))],
	}

	if input.LastProjectName != "" {
		input.WorkedWithProtv = "yes"
	}

	expiry := fmt.Sprintf("01/%02d/%d", 1+rng.Intn(12), 2027+rng.Intn(5))
	if applicant.Resident {
		input.HasQatarResidence = "yes"
		input.QatariIDNumber = utils.StringPtr(fmt.Sprintf("2%010d", rng.Int63n(1e10)))
		input.QatariIDExpiry = utils.StringPtr(expiry)
	} else {
		input.HasQatarResidence = "no"
		input.PassportNumber = utils.StringPtr(fmt.Sprintf("P%08d", rng.Intn(1e8)))
		input.PassportExpiry = utils.StringPtr(expiry)
	}

	data, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fake application %d: %w", i, err)
	}

	return &intake.Submission{
		ApplicationData: string(data),
		Files: map[types.FileSlot]*intake.File{
			types.SlotCV: fakeFile(strings.ReplaceAll(applicant.FullName, " ", "_")+"_CV.txt", "text/plain", "Curriculum vitae of "+applicant.FullName),
		},
		IdempotencyKey: fmt.Sprintf("seed-application-%d", i),
	}, nil
}

func pickWorkTypes(rng *rand.Rand) []string {
	n := 1 + rng.Intn(3)
	picked := make([]string, 0, n)
	for _, idx := range rng.Perm(len(fakeWorkTypes))[:n] {
		picked = append(picked, fakeWorkTypes[idx])
	}
	return picked
}

func fakeFile(name, mimeType, content string) *intake.File {
	return &intake.File{
		Name:     name,
		MimeType: mimeType,
		Size:     int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}
