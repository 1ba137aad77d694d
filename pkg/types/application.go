package types

import (
	"errors"
	"time"
)

type ApplicationStatus string

const (
	ApplicationStatusSubmitted ApplicationStatus = "submitted"
)

var (
	ErrApplicationNotFound  = errors.New("application not found")
	ErrDuplicateApplication = errors.New("application already exists")
)

// Application is the persisted record of one submission.
type Application struct {
	SubmissionID  string `bson:"_id" json:"submission_id" db:"submission_id"`
	ApplicationID string `bson:"application_id" json:"application_id" db:"application_id"`

	FullName    string      `bson:"full_name" json:"full_name"`
	Nationality string      `bson:"nationality" json:"nationality"`
	DateOfBirth string      `bson:"date_of_birth" json:"date_of_birth"`
	Email       string      `bson:"email" json:"email"`
	ContactInfo ContactInfo `bson:"contact_info" json:"contact_info"`

	HasQatarResidence  string              `bson:"has_qatar_residence" json:"has_qatar_residence"`
	QatarResidenceInfo *QatarResidenceInfo `bson:"qatar_residence_info" json:"qatar_residence_info"`
	PassportInfo       *PassportInfo       `bson:"passport_info" json:"passport_info"`

	WorkExperience WorkExperience `bson:"work_experience" json:"work_experience"`

	Files map[FileSlot]*FileDescriptor `bson:"files" json:"files"`

	SubmissionDate       time.Time         `bson:"submission_date" json:"submission_date" db:"submitted_at"`
	Status               ApplicationStatus `bson:"status" json:"status"`
	GoogleDriveFolderURL string            `bson:"google_drive_folder_url" json:"google_drive_folder_url"`
}

type ContactInfo struct {
	CountryCode string `bson:"country_code" json:"country_code"`
	PhoneNumber string `bson:"phone_number" json:"phone_number"`
}

type QatarResidenceInfo struct {
	QatariIDNumber *string `bson:"qatari_id_number" json:"qatari_id_number"`
	QatariIDExpiry *string `bson:"qatari_id_expiry" json:"qatari_id_expiry"`
}

type PassportInfo struct {
	PassportNumber *string `bson:"passport_number" json:"passport_number"`
	PassportExpiry *string `bson:"passport_expiry" json:"passport_expiry"`
}

type WorkExperience struct {
	WorkedWithProtv    string   `bson:"worked_with_protv" json:"worked_with_protv"`
	LastProjectName    string   `bson:"last_project_name" json:"last_project_name"`
	PreferredWorkTypes []string `bson:"preferred_work_types" json:"preferred_work_types"`
	Position           string   `bson:"position" json:"position"`
}

// SetResidence fills exactly one of the residence sub-objects, or neither.
func (a *Application) SetResidence(r Residence) {
	a.QatarResidenceInfo = nil
	a.PassportInfo = nil

	switch v := r.(type) {
	case QatarResident:
		a.QatarResidenceInfo = &QatarResidenceInfo{
			QatariIDNumber: v.IDNumber,
			QatariIDExpiry: v.IDExpiry,
		}
	case NonResident:
		a.PassportInfo = &PassportInfo{
			PassportNumber: v.PassportNumber,
			PassportExpiry: v.PassportExpiry,
		}
	}
}

// Confirmation is returned to the caller after a successful submission.
type Confirmation struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	ApplicationID string `json:"application_id"`
	SubmissionID  string `json:"submission_id"`
}
