package types

// FileSlot names one of the fixed upload categories of a submission.
type FileSlot string

const (
	SlotPersonalPhoto FileSlot = "personal_photo"
	SlotIDCopy        FileSlot = "id_copy"
	SlotPassportCopy  FileSlot = "passport_copy"
	SlotCV            FileSlot = "cv"
	SlotPortfolio     FileSlot = "portfolio"
)

// FileSlots lists every slot in processing order.
var FileSlots = []FileSlot{
	SlotPersonalPhoto,
	SlotIDCopy,
	SlotPassportCopy,
	SlotCV,
	SlotPortfolio,
}

// FileDescriptor is the storage provider's reference to one uploaded file.
type FileDescriptor struct {
	FileID       string `bson:"file_id" json:"file_id"`
	FileName     string `bson:"file_name" json:"file_name"`
	ViewLink     string `bson:"view_link" json:"view_link"`
	DownloadLink string `bson:"download_link" json:"download_link"`
	MimeType     string `bson:"mime_type" json:"mime_type"`
}

type SlotOutcome string

const (
	SlotNotAttempted SlotOutcome = "not_attempted"
	SlotSucceeded    SlotOutcome = "succeeded"
	SlotFailed       SlotOutcome = "failed"
)
