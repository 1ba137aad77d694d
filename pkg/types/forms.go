package types

// ApplicationInput is the JSON object carried in the application_data form
// field. Missing keys decode to their zero values.
type ApplicationInput struct {
	FullName           string   `json:"fullName"`
	Nationality        string   `json:"nationality"`
	DateOfBirth        string   `json:"dateOfBirth"`
	Email              string   `json:"email"`
	CountryCode        string   `json:"countryCode"`
	PhoneNumber        string   `json:"phoneNumber"`
	HasQatarResidence  string   `json:"hasQatarResidence"`
	QatariIDNumber     *string  `json:"qatariIdNumber"`
	QatariIDExpiry     *string  `json:"qatariIdExpiry"`
	PassportNumber     *string  `json:"passportNumber"`
	PassportExpiry     *string  `json:"passportExpiry"`
	WorkedWithProtv    string   `json:"workedWithProtv"`
	LastProjectName    string   `json:"lastProjectName"`
	PreferredWorkTypes []string `json:"preferredWorkTypes"`
	Position           string   `json:"position"`
}

// SubmitForm holds the text fields of the multipart submission.
type SubmitForm struct {
	ApplicationData string `form:"application_data"`
	IdempotencyKey  string `form:"idempotency_key"`
}
