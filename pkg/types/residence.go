package types

const (
	ResidenceFlagYes = "yes"
	ResidenceFlagNo  = "no"
)

// Residence is one of QatarResident, NonResident or UnspecifiedResidence.
type Residence interface {
	residence()
}

type QatarResident struct {
	IDNumber *string
	IDExpiry *string
}

type NonResident struct {
	PassportNumber *string
	PassportExpiry *string
}

type UnspecifiedResidence struct{}

func (QatarResident) residence()        {}
func (NonResident) residence()          {}
func (UnspecifiedResidence) residence() {}

// ResidenceFromInput maps the raw hasQatarResidence flag onto a residence
// variant. Values other than "yes" and "no" are not rejected; they produce
// UnspecifiedResidence.
func ResidenceFromInput(in *ApplicationInput) Residence {
	switch in.HasQatarResidence {
	case ResidenceFlagYes:
		return QatarResident{IDNumber: in.QatariIDNumber, IDExpiry: in.QatariIDExpiry}
	case ResidenceFlagNo:
		return NonResident{PassportNumber: in.PassportNumber, PassportExpiry: in.PassportExpiry}
	default:
		return UnspecifiedResidence{}
	}
}
