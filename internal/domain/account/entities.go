package account

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("account not found")
	ErrAlreadyExists = errors.New("username or email already registered")
	ErrForbidden     = errors.New("action not allowed for this account")
	// ErrInvalidProfile: registration or profile input breaks a rule.
	ErrInvalidProfile = errors.New("invalid profile")
	// ErrInvalidDocument: upload rejected (kind, type or size).
	ErrInvalidDocument = errors.New("invalid document")
	ErrProfileLocked   = errors.New("profile already validated")
)

type MaritalStatus string

const (
	MaritalSingle   MaritalStatus = "single"
	MaritalMarried  MaritalStatus = "married"
	MaritalDivorced MaritalStatus = "divorced"
	MaritalWidowed  MaritalStatus = "widowed"
)

func (m MaritalStatus) Valid() bool {
	switch m {
	case MaritalSingle, MaritalMarried, MaritalDivorced, MaritalWidowed:
		return true
	}
	return false
}

type DocumentKind string

const (
	DocIDFront        DocumentKind = "id_front"
	DocIDBack         DocumentKind = "id_back"
	DocProofOfAddress DocumentKind = "proof_of_address"
	DocOther          DocumentKind = "other"
	DocLoanProject    DocumentKind = "loan_project"
)

func (k DocumentKind) Valid() bool {
	switch k {
	case DocIDFront, DocIDBack, DocProofOfAddress, DocOther, DocLoanProject:
		return true
	}
	return false
}

// ImageOnly reports whether the kind only accepts pictures (identity card sides).
func (k DocumentKind) ImageOnly() bool { return k == DocIDFront || k == DocIDBack }

// DocumentPrefix is the object key prefix of an account's documents of one kind.
func DocumentPrefix(accountID string, kind DocumentKind) string {
	return "accounts/" + accountID + "/" + string(kind)
}

// OwnsDocument reports whether key was stored under accountID for kind.
func OwnsDocument(accountID string, kind DocumentKind, key string) bool {
	rest, ok := strings.CutPrefix(key, DocumentPrefix(accountID, kind)+"/")
	return ok && accountID != "" && rest != "" && !strings.Contains(rest, "/") && !strings.Contains(key, "..")
}

type Account struct {
	ID        uint64    `gorm:"primaryKey;column:id" json:"-"`
	AccountID string    `gorm:"size:32;not null;uniqueIndex:ux_accounts_account_id" json:"account_id"`
	Username  string    `gorm:"size:150;not null;uniqueIndex:ux_accounts_username" json:"username"`
	Email     string    `gorm:"size:254;not null;uniqueIndex:ux_accounts_email" json:"email"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	Profile   *Profile  `gorm:"foreignKey:AccountPK;references:ID" json:"profile,omitempty"`
}

func (Account) TableName() string { return "accounts" }

// DisplayName prefers the profile identity and falls back to the username.
func (a *Account) DisplayName() string {
	if a.Profile != nil && a.Profile.LastName != "" && a.Profile.FirstName != "" {
		return a.Profile.FirstName + " " + a.Profile.LastName
	}
	return a.Username
}

// Profile carries KYC data. Document fields hold object-store keys.
type Profile struct {
	ID                uint64        `gorm:"primaryKey;column:id" json:"-"`
	AccountPK         uint64        `gorm:"column:account_id;not null;uniqueIndex:ux_profiles_account" json:"-"`
	LastName          string        `gorm:"size:100" json:"last_name"`
	FirstName         string        `gorm:"size:100" json:"first_name"`
	BirthDate         *time.Time    `json:"birth_date,omitempty"`
	BirthPlace        string        `gorm:"size:200" json:"birth_place"`
	MaritalStatus     MaritalStatus `gorm:"size:16" json:"marital_status"`
	Profession        string        `gorm:"size:200" json:"profession"`
	Address           string        `gorm:"type:text" json:"address"`
	IDFrontKey        string        `gorm:"size:255" json:"id_front_key,omitempty"`
	IDBackKey         string        `gorm:"size:255" json:"id_back_key,omitempty"`
	ProofOfAddressKey string        `gorm:"size:255" json:"proof_of_address_key,omitempty"`
	OtherDocumentKey  string        `gorm:"size:255" json:"other_document_key,omitempty"`
	IsValidated       bool          `gorm:"not null;default:false" json:"is_validated"`
	ValidatedAt       *time.Time    `json:"validated_at,omitempty"`
	CreatedAt         time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }

// IsComplete: every identity field plus both id sides and a proof of address.
func (p *Profile) IsComplete() bool {
	if p == nil {
		return false
	}
	return p.LastName != "" && p.FirstName != "" && p.BirthDate != nil &&
		p.BirthPlace != "" && p.MaritalStatus.Valid() && p.Profession != "" &&
		p.Address != "" && p.IDFrontKey != "" && p.IDBackKey != "" && p.ProofOfAddressKey != ""
}

// SetDocument stores key under the profile field matching kind.
func (p *Profile) SetDocument(kind DocumentKind, key string) bool {
	switch kind {
	case DocIDFront:
		p.IDFrontKey = key
	case DocIDBack:
		p.IDBackKey = key
	case DocProofOfAddress:
		p.ProofOfAddressKey = key
	case DocOther:
		p.OtherDocumentKey = key
	default:
		return false
	}
	return true
}
