package account

import (
	"time"

	domain "ecobank-loans/internal/domain/account"
)

type ProfileInput struct {
	LastName      string
	FirstName     string
	BirthDate     *time.Time
	BirthPlace    string
	MaritalStatus domain.MaritalStatus
	Profession    string
	Address       string
}

type RegisterInput struct {
	Username string
	Email    string
	Profile  ProfileInput
}

type DocumentInput struct {
	AccountID   string
	RequesterID string
	Kind        domain.DocumentKind
	Filename    string
	Size        int64
}

type AccountDTO struct {
	AccountID       string          `json:"account_id"`
	Username        string          `json:"username"`
	Email           string          `json:"email"`
	CreatedAt       time.Time       `json:"created_at"`
	Profile         *domain.Profile `json:"profile,omitempty"`
	ProfileComplete bool            `json:"profile_complete"`
}

type DocumentDTO struct {
	Kind        domain.DocumentKind `json:"kind"`
	Key         string              `json:"key"`
	ContentType string              `json:"content_type"`
	Size        int64               `json:"size"`
}

func toDTO(a *domain.Account) *AccountDTO {
	return &AccountDTO{
		AccountID:       a.AccountID,
		Username:        a.Username,
		Email:           a.Email,
		CreatedAt:       a.CreatedAt,
		Profile:         a.Profile,
		ProfileComplete: a.Profile.IsComplete(),
	}
}

func (in ProfileInput) apply(p *domain.Profile) {
	p.LastName = in.LastName
	p.FirstName = in.FirstName
	p.BirthDate = in.BirthDate
	p.BirthPlace = in.BirthPlace
	p.MaritalStatus = in.MaritalStatus
	p.Profession = in.Profession
	p.Address = in.Address
}
