package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validDraft() ItemDraft {
	return ItemDraft{
		Title:       "Red Wallet",
		Description: "Lost near the station",
		Location:    "Colombo",
		Category:    "Bags",
		Phone:       "0771234567",
		Email:       "owner@example.com",
	}
}

func TestDraftValidateAccepted(t *testing.T) {
	assert.Nil(t, validDraft().Validate(0))
}

func TestDraftValidateRequiredFields(t *testing.T) {
	errs := ItemDraft{}.Validate(0)
	for _, field := range []string{"title", "description", "location", "category", "phone", "email"} {
		assert.Contains(t, errs, field)
	}
}

func TestDraftValidatePhone(t *testing.T) {
	cases := map[string]bool{
		"0771234567":  true,
		"077123456":   false, // 9 chiffres
		"07712345678": false, // 11 chiffres
		"07712345ab":  false,
		"+771234567":  false,
	}
	for phone, ok := range cases {
		draft := validDraft()
		draft.Phone = phone
		errs := draft.Validate(0)
		if ok {
			assert.Nil(t, errs, phone)
		} else {
			assert.Contains(t, errs, "phone", phone)
		}
	}
}

func TestDraftValidateEmail(t *testing.T) {
	cases := map[string]bool{
		"owner@example.com": true,
		"a@b.co":            true,
		"owner@example":     false,
		"owner example.com": false,
		"@example.com":      false,
	}
	for email, ok := range cases {
		draft := validDraft()
		draft.Email = email
		errs := draft.Validate(0)
		if ok {
			assert.Nil(t, errs, email)
		} else {
			assert.Contains(t, errs, "email", email)
		}
	}
}

func TestDraftValidateEnumMembership(t *testing.T) {
	draft := validDraft()
	draft.Location = "Atlantis"
	assert.Contains(t, draft.Validate(0), "location")

	draft = validDraft()
	draft.Category = "Spaceships"
	assert.Contains(t, draft.Validate(0), "category")
}

func TestDraftValidateImageCap(t *testing.T) {
	draft := validDraft()
	draft.ImageURLs = []string{"a", "b", "c", "d", "e"}
	assert.Nil(t, draft.Validate(0))
	assert.Contains(t, draft.Validate(1), "images")
}

func TestUpdateValidateOnlyPresentFields(t *testing.T) {
	// Une mise à jour vide est valide: rien ne change
	assert.Nil(t, ItemUpdate{}.Validate(0))

	bad := "not-an-email"
	errs := ItemUpdate{Email: &bad}.Validate(0)
	assert.Contains(t, errs, "email")
	assert.NotContains(t, errs, "phone")
}

func TestCollectionStatusProgression(t *testing.T) {
	assert.Equal(t, StatusLost, CollectionLost.InitialStatus())
	assert.Equal(t, StatusFound, CollectionLost.TerminalStatus())
	assert.Equal(t, StatusFound, CollectionFound.InitialStatus())
	assert.Equal(t, StatusReturned, CollectionFound.TerminalStatus())

	assert.True(t, CollectionLost.ValidStatus(StatusLost))
	assert.True(t, CollectionLost.ValidStatus(StatusFound))
	assert.False(t, CollectionLost.ValidStatus(StatusReturned))
	assert.False(t, CollectionFound.ValidStatus(StatusLost))
}
