package service_test

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/vireoapp/vireo/models"
	"github.com/vireoapp/vireo/service"
)

func TestKeySetupValidation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*service.KeySetup)
		wantField string
	}{
		{"Valid", func(s *service.KeySetup) {}, ""},
		{"Bad Salt Base64", func(s *service.KeySetup) { s.Salt = "{bad}" }, "salt"},
		{"Salt Too Short", func(s *service.KeySetup) { s.Salt = base64.StdEncoding.EncodeToString([]byte("tiny")) }, "salt"},
		{"Bad Private Key Base64", func(s *service.KeySetup) { s.EncryptedPrivateKey = "!!!" }, "encryptedPrivateKey"},
		{"Empty Private Key", func(s *service.KeySetup) { s.EncryptedPrivateKey = "" }, "encryptedPrivateKey"},
		{"Private Key Too Large", func(s *service.KeySetup) {
			s.EncryptedPrivateKey = base64.StdEncoding.EncodeToString(make([]byte, 9*1024))
		}, "encryptedPrivateKey"},
		{"Empty Public Key", func(s *service.KeySetup) { s.PublicKey = "" }, "publicKey"},
		{"Empty Public Key Id", func(s *service.KeySetup) { s.PublicKeyId = "" }, "publicKeyId"},
		{"Unknown Recovery Method", func(s *service.KeySetup) { s.RecoveryMethods = []string{"carrier-pigeon"} }, "recoveryMethods"},
		{"Recovery Enabled Without Methods", func(s *service.KeySetup) { s.RecoveryEnabled = true }, "recoveryMethods"},
		{"Valid With Recovery", func(s *service.KeySetup) {
			s.RecoveryEnabled = true
			s.RecoveryMethods = []string{"email", "passphrase"}
		}, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, mockStore, mockCache, _, _, _ := setupService(t)
			setup := validKeySetup()
			tc.mutate(&setup)

			if tc.wantField == "" {
				mockStore.On("CreateKeyRecord", context.Background(), mock.Anything).Return(nil)
				mockStore.On("SetUserEncryptionFlag", mock.Anything, "u1", true).Return(nil)
				mockCache.On("SetPublicKey", mock.Anything, "u1", mock.Anything).Return(nil)
				mockCache.On("Publish", mock.Anything, "user-keys-updated", mock.Anything).Return(nil)
			}

			_, err := svc.SetupEncryption(context.Background(), models.User{Id: "u1"}, setup)

			if tc.wantField == "" {
				assert.NoError(t, err)
			} else {
				var validationErr *service.ValidationError
				assert.ErrorAs(t, err, &validationErr)
				assert.Equal(t, tc.wantField, validationErr.Field)
			}
		})
	}
}

func TestShareParamsValidation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*service.CreateShareParams)
		wantField string
	}{
		{"Empty Recipient", func(p *service.CreateShareParams) { p.RecipientId = "" }, "recipientId"},
		{"Bad Item Type", func(p *service.CreateShareParams) { p.ItemType = "photo" }, "itemType"},
		{"Empty Item Id", func(p *service.CreateShareParams) { p.ItemId = "" }, "itemId"},
		{"Bad Encrypted Key", func(p *service.CreateShareParams) { p.EncryptedKey = "{not base64}" }, "encryptedKey"},
		{"Empty Encrypted Key", func(p *service.CreateShareParams) { p.EncryptedKey = "" }, "encryptedKey"},
		{"Unknown Permission", func(p *service.CreateShareParams) { p.Permissions = []string{"admin"} }, "permissions"},
		{"Negative Expiry", func(p *service.CreateShareParams) { p.ExpiresInHours = -1 }, "expiresInHours"},
		{"Negative Max Accesses", func(p *service.CreateShareParams) { p.MaxAccesses = -5 }, "maxAccesses"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, _, _, _, _ := setupService(t)
			params := validShareParams()
			tc.mutate(&params)

			_, err := svc.CreateShare(context.Background(), models.User{Id: "owner1"}, params)

			var validationErr *service.ValidationError
			assert.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tc.wantField, validationErr.Field)
		})
	}
}

func TestJournalParamsValidation(t *testing.T) {
	tests := []struct {
		name      string
		params    service.JournalEntryParams
		wantField string
	}{
		{"Empty Content", service.JournalEntryParams{}, "content"},
		{"Title Too Long", service.JournalEntryParams{Title: strings.Repeat("a", 201), Content: "x"}, "title"},
		{"Content Too Long", service.JournalEntryParams{Content: strings.Repeat("a", 64*1024+1)}, "content"},
		{"Negative Encrypted Word Count", service.JournalEntryParams{Content: "x", Encrypted: true, WordCount: -1}, "wordCount"},
		{"Bad Entry Day", service.JournalEntryParams{Content: "x", EntryDay: "March 1st"}, "entryDay"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, _, _, _, _ := setupService(t)

			_, err := svc.CreateJournalEntry(context.Background(), models.User{Id: "u1"}, tc.params)

			var validationErr *service.ValidationError
			assert.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tc.wantField, validationErr.Field)
		})
	}
}

func TestGoalParamsValidation(t *testing.T) {
	tests := []struct {
		name      string
		params    service.GoalParams
		wantField string
	}{
		{"Empty Title", service.GoalParams{}, "title"},
		{"Title Too Long", service.GoalParams{Title: strings.Repeat("a", 201)}, "title"},
		{"Negative Target", service.GoalParams{Title: "x", Target: -1}, "target"},
		{"Negative Progress", service.GoalParams{Title: "x", Progress: -1}, "progress"},
		{"Bad Due Day", service.GoalParams{Title: "x", DueDay: "tomorrow"}, "dueDay"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, _, _, _, _ := setupService(t)

			_, err := svc.CreateGoal(context.Background(), models.User{Id: "u1"}, tc.params)

			var validationErr *service.ValidationError
			assert.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tc.wantField, validationErr.Field)
		})
	}
}

func TestHabitNameTooLong(t *testing.T) {
	svc, _, _, _, _, _ := setupService(t)

	_, err := svc.CreateHabit(context.Background(), models.User{Id: "u1"}, service.HabitParams{
		Name: strings.Repeat("a", 101),
	})

	var validationErr *service.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "name", validationErr.Field)
}
