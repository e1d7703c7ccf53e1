package service

import (
	"encoding/base64"
	"regexp"
	"strings"

	"github.com/vireoapp/vireo/models"
)

var dayRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

const (
	maxTitleLength   = 200
	maxContentLength = 64 * 1024
	maxNameLength    = 100
	maxBlobBytes     = 8 * 1024
	minSaltBytes     = 16
)

var allowedPermissions = map[string]struct{}{
	"read":    {},
	"write":   {},
	"reshare": {},
}

var allowedRecoveryMethods = map[string]struct{}{
	"email":      {},
	"passphrase": {},
	"file":       {},
}

func validateKeySetup(setup KeySetup) error {
	salt, err := base64.StdEncoding.DecodeString(setup.Salt)
	if err != nil {
		return validationErr("salt", "invalid base64")
	}
	if len(salt) < minSaltBytes {
		return validationErr("salt", "too short")
	}

	blobs := []struct {
		name  string
		value string
	}{
		{"encryptedPrivateKey", setup.EncryptedPrivateKey},
		{"publicKey", setup.PublicKey},
	}
	for _, b := range blobs {
		data, err := base64.StdEncoding.DecodeString(b.value)
		if err != nil {
			return validationErr(b.name, "invalid base64")
		}
		if len(data) == 0 {
			return validationErr(b.name, "must not be empty")
		}
		if len(data) > maxBlobBytes {
			return validationErr(b.name, "too large")
		}
	}

	if setup.PublicKeyId == "" {
		return validationErr("publicKeyId", "must not be empty")
	}

	for _, method := range setup.RecoveryMethods {
		if _, ok := allowedRecoveryMethods[method]; !ok {
			return validationErr("recoveryMethods", "unknown method: "+method)
		}
	}
	if setup.RecoveryEnabled && len(setup.RecoveryMethods) == 0 {
		return validationErr("recoveryMethods", "required when recovery is enabled")
	}

	return nil
}

func validateShareParams(params CreateShareParams, ownerId string, allowSelfShares bool) error {
	if params.RecipientId == "" {
		return validationErr("recipientId", "must not be empty")
	}
	if params.RecipientId == ownerId && !allowSelfShares {
		return validationErr("recipientId", "cannot share with yourself")
	}

	switch params.ItemType {
	case models.ItemTypeJournal, models.ItemTypeGoal, models.ItemTypeOther:
	default:
		return validationErr("itemType", "must be journal, goal, or other")
	}

	if params.ItemId == "" {
		return validationErr("itemId", "must not be empty")
	}

	if data, err := base64.StdEncoding.DecodeString(params.EncryptedKey); err != nil {
		return validationErr("encryptedKey", "invalid base64")
	} else if len(data) == 0 {
		return validationErr("encryptedKey", "must not be empty")
	}

	for _, p := range params.Permissions {
		if _, ok := allowedPermissions[p]; !ok {
			return validationErr("permissions", "unknown permission: "+p)
		}
	}

	if params.ExpiresInHours < 0 {
		return validationErr("expiresInHours", "must not be negative")
	}
	if params.MaxAccesses < 0 {
		return validationErr("maxAccesses", "must not be negative")
	}

	return nil
}

func validateJournalParams(params JournalEntryParams) error {
	if len(params.Title) > maxTitleLength {
		return validationErr("title", "too long")
	}
	if params.Content == "" {
		return validationErr("content", "must not be empty")
	}
	if len(params.Content) > maxContentLength {
		return validationErr("content", "too long")
	}
	if params.Encrypted && params.WordCount < 0 {
		return validationErr("wordCount", "must not be negative")
	}
	if params.EntryDay != "" {
		if err := validateDay("entryDay", params.EntryDay); err != nil {
			return err
		}
	}
	return nil
}

func validateHabitParams(params HabitParams) error {
	if params.Name == "" {
		return validationErr("name", "must not be empty")
	}
	if len(params.Name) > maxNameLength {
		return validationErr("name", "too long")
	}
	return nil
}

func validateGoalParams(params GoalParams) error {
	if params.Title == "" {
		return validationErr("title", "must not be empty")
	}
	if len(params.Title) > maxTitleLength {
		return validationErr("title", "too long")
	}
	if params.Target < 0 {
		return validationErr("target", "must not be negative")
	}
	if params.Progress < 0 {
		return validationErr("progress", "must not be negative")
	}
	if params.DueDay != "" {
		if err := validateDay("dueDay", params.DueDay); err != nil {
			return err
		}
	}
	return nil
}

func validateDay(field string, day string) error {
	if !dayRegex.MatchString(day) {
		return validationErr(field, "must be YYYY-MM-DD")
	}
	return nil
}

func countWords(content string) int {
	return len(strings.Fields(content))
}
