package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/vireoapp/vireo/models"
	"github.com/vireoapp/vireo/store"
	"github.com/vireoapp/vireo/worker"
)

// KeySetup is the client-generated key material submitted on setup.
// The server treats every blob as opaque.
type KeySetup struct {
	Salt                string
	EncryptedPrivateKey string
	PublicKey           string
	PublicKeyId         string
	RecoveryEnabled     bool
	RecoveryMethods     []string
}

type UserKeysUpdatedMessage struct {
	UserId      string `json:"userId"`
	PublicKeyId string `json:"publicKeyId,omitempty"`
	KeysDeleted bool   `json:"keysDeleted"`
}

// SetupEncryption creates the user's one key record. A second setup
// for the same user fails with ErrConflict; the client must delete
// first to rotate.
func (s *Service) SetupEncryption(ctx context.Context, user models.User, setup KeySetup) (models.KeyRecord, error) {
	if err := validateKeySetup(setup); err != nil {
		return models.KeyRecord{}, err
	}

	record := models.KeyRecord{
		UserId:              user.Id,
		Salt:                setup.Salt,
		EncryptedPrivateKey: setup.EncryptedPrivateKey,
		PublicKey:           setup.PublicKey,
		PublicKeyId:         setup.PublicKeyId,
		RecoveryEnabled:     setup.RecoveryEnabled,
		RecoveryMethods:     setup.RecoveryMethods,
		Created:             time.Now().Unix(),
	}

	if err := s.Store.CreateKeyRecord(ctx, record); err != nil {
		if errors.Is(err, store.ErrItemExists) {
			return models.KeyRecord{}, ErrConflict
		}
		return models.KeyRecord{}, err
	}

	// Async side-effects - return to caller as soon as the store operation is done
	go func() {
		ctx := context.Background()

		if err := s.Store.SetUserEncryptionFlag(ctx, user.Id, true); err != nil {
			log.Printf("Failed to set encryption flag for user %s: %v", user.Id, err)
		}

		info := models.PublicKeyInfo{PublicKey: record.PublicKey, PublicKeyId: record.PublicKeyId}
		if err := s.Cache.SetPublicKey(ctx, user.Id, info); err != nil {
			log.Printf("Failed to cache public key for user %s: %v", user.Id, err)
		}

		msg := UserKeysUpdatedMessage{UserId: user.Id, PublicKeyId: record.PublicKeyId}
		if msgBytes, err := json.Marshal(msg); err == nil {
			s.Cache.Publish(ctx, "user-keys-updated", msgBytes)
		}
	}()

	return record, nil
}

// GetEncryptionKeys returns the full record, salt and private blob
// included. Owner only: handlers never route another user's id here.
func (s *Service) GetEncryptionKeys(ctx context.Context, user models.User) (models.KeyRecord, error) {
	record, err := s.Store.GetKeyRecord(ctx, user.Id)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return models.KeyRecord{}, ErrNotFound
		}
		return models.KeyRecord{}, err
	}

	return record, nil
}

// GetPublicKey returns the projection safe for non-owners. Backed by
// the Redis lookaside cache; a cache failure falls through to the
// store.
func (s *Service) GetPublicKey(ctx context.Context, userId string) (models.PublicKeyInfo, error) {
	info, found, err := s.Cache.GetPublicKey(ctx, userId)
	if err != nil {
		log.Printf("Public key cache read failed for user %s: %v", userId, err)
	}
	if found {
		return info, nil
	}

	record, err := s.Store.GetKeyRecord(ctx, userId)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return models.PublicKeyInfo{}, ErrNotFound
		}
		return models.PublicKeyInfo{}, err
	}

	info = models.PublicKeyInfo{PublicKey: record.PublicKey, PublicKeyId: record.PublicKeyId}

	if err := s.Cache.SetPublicKey(ctx, userId, info); err != nil {
		log.Printf("Failed to cache public key for user %s: %v", userId, err)
	}

	return info, nil
}

// DeleteEncryption removes the key record and cascades share removal
// through the queue. Idempotent: deleting with no record succeeds and
// reports existed=false.
func (s *Service) DeleteEncryption(ctx context.Context, user models.User) (bool, error) {
	existed := true
	if _, err := s.Store.GetKeyRecord(ctx, user.Id); err != nil {
		if !errors.Is(err, store.ErrItemNotFound) {
			return false, err
		}
		existed = false
	}

	if err := s.Store.DeleteKeyRecord(ctx, user.Id); err != nil {
		return false, err
	}

	// Async side-effects - return to caller as soon as the store operation is done
	go func() {
		ctx := context.Background()

		if err := s.Store.SetUserEncryptionFlag(ctx, user.Id, false); err != nil {
			log.Printf("Failed to clear encryption flag for user %s: %v", user.Id, err)
		}

		if err := s.Cache.InvalidatePublicKey(ctx, user.Id); err != nil {
			log.Printf("Failed to invalidate public key cache for user %s: %v", user.Id, err)
		}

		if existed {
			msg := UserKeysUpdatedMessage{UserId: user.Id, KeysDeleted: true}
			if msgBytes, err := json.Marshal(msg); err == nil {
				s.Cache.Publish(ctx, "user-keys-updated", msgBytes)
			}

			// Grants re-encrypted for keys that no longer exist are
			// useless to both sides; remove them all.
			cascade := worker.DeleteUserSharesMessage{UserId: user.Id}
			if msgBytes, err := json.Marshal(cascade); err == nil {
				s.MQ.Send(ctx, string(msgBytes))
			}
		}
	}()

	return existed, nil
}
