package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sort"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/vireoapp/vireo/models"
	"github.com/vireoapp/vireo/store"
	"github.com/vireoapp/vireo/worker"
)

type CreateShareParams struct {
	RecipientId    string
	ItemType       models.ItemType
	ItemId         string
	EncryptedKey   string
	ShareType      string
	Permissions    []string
	ExpiresInHours int
	MaxAccesses    int
}

type ListDirection string

const (
	DirectionSent     ListDirection = "sent"
	DirectionReceived ListDirection = "received"
	DirectionBoth     ListDirection = "both"
)

type ShareEventMessage struct {
	Type        string `json:"type"` // "created" | "revoked"
	ShareId     string `json:"shareId"`
	OwnerId     string `json:"ownerId"`
	RecipientId string `json:"recipientId"`
	ItemType    string `json:"itemType"`
}

// CreateShare grants the recipient access to one encrypted item. The
// recipient must already have a key record: the encrypted key blob is
// the content key re-encrypted for their public key, so a grant to an
// unencrypted recipient could never be opened.
func (s *Service) CreateShare(ctx context.Context, owner models.User, params CreateShareParams) (models.ShareGrant, error) {
	if err := validateShareParams(params, owner.Id, s.AllowSelfShares); err != nil {
		return models.ShareGrant{}, err
	}

	if _, err := s.GetPublicKey(ctx, params.RecipientId); err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.ShareGrant{}, ErrRecipientNotEncrypted
		}
		return models.ShareGrant{}, err
	}

	shareId, err := uuid.NewV4()
	if err != nil {
		return models.ShareGrant{}, err
	}

	now := time.Now()

	permissions := params.Permissions
	if len(permissions) == 0 {
		permissions = []string{"read"}
	}

	var expiresAt int64
	if params.ExpiresInHours > 0 {
		expiresAt = now.Add(time.Duration(params.ExpiresInHours) * time.Hour).Unix()
	}

	grant := models.ShareGrant{
		Id:           shareId.String(),
		OwnerId:      owner.Id,
		RecipientId:  params.RecipientId,
		ItemType:     params.ItemType,
		ItemId:       params.ItemId,
		EncryptedKey: params.EncryptedKey,
		ShareType:    params.ShareType,
		Permissions:  permissions,
		ExpiresAt:    expiresAt,
		MaxAccesses:  params.MaxAccesses,
		Active:       true,
		Created:      now.Unix(),
	}

	if err := s.Store.CreateShare(ctx, grant); err != nil {
		return models.ShareGrant{}, err
	}

	// Async side-effects - return to caller as soon as the store operation is done
	go func() {
		ctx := context.Background()

		s.updateSharedWith(ctx, grant, true)
		s.publishShareEvent(ctx, "created", grant)
	}()

	return grant, nil
}

// ListShares returns the caller's grants. With activeOnly, revoked,
// expired, and access-exhausted grants are filtered out; expiration is
// a read-time view, the stored row keeps Active=true.
func (s *Service) ListShares(ctx context.Context, userId string, direction ListDirection, itemType models.ItemType, activeOnly bool) ([]models.ShareGrant, error) {
	switch direction {
	case DirectionSent, DirectionReceived, DirectionBoth:
	default:
		return nil, validationErr("direction", "must be one of: sent, received, both")
	}

	var grants []models.ShareGrant

	if direction == DirectionSent || direction == DirectionBoth {
		sent, err := s.Store.ListSharesByOwner(ctx, userId)
		if err != nil {
			return nil, err
		}
		grants = append(grants, sent...)
	}

	if direction == DirectionReceived || direction == DirectionBoth {
		received, err := s.Store.ListSharesByRecipient(ctx, userId)
		if err != nil {
			return nil, err
		}
		grants = append(grants, received...)
	}

	now := time.Now().Unix()
	seen := make(map[string]struct{}, len(grants))
	filtered := make([]models.ShareGrant, 0, len(grants))
	for _, g := range grants {
		if _, dup := seen[g.Id]; dup {
			continue
		}
		seen[g.Id] = struct{}{}

		if itemType != "" && g.ItemType != itemType {
			continue
		}
		if activeOnly && (!g.Active || g.Expired(now) || g.AccessExhausted()) {
			continue
		}
		filtered = append(filtered, g)
	}

	// Newest first; id breaks creation-timestamp ties so the order is
	// total and stable across calls.
	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].Created != filtered[j].Created {
			return filtered[i].Created > filtered[j].Created
		}
		return filtered[i].Id > filtered[j].Id
	})

	return filtered, nil
}

// GetShare returns a grant by id to its owner or recipient. Expired
// grants stay retrievable here. Anyone else gets ErrNotFound,
// indistinguishable from a missing grant.
func (s *Service) GetShare(ctx context.Context, shareId string, callerId string) (models.ShareGrant, error) {
	grant, err := s.Store.GetShare(ctx, shareId)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return models.ShareGrant{}, ErrNotFound
		}
		return models.ShareGrant{}, err
	}

	if grant.OwnerId != callerId && grant.RecipientId != callerId {
		return models.ShareGrant{}, ErrNotFound
	}

	// Recipient reads count against MaxAccesses. Revoked, expired, and
	// already-exhausted grants stay readable but accrue no further
	// accesses.
	if grant.RecipientId == callerId && grant.Active && !grant.Expired(time.Now().Unix()) && !grant.AccessExhausted() {
		s.AccessBatcher.UpdateCh <- worker.AccessUpdate{ShareId: grant.Id, Delta: 1}
	}

	return grant, nil
}

// RevokeShare flips a grant inactive, permanently. A missing grant, a
// non-owner caller, and an already-revoked grant all fail with the
// same ErrNotFound so revocation attempts cannot probe for existence.
func (s *Service) RevokeShare(ctx context.Context, shareId string, actorId string) error {
	if err := s.Store.RevokeShare(ctx, shareId, actorId, time.Now().Unix()); err != nil {
		if errors.Is(err, store.ErrConditionFailed) || errors.Is(err, store.ErrItemNotFound) {
			return ErrNotFound
		}
		return err
	}

	// Async side-effects - return to caller as soon as the store operation is done
	go func() {
		ctx := context.Background()

		grant, err := s.Store.GetShare(ctx, shareId)
		if err != nil {
			log.Printf("Failed to load revoked share %s for cleanup: %v", shareId, err)
			return
		}

		s.updateSharedWith(ctx, grant, false)
		s.publishShareEvent(ctx, "revoked", grant)
	}()

	return nil
}

// updateSharedWith maintains the denormalized SharedWith list on the
// shared item. Best-effort: failures are logged, never surfaced to the
// primary operation's caller.
func (s *Service) updateSharedWith(ctx context.Context, grant models.ShareGrant, add bool) {
	if grant.ItemType == models.ItemTypeOther {
		return
	}

	current, err := s.loadSharedWith(ctx, grant)
	if err != nil {
		log.Printf("Failed to read shared-with list for %s %s: %v", grant.ItemType, grant.ItemId, err)
		return
	}

	updated := make([]string, 0, len(current)+1)
	for _, id := range current {
		if id != grant.RecipientId {
			updated = append(updated, id)
		}
	}
	if add {
		updated = append(updated, grant.RecipientId)
	}

	if err := s.Store.SetItemSharedWith(ctx, grant.OwnerId, grant.ItemType, grant.ItemId, updated); err != nil {
		log.Printf("Failed to update shared-with list for %s %s: %v", grant.ItemType, grant.ItemId, err)
	}
}

func (s *Service) loadSharedWith(ctx context.Context, grant models.ShareGrant) ([]string, error) {
	switch grant.ItemType {
	case models.ItemTypeJournal:
		entry, err := s.Store.GetJournalEntry(ctx, grant.OwnerId, grant.ItemId)
		if err != nil {
			return nil, err
		}
		return entry.SharedWith, nil
	case models.ItemTypeGoal:
		goal, err := s.Store.GetGoal(ctx, grant.OwnerId, grant.ItemId)
		if err != nil {
			return nil, err
		}
		return goal.SharedWith, nil
	}
	return nil, nil
}

func (s *Service) publishShareEvent(ctx context.Context, eventType string, grant models.ShareGrant) {
	msg := ShareEventMessage{
		Type:        eventType,
		ShareId:     grant.Id,
		OwnerId:     grant.OwnerId,
		RecipientId: grant.RecipientId,
		ItemType:    string(grant.ItemType),
	}
	if msgBytes, err := json.Marshal(msg); err == nil {
		if err := s.Cache.Publish(ctx, "share-events", msgBytes); err != nil {
			log.Printf("Failed to publish share event for %s: %v", grant.Id, err)
		}
	}
}
