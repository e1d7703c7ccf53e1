package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	cachemocks "github.com/vireoapp/vireo/cache/mocks"
	"github.com/vireoapp/vireo/models"
	mqmocks "github.com/vireoapp/vireo/mq/mocks"
	"github.com/vireoapp/vireo/service"
	"github.com/vireoapp/vireo/store"
	storemocks "github.com/vireoapp/vireo/store/mocks"
	"github.com/vireoapp/vireo/worker"
)

// Helper to setup the service with mocks
func setupService(t *testing.T) (*service.Service, *storemocks.MockStore, *cachemocks.MockCache, *mqmocks.MockMQ, *worker.StatsBatcher, *worker.AccessBatcher) {
	mockStore := new(storemocks.MockStore)
	mockCache := new(cachemocks.MockCache)
	mockMQ := new(mqmocks.MockMQ)

	// Real batchers are used; tests verify items are pushed to their channels
	statsBatcher := worker.NewStatsBatcher(mockStore, 1000)
	accessBatcher := worker.NewAccessBatcher(mockStore, 1000)

	svc, err := service.NewService(
		mockStore,
		mockCache,
		mockMQ,
		statsBatcher,
		accessBatcher,
		nil,
		[]byte("secret"),
	)
	assert.NoError(t, err)

	return svc, mockStore, mockCache, mockMQ, statsBatcher, accessBatcher
}

// Helper that creates a channel and wraps a mock call to signal when it's called
func wrapMockWithSignal(call *mock.Call) chan struct{} {
	done := make(chan struct{})
	call.Run(func(args mock.Arguments) {
		close(done)
	})
	return done
}

// "key" in base64
const testEncryptedKey = "a2V5"

func validShareParams() service.CreateShareParams {
	return service.CreateShareParams{
		RecipientId:  "recipient1",
		ItemType:     models.ItemTypeJournal,
		ItemId:       "entry1",
		EncryptedKey: testEncryptedKey,
	}
}

func TestCreateShare_Success(t *testing.T) {
	svc, mockStore, mockCache, _, _, _ := setupService(t)
	ctx := context.Background()

	owner := models.User{Id: "owner1"}
	params := validShareParams()

	// Recipient has keys (cache hit)
	mockCache.On("GetPublicKey", ctx, params.RecipientId).
		Return(models.PublicKeyInfo{PublicKey: "pk", PublicKeyId: "pk1"}, true, nil)

	var created models.ShareGrant
	mockStore.On("CreateShare", ctx, mock.MatchedBy(func(g models.ShareGrant) bool {
		created = g
		return g.OwnerId == owner.Id && g.RecipientId == params.RecipientId && g.Active
	})).Return(nil)

	// Async side-effects
	mockStore.On("GetJournalEntry", mock.Anything, owner.Id, params.ItemId).
		Return(models.JournalEntry{Id: params.ItemId, UserId: owner.Id}, nil)
	sharedWithDone := wrapMockWithSignal(mockStore.On("SetItemSharedWith", mock.Anything, owner.Id, models.ItemTypeJournal, params.ItemId, []string{params.RecipientId}).Return(nil))
	publishDone := wrapMockWithSignal(mockCache.On("Publish", mock.Anything, "share-events", mock.Anything).Return(nil))

	grant, err := svc.CreateShare(ctx, owner, params)
	assert.NoError(t, err)
	assert.NotEmpty(t, grant.Id)
	assert.Equal(t, created.Id, grant.Id)
	assert.Equal(t, []string{"read"}, grant.Permissions) // defaulted
	assert.True(t, grant.Active)
	assert.Zero(t, grant.ExpiresAt)

	select {
	case <-sharedWithDone:
	case <-time.After(1 * time.Second):
		assert.Fail(t, "timed out waiting for SetItemSharedWith")
	}
	select {
	case <-publishDone:
	case <-time.After(1 * time.Second):
		assert.Fail(t, "timed out waiting for Publish")
	}
}

func TestCreateShare_ExpiresInHours(t *testing.T) {
	svc, mockStore, mockCache, _, _, _ := setupService(t)
	ctx := context.Background()

	owner := models.User{Id: "owner1"}
	params := validShareParams()
	params.ItemType = models.ItemTypeOther // no shared-with maintenance
	params.ExpiresInHours = 24

	mockCache.On("GetPublicKey", ctx, params.RecipientId).
		Return(models.PublicKeyInfo{PublicKey: "pk", PublicKeyId: "pk1"}, true, nil)
	mockStore.On("CreateShare", ctx, mock.Anything).Return(nil)
	mockCache.On("Publish", mock.Anything, "share-events", mock.Anything).Return(nil)

	before := time.Now().Add(24 * time.Hour).Unix()
	grant, err := svc.CreateShare(ctx, owner, params)
	after := time.Now().Add(24 * time.Hour).Unix()

	assert.NoError(t, err)
	assert.GreaterOrEqual(t, grant.ExpiresAt, before)
	assert.LessOrEqual(t, grant.ExpiresAt, after)
	assert.False(t, grant.Expired(time.Now().Unix()))
	assert.True(t, grant.Expired(grant.ExpiresAt))
}

func TestCreateShare_RecipientNotEncrypted(t *testing.T) {
	svc, mockStore, mockCache, _, _, _ := setupService(t)
	ctx := context.Background()

	owner := models.User{Id: "owner1"}
	params := validShareParams()

	// Cache miss, store has no key record
	mockCache.On("GetPublicKey", ctx, params.RecipientId).
		Return(models.PublicKeyInfo{}, false, nil)
	mockStore.On("GetKeyRecord", ctx, params.RecipientId).
		Return(models.KeyRecord{}, store.ErrItemNotFound)

	_, err := svc.CreateShare(ctx, owner, params)
	assert.ErrorIs(t, err, service.ErrRecipientNotEncrypted)

	// Nothing was persisted
	mockStore.AssertNotCalled(t, "CreateShare", mock.Anything, mock.Anything)
}

func TestCreateShare_SelfShareRejected(t *testing.T) {
	svc, _, _, _, _, _ := setupService(t)

	owner := models.User{Id: "owner1"}
	params := validShareParams()
	params.RecipientId = owner.Id

	_, err := svc.CreateShare(context.Background(), owner, params)

	var validationErr *service.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "recipientId", validationErr.Field)
}

func TestCreateShare_SelfShareAllowedWhenEnabled(t *testing.T) {
	svc, mockStore, mockCache, _, _, _ := setupService(t)
	svc.AllowSelfShares = true
	ctx := context.Background()

	owner := models.User{Id: "owner1"}
	params := validShareParams()
	params.RecipientId = owner.Id
	params.ItemType = models.ItemTypeOther

	mockCache.On("GetPublicKey", ctx, owner.Id).
		Return(models.PublicKeyInfo{PublicKey: "pk", PublicKeyId: "pk1"}, true, nil)
	mockStore.On("CreateShare", ctx, mock.Anything).Return(nil)
	mockCache.On("Publish", mock.Anything, "share-events", mock.Anything).Return(nil)

	grant, err := svc.CreateShare(ctx, owner, params)
	assert.NoError(t, err)
	assert.Equal(t, owner.Id, grant.RecipientId)
}

func TestListShares_BothDirectionsDeduped(t *testing.T) {
	svc, mockStore, _, _, _, _ := setupService(t)
	ctx := context.Background()

	// Self-share appears in both GSI queries under the same id
	selfShare := models.ShareGrant{Id: "s1", OwnerId: "u1", RecipientId: "u1", ItemType: models.ItemTypeJournal, Active: true, Created: 100}
	received := models.ShareGrant{Id: "s2", OwnerId: "u2", RecipientId: "u1", ItemType: models.ItemTypeJournal, Active: true, Created: 200}

	mockStore.On("ListSharesByOwner", ctx, "u1").Return([]models.ShareGrant{selfShare}, nil)
	mockStore.On("ListSharesByRecipient", ctx, "u1").Return([]models.ShareGrant{selfShare, received}, nil)

	grants, err := svc.ListShares(ctx, "u1", service.DirectionBoth, "", false)
	assert.NoError(t, err)
	assert.Len(t, grants, 2)

	// Newest first
	assert.Equal(t, "s2", grants[0].Id)
	assert.Equal(t, "s1", grants[1].Id)
}

func TestListShares_ActiveOnlyFiltering(t *testing.T) {
	svc, mockStore, _, _, _, _ := setupService(t)
	ctx := context.Background()

	now := time.Now().Unix()
	active := models.ShareGrant{Id: "active", OwnerId: "u1", Active: true, Created: 4}
	revoked := models.ShareGrant{Id: "revoked", OwnerId: "u1", Active: false, Created: 3}
	expired := models.ShareGrant{Id: "expired", OwnerId: "u1", Active: true, ExpiresAt: now - 60, Created: 2}
	exhausted := models.ShareGrant{Id: "exhausted", OwnerId: "u1", Active: true, MaxAccesses: 3, AccessCount: 3, Created: 1}

	mockStore.On("ListSharesByOwner", ctx, "u1").
		Return([]models.ShareGrant{active, revoked, expired, exhausted}, nil)

	grants, err := svc.ListShares(ctx, "u1", service.DirectionSent, "", true)
	assert.NoError(t, err)
	assert.Len(t, grants, 1)
	assert.Equal(t, "active", grants[0].Id)

	// Without activeOnly everything comes back
	all, err := svc.ListShares(ctx, "u1", service.DirectionSent, "", false)
	assert.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestListShares_ItemTypeFilter(t *testing.T) {
	svc, mockStore, _, _, _, _ := setupService(t)
	ctx := context.Background()

	journal := models.ShareGrant{Id: "j", OwnerId: "u1", ItemType: models.ItemTypeJournal, Active: true, Created: 2}
	goal := models.ShareGrant{Id: "g", OwnerId: "u1", ItemType: models.ItemTypeGoal, Active: true, Created: 1}

	mockStore.On("ListSharesByOwner", ctx, "u1").Return([]models.ShareGrant{journal, goal}, nil)

	grants, err := svc.ListShares(ctx, "u1", service.DirectionSent, models.ItemTypeGoal, false)
	assert.NoError(t, err)
	assert.Len(t, grants, 1)
	assert.Equal(t, "g", grants[0].Id)
}

func TestGetShare_OwnerDoesNotCountAccess(t *testing.T) {
	svc, mockStore, _, _, _, accessBatcher := setupService(t)
	ctx := context.Background()

	grant := models.ShareGrant{Id: "s1", OwnerId: "owner1", RecipientId: "rec1", Active: true}
	mockStore.On("GetShare", ctx, "s1").Return(grant, nil)

	got, err := svc.GetShare(ctx, "s1", "owner1")
	assert.NoError(t, err)
	assert.Equal(t, grant.Id, got.Id)

	select {
	case update := <-accessBatcher.UpdateCh:
		assert.Fail(t, "unexpected access update for owner read", "%+v", update)
	default:
	}
}

func TestGetShare_RecipientCountsAccess(t *testing.T) {
	svc, mockStore, _, _, _, accessBatcher := setupService(t)
	ctx := context.Background()

	grant := models.ShareGrant{Id: "s1", OwnerId: "owner1", RecipientId: "rec1", Active: true}
	mockStore.On("GetShare", ctx, "s1").Return(grant, nil)

	_, err := svc.GetShare(ctx, "s1", "rec1")
	assert.NoError(t, err)

	select {
	case update := <-accessBatcher.UpdateCh:
		assert.Equal(t, "s1", update.ShareId)
		assert.Equal(t, 1, update.Delta)
	case <-time.After(1 * time.Second):
		assert.Fail(t, "timed out waiting for access update")
	}
}

func TestListShares_UnknownDirectionRejected(t *testing.T) {
	svc, mockStore, _, _, _, _ := setupService(t)

	_, err := svc.ListShares(context.Background(), "u1", "bogus", "", true)

	var validationErr *service.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "direction", validationErr.Field)
	mockStore.AssertNotCalled(t, "ListSharesByOwner", mock.Anything, mock.Anything)
	mockStore.AssertNotCalled(t, "ListSharesByRecipient", mock.Anything, mock.Anything)
}

func TestGetShare_InactiveGrantDoesNotCountAccess(t *testing.T) {
	svc, mockStore, _, _, _, accessBatcher := setupService(t)
	ctx := context.Background()

	revoked := models.ShareGrant{Id: "s1", OwnerId: "owner1", RecipientId: "rec1", Active: false}
	expired := models.ShareGrant{Id: "s2", OwnerId: "owner1", RecipientId: "rec1", Active: true, ExpiresAt: time.Now().Unix() - 3600}
	exhausted := models.ShareGrant{Id: "s3", OwnerId: "owner1", RecipientId: "rec1", Active: true, MaxAccesses: 3, AccessCount: 3}
	mockStore.On("GetShare", ctx, "s1").Return(revoked, nil)
	mockStore.On("GetShare", ctx, "s2").Return(expired, nil)
	mockStore.On("GetShare", ctx, "s3").Return(exhausted, nil)

	// Still retrievable by the recipient, but no further accesses accrue
	for _, id := range []string{"s1", "s2", "s3"} {
		got, err := svc.GetShare(ctx, id, "rec1")
		assert.NoError(t, err)
		assert.Equal(t, id, got.Id)
	}

	select {
	case update := <-accessBatcher.UpdateCh:
		assert.Fail(t, "unexpected access update for inactive grant", "%+v", update)
	default:
	}
}

func TestGetShare_StrangerGetsNotFound(t *testing.T) {
	svc, mockStore, _, _, _, _ := setupService(t)
	ctx := context.Background()

	grant := models.ShareGrant{Id: "s1", OwnerId: "owner1", RecipientId: "rec1", Active: true}
	mockStore.On("GetShare", ctx, "s1").Return(grant, nil)

	_, err := svc.GetShare(ctx, "s1", "stranger")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestGetShare_ExpiredStillRetrievable(t *testing.T) {
	svc, mockStore, _, _, _, _ := setupService(t)
	ctx := context.Background()

	grant := models.ShareGrant{Id: "s1", OwnerId: "owner1", RecipientId: "rec1", Active: true, ExpiresAt: time.Now().Unix() - 3600}
	mockStore.On("GetShare", ctx, "s1").Return(grant, nil)

	got, err := svc.GetShare(ctx, "s1", "owner1")
	assert.NoError(t, err)
	assert.True(t, got.Expired(time.Now().Unix()))
}

func TestRevokeShare_Success(t *testing.T) {
	svc, mockStore, mockCache, _, _, _ := setupService(t)
	ctx := context.Background()

	revoked := models.ShareGrant{Id: "s1", OwnerId: "owner1", RecipientId: "rec1", ItemType: models.ItemTypeGoal, ItemId: "goal1", Active: false}

	mockStore.On("RevokeShare", ctx, "s1", "owner1", mock.AnythingOfType("int64")).Return(nil)

	// Async cleanup re-reads the grant
	mockStore.On("GetShare", mock.Anything, "s1").Return(revoked, nil)
	mockStore.On("GetGoal", mock.Anything, "owner1", "goal1").
		Return(models.Goal{Id: "goal1", UserId: "owner1", SharedWith: []string{"rec1"}}, nil)
	sharedWithDone := wrapMockWithSignal(mockStore.On("SetItemSharedWith", mock.Anything, "owner1", models.ItemTypeGoal, "goal1", []string{}).Return(nil))
	publishDone := wrapMockWithSignal(mockCache.On("Publish", mock.Anything, "share-events", mock.Anything).Return(nil))

	err := svc.RevokeShare(ctx, "s1", "owner1")
	assert.NoError(t, err)

	select {
	case <-sharedWithDone:
	case <-time.After(1 * time.Second):
		assert.Fail(t, "timed out waiting for SetItemSharedWith")
	}
	select {
	case <-publishDone:
	case <-time.After(1 * time.Second):
		assert.Fail(t, "timed out waiting for Publish")
	}
}

func TestRevokeShare_NonOwnerIndistinguishable(t *testing.T) {
	svc, mockStore, mockCache, _, _, _ := setupService(t)
	ctx := context.Background()

	// Non-owner, already-revoked, and missing all surface as a failed
	// condition from the store and map to the same error.
	mockStore.On("RevokeShare", ctx, "s1", "stranger", mock.AnythingOfType("int64")).
		Return(store.ErrConditionFailed)
	mockStore.On("RevokeShare", ctx, "missing", "owner1", mock.AnythingOfType("int64")).
		Return(store.ErrItemNotFound)

	err := svc.RevokeShare(ctx, "s1", "stranger")
	assert.ErrorIs(t, err, service.ErrNotFound)

	err = svc.RevokeShare(ctx, "missing", "owner1")
	assert.ErrorIs(t, err, service.ErrNotFound)

	// No event published on failure
	mockCache.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}
