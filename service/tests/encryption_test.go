package service_test

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/vireoapp/vireo/models"
	"github.com/vireoapp/vireo/service"
	"github.com/vireoapp/vireo/store"
)

func validKeySetup() service.KeySetup {
	return service.KeySetup{
		Salt:                base64.StdEncoding.EncodeToString([]byte("0123456789abcdef")),
		EncryptedPrivateKey: base64.StdEncoding.EncodeToString([]byte("private-key-blob")),
		PublicKey:           base64.StdEncoding.EncodeToString([]byte("public-key-blob")),
		PublicKeyId:         "pk1",
	}
}

func TestSetupEncryption_Success(t *testing.T) {
	svc, mockStore, mockCache, _, _, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1"}
	setup := validKeySetup()

	mockStore.On("CreateKeyRecord", ctx, mock.MatchedBy(func(r models.KeyRecord) bool {
		return r.UserId == user.Id && r.PublicKeyId == setup.PublicKeyId && r.Created > 0
	})).Return(nil)

	// Async side-effects
	flagDone := wrapMockWithSignal(mockStore.On("SetUserEncryptionFlag", mock.Anything, user.Id, true).Return(nil))
	mockCache.On("SetPublicKey", mock.Anything, user.Id, models.PublicKeyInfo{PublicKey: setup.PublicKey, PublicKeyId: setup.PublicKeyId}).Return(nil)
	publishDone := wrapMockWithSignal(mockCache.On("Publish", mock.Anything, "user-keys-updated", mock.MatchedBy(func(msg []byte) bool {
		return strings.Contains(string(msg), `"userId":"user1"`) && strings.Contains(string(msg), `"publicKeyId":"pk1"`)
	})).Return(nil))

	record, err := svc.SetupEncryption(ctx, user, setup)
	assert.NoError(t, err)
	assert.Equal(t, user.Id, record.UserId)
	assert.Equal(t, setup.PublicKey, record.PublicKey)

	select {
	case <-flagDone:
	case <-time.After(1 * time.Second):
		assert.Fail(t, "timed out waiting for SetUserEncryptionFlag")
	}
	select {
	case <-publishDone:
	case <-time.After(1 * time.Second):
		assert.Fail(t, "timed out waiting for Publish")
	}
}

func TestSetupEncryption_AlreadySetUp(t *testing.T) {
	svc, mockStore, _, _, _, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1"}

	mockStore.On("CreateKeyRecord", ctx, mock.Anything).Return(store.ErrItemExists)

	_, err := svc.SetupEncryption(ctx, user, validKeySetup())
	assert.ErrorIs(t, err, service.ErrConflict)
}

func TestSetupEncryption_InvalidSalt(t *testing.T) {
	svc, mockStore, _, _, _, _ := setupService(t)

	user := models.User{Id: "user1"}

	setup := validKeySetup()
	setup.Salt = "!!!not-base64!!!"

	_, err := svc.SetupEncryption(context.Background(), user, setup)

	var validationErr *service.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "salt", validationErr.Field)

	mockStore.AssertNotCalled(t, "CreateKeyRecord", mock.Anything, mock.Anything)
}

func TestSetupEncryption_SaltTooShort(t *testing.T) {
	svc, _, _, _, _, _ := setupService(t)

	setup := validKeySetup()
	setup.Salt = base64.StdEncoding.EncodeToString([]byte("short"))

	_, err := svc.SetupEncryption(context.Background(), models.User{Id: "u1"}, setup)

	var validationErr *service.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "salt", validationErr.Field)
}

func TestGetEncryptionKeys_Success(t *testing.T) {
	svc, mockStore, _, _, _, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1"}
	record := models.KeyRecord{UserId: user.Id, PublicKeyId: "pk1", EncryptedPrivateKey: "blob"}

	mockStore.On("GetKeyRecord", ctx, user.Id).Return(record, nil)

	got, err := svc.GetEncryptionKeys(ctx, user)
	assert.NoError(t, err)
	assert.Equal(t, record, got)
}

func TestGetEncryptionKeys_NotFound(t *testing.T) {
	svc, mockStore, _, _, _, _ := setupService(t)
	ctx := context.Background()

	mockStore.On("GetKeyRecord", ctx, "user1").Return(models.KeyRecord{}, store.ErrItemNotFound)

	_, err := svc.GetEncryptionKeys(ctx, models.User{Id: "user1"})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestGetPublicKey_CacheHit(t *testing.T) {
	svc, mockStore, mockCache, _, _, _ := setupService(t)
	ctx := context.Background()

	info := models.PublicKeyInfo{PublicKey: "pk", PublicKeyId: "pk1"}
	mockCache.On("GetPublicKey", ctx, "user1").Return(info, true, nil)

	got, err := svc.GetPublicKey(ctx, "user1")
	assert.NoError(t, err)
	assert.Equal(t, info, got)

	mockStore.AssertNotCalled(t, "GetKeyRecord", mock.Anything, mock.Anything)
}

func TestGetPublicKey_CacheMissFillsCache(t *testing.T) {
	svc, mockStore, mockCache, _, _, _ := setupService(t)
	ctx := context.Background()

	record := models.KeyRecord{UserId: "user1", PublicKey: "pk", PublicKeyId: "pk1", EncryptedPrivateKey: "secret"}
	info := models.PublicKeyInfo{PublicKey: "pk", PublicKeyId: "pk1"}

	mockCache.On("GetPublicKey", ctx, "user1").Return(models.PublicKeyInfo{}, false, nil)
	mockStore.On("GetKeyRecord", ctx, "user1").Return(record, nil)
	mockCache.On("SetPublicKey", ctx, "user1", info).Return(nil)

	got, err := svc.GetPublicKey(ctx, "user1")
	assert.NoError(t, err)
	assert.Equal(t, info, got)

	mockCache.AssertExpectations(t)
}

func TestGetPublicKey_CacheErrorFallsThrough(t *testing.T) {
	svc, mockStore, mockCache, _, _, _ := setupService(t)
	ctx := context.Background()

	record := models.KeyRecord{UserId: "user1", PublicKey: "pk", PublicKeyId: "pk1"}

	mockCache.On("GetPublicKey", ctx, "user1").Return(models.PublicKeyInfo{}, false, assert.AnError)
	mockStore.On("GetKeyRecord", ctx, "user1").Return(record, nil)
	mockCache.On("SetPublicKey", ctx, "user1", mock.Anything).Return(nil)

	got, err := svc.GetPublicKey(ctx, "user1")
	assert.NoError(t, err)
	assert.Equal(t, "pk", got.PublicKey)
}

func TestGetPublicKey_NoKeys(t *testing.T) {
	svc, mockStore, mockCache, _, _, _ := setupService(t)
	ctx := context.Background()

	mockCache.On("GetPublicKey", ctx, "user1").Return(models.PublicKeyInfo{}, false, nil)
	mockStore.On("GetKeyRecord", ctx, "user1").Return(models.KeyRecord{}, store.ErrItemNotFound)

	_, err := svc.GetPublicKey(ctx, "user1")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDeleteEncryption_Existing(t *testing.T) {
	svc, mockStore, mockCache, mockMQ, _, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1", EncryptionSetup: true}
	record := models.KeyRecord{UserId: user.Id, PublicKeyId: "pk1"}

	mockStore.On("GetKeyRecord", ctx, user.Id).Return(record, nil)
	mockStore.On("DeleteKeyRecord", ctx, user.Id).Return(nil)

	// Async side-effects
	mockStore.On("SetUserEncryptionFlag", mock.Anything, user.Id, false).Return(nil)
	mockCache.On("InvalidatePublicKey", mock.Anything, user.Id).Return(nil)
	publishDone := wrapMockWithSignal(mockCache.On("Publish", mock.Anything, "user-keys-updated", mock.MatchedBy(func(msg []byte) bool {
		return strings.Contains(string(msg), `"keysDeleted":true`)
	})).Return(nil))
	mqSendDone := wrapMockWithSignal(mockMQ.On("Send", mock.Anything, mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, `"userId":"user1"`)
	})).Return(nil))

	existed, err := svc.DeleteEncryption(ctx, user)
	assert.NoError(t, err)
	assert.True(t, existed)

	select {
	case <-publishDone:
	case <-time.After(1 * time.Second):
		assert.Fail(t, "timed out waiting for Publish")
	}
	select {
	case <-mqSendDone:
	case <-time.After(1 * time.Second):
		assert.Fail(t, "timed out waiting for MQ Send")
	}
}

func TestDeleteEncryption_MissingIsIdempotent(t *testing.T) {
	svc, mockStore, mockCache, mockMQ, _, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1"}

	mockStore.On("GetKeyRecord", ctx, user.Id).Return(models.KeyRecord{}, store.ErrItemNotFound)
	mockStore.On("DeleteKeyRecord", ctx, user.Id).Return(nil)

	mockStore.On("SetUserEncryptionFlag", mock.Anything, user.Id, false).Return(nil)
	invalidateDone := wrapMockWithSignal(mockCache.On("InvalidatePublicKey", mock.Anything, user.Id).Return(nil))

	existed, err := svc.DeleteEncryption(ctx, user)
	assert.NoError(t, err)
	assert.False(t, existed)

	select {
	case <-invalidateDone:
	case <-time.After(1 * time.Second):
		assert.Fail(t, "timed out waiting for InvalidatePublicKey")
	}

	// No keys existed: no cascade, no keys-deleted event
	mockMQ.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	mockCache.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteThenSetupAgain(t *testing.T) {
	svc, mockStore, mockCache, mockMQ, _, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1", EncryptionSetup: true}
	record := models.KeyRecord{UserId: user.Id, PublicKeyId: "pk1"}

	mockStore.On("GetKeyRecord", ctx, user.Id).Return(record, nil)
	mockStore.On("DeleteKeyRecord", ctx, user.Id).Return(nil)
	mockStore.On("SetUserEncryptionFlag", mock.Anything, user.Id, mock.AnythingOfType("bool")).Return(nil)
	mockCache.On("InvalidatePublicKey", mock.Anything, user.Id).Return(nil)
	mockCache.On("Publish", mock.Anything, "user-keys-updated", mock.Anything).Return(nil)
	mockMQ.On("Send", mock.Anything, mock.Anything).Return(nil)

	existed, err := svc.DeleteEncryption(ctx, user)
	assert.NoError(t, err)
	assert.True(t, existed)

	// Rotation: a fresh setup after delete succeeds
	mockStore.On("CreateKeyRecord", ctx, mock.Anything).Return(nil)
	mockCache.On("SetPublicKey", mock.Anything, user.Id, mock.Anything).Return(nil)

	setup := validKeySetup()
	setup.PublicKeyId = "pk2"
	newRecord, err := svc.SetupEncryption(ctx, user, setup)
	assert.NoError(t, err)
	assert.Equal(t, "pk2", newRecord.PublicKeyId)
}
