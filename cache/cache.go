package cache

import (
	"context"

	"github.com/vireoapp/vireo/models"
)

type VireoCache interface {
	Publish(ctx context.Context, channel string, message []byte) error
	Subscribe(ctx context.Context, channel string, handler func(message []byte)) error

	// Lookaside cache for recipient public keys, consulted on every
	// share creation. A miss is (zero, false, nil).
	GetPublicKey(ctx context.Context, userId string) (models.PublicKeyInfo, bool, error)
	SetPublicKey(ctx context.Context, userId string, info models.PublicKeyInfo) error
	InvalidatePublicKey(ctx context.Context, userId string) error
}
