package service

import (
	"errors"
	"fmt"

	"github.com/vireoapp/vireo/cache"
	"github.com/vireoapp/vireo/mq"
	"github.com/vireoapp/vireo/store"
	"github.com/vireoapp/vireo/worker"
	"golang.org/x/oauth2"
)

type Service struct {
	Store         store.VireoStore
	Cache         cache.VireoCache
	MQ            mq.MessageQueue
	StatsBatcher  *worker.StatsBatcher
	AccessBatcher *worker.AccessBatcher
	OAuthConfigs  map[string]*oauth2.Config
	JWTSecret     []byte

	// AllowSelfShares permits grants where owner == recipient. The
	// product never decided whether self-shares are meaningful, so
	// this stays a switch rather than a hard rule.
	AllowSelfShares bool
}

func NewService(
	store store.VireoStore,
	cache cache.VireoCache,
	mq mq.MessageQueue,
	statsBatcher *worker.StatsBatcher,
	accessBatcher *worker.AccessBatcher,
	oauthConfigs map[string]*oauth2.Config,
	jwtSecret []byte,
) (*Service, error) {
	oauthConfigs, err := addOauthEndpointsAndScopes(oauthConfigs)
	if err != nil {
		return nil, err
	}

	return &Service{
		Store:         store,
		Cache:         cache,
		MQ:            mq,
		StatsBatcher:  statsBatcher,
		AccessBatcher: accessBatcher,
		OAuthConfigs:  oauthConfigs,
		JWTSecret:     jwtSecret,
	}, nil
}

// Expected-outcome errors, returned (not thrown) so every caller
// handles each case explicitly.
var (
	ErrUnauthorized          = errors.New("unauthorized")
	ErrNotFound              = errors.New("not found")
	ErrConflict              = errors.New("already exists")
	ErrRecipientNotEncrypted = errors.New("recipient has no encryption keys")
)

// ValidationError carries field-level detail for 400 responses.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func validationErr(field string, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
