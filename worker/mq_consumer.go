package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/vireoapp/vireo/cache"
	"github.com/vireoapp/vireo/mq"
	"github.com/vireoapp/vireo/store"
)

// DeleteUserSharesMessage triggers the cascade that removes every
// grant where the user is owner or recipient. Sent when the user's
// key registry entry or account is deleted.
type DeleteUserSharesMessage struct {
	UserId string `json:"userId"`
}

type MQConsumer struct {
	deleteUserSharesQueue mq.MessageQueue
	vireoStore            store.VireoStore
	vireoCache            cache.VireoCache
}

func NewMQConsumer(deleteUserSharesQueue mq.MessageQueue, vireoStore store.VireoStore, vireoCache cache.VireoCache) *MQConsumer {
	return &MQConsumer{
		deleteUserSharesQueue: deleteUserSharesQueue,
		vireoStore:            vireoStore,
		vireoCache:            vireoCache,
	}
}

// Allow up to 5 minutes for the throttled batch deletion across both
// share indexes
const visibilityTimeout = 300

func (mqConsumer MQConsumer) Run(shutdownCtx context.Context) {
	for {
		msg, err := mqConsumer.deleteUserSharesQueue.Receive(shutdownCtx, visibilityTimeout)

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			log.Printf("mqConsumer receive error: %v", err)
			continue
		}

		if msg == nil {
			continue
		}

		var deleteMsg DeleteUserSharesMessage
		if err := json.Unmarshal([]byte(msg.Body), &deleteMsg); err != nil {
			continue
		}

		// timeout should be a little less than queue visibility timeout
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(visibilityTimeout-1)*time.Second)

		err = mqConsumer.vireoStore.DeleteUserShares(ctx, deleteMsg.UserId)

		if err == nil {
			// The user's cached public key no longer reflects reality
			if cacheErr := mqConsumer.vireoCache.InvalidatePublicKey(ctx, deleteMsg.UserId); cacheErr != nil {
				log.Printf("Failed to invalidate public key cache for user %s: %v", deleteMsg.UserId, cacheErr)
			}
		}

		cancel()

		if err != nil {
			// Partial failure: the message stays on the queue and the
			// cascade is retried after the visibility timeout.
			log.Printf("vireoStore delete user shares error: %v", err)
			continue
		}

		err = mqConsumer.deleteUserSharesQueue.Delete(context.Background(), msg)
		if err != nil {
			log.Printf("mqConsumer delete error: %v", err)
			continue
		}
	}
}
