package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/vireoapp/vireo/cache"
	"github.com/vireoapp/vireo/service"
)

type keysUpdatedData struct {
	PublicKeyId string `json:"publicKeyId,omitempty"`
	KeysDeleted bool   `json:"keysDeleted"`
}

type shareEventData struct {
	ShareId  string `json:"shareId"`
	OwnerId  string `json:"ownerId"`
	ItemType string `json:"itemType"`
}

type eventMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub maintains the set of active clients, keyed by user id, and fans
// out cross-instance events arriving over Redis pub/sub.
type Hub struct {
	vireoCache        cache.VireoCache
	OpenCh            chan *Client
	CloseCh           chan *Client
	UserDeletedCh     chan string
	UserKeysUpdatedCh chan service.UserKeysUpdatedMessage
	ShareEventCh      chan service.ShareEventMessage
	userToClients     map[string]map[*Client]struct{}
}

func NewHub(vireoCache cache.VireoCache) *Hub {
	return &Hub{
		vireoCache:        vireoCache,
		OpenCh:            make(chan *Client, 256),
		CloseCh:           make(chan *Client, 256),
		UserDeletedCh:     make(chan string, 64),
		UserKeysUpdatedCh: make(chan service.UserKeysUpdatedMessage, 64),
		ShareEventCh:      make(chan service.ShareEventMessage, 256),
		userToClients:     make(map[string]map[*Client]struct{}),
	}
}

const maxConnectionsPerUser = 3

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.OpenCh:
			if _, ok := h.userToClients[client.user.Id]; !ok {
				h.userToClients[client.user.Id] = make(map[*Client]struct{})
			}

			if len(h.userToClients[client.user.Id]) >= maxConnectionsPerUser {
				log.Printf("User %s reached max connections (%d)", client.user.Id, maxConnectionsPerUser)
				close(client.Send)
				continue
			}

			h.userToClients[client.user.Id][client] = struct{}{}

		case client := <-h.CloseCh:
			delete(h.userToClients[client.user.Id], client)
			if len(h.userToClients[client.user.Id]) == 0 {
				delete(h.userToClients, client.user.Id)
			}

		case userId := <-h.UserDeletedCh:
			if clients, ok := h.userToClients[userId]; ok {
				for client := range clients {
					close(client.Send)
					delete(h.userToClients[userId], client)
				}
				delete(h.userToClients, userId)
			}

		case keysMsg := <-h.UserKeysUpdatedCh:
			h.sendToUser(keysMsg.UserId, eventMessage{
				Type: "keys_updated",
				Data: keysUpdatedData{PublicKeyId: keysMsg.PublicKeyId, KeysDeleted: keysMsg.KeysDeleted},
			})

		case shareMsg := <-h.ShareEventCh:
			data := shareEventData{ShareId: shareMsg.ShareId, OwnerId: shareMsg.OwnerId, ItemType: shareMsg.ItemType}
			switch shareMsg.Type {
			case "created":
				h.sendToUser(shareMsg.RecipientId, eventMessage{Type: "share_received", Data: data})
			case "revoked":
				// Both sides care: the recipient loses access, the
				// owner may have revoked from another device.
				h.sendToUser(shareMsg.RecipientId, eventMessage{Type: "share_revoked", Data: data})
				h.sendToUser(shareMsg.OwnerId, eventMessage{Type: "share_revoked", Data: data})
			}
		}
	}
}

func (h *Hub) sendToUser(userId string, msg eventMessage) {
	clients, ok := h.userToClients[userId]
	if !ok {
		return
	}
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal %s message: %v", msg.Type, err)
		return
	}
	for client := range clients {
		client.Send <- msgBytes
	}
}

func (h *Hub) InitSubscriptions(shutdownCtx context.Context) error {
	err := h.vireoCache.Subscribe(shutdownCtx, "user-deleted", func(message []byte) {
		var userDeletedMsg service.UserDeletedMessage
		if err := json.Unmarshal(message, &userDeletedMsg); err == nil {
			h.UserDeletedCh <- userDeletedMsg.UserId
		}
	})
	if err != nil {
		log.Printf("WS hub failed to subscribe to user-deleted: %v", err)
		return err
	}

	err = h.vireoCache.Subscribe(shutdownCtx, "user-keys-updated", func(message []byte) {
		var keysMsg service.UserKeysUpdatedMessage
		if err := json.Unmarshal(message, &keysMsg); err == nil {
			h.UserKeysUpdatedCh <- keysMsg
		} else {
			log.Printf("Failed to unmarshal user-keys-updated message: %v", err)
		}
	})
	if err != nil {
		log.Printf("WS hub failed to subscribe to user-keys-updated: %v", err)
		return err
	}

	err = h.vireoCache.Subscribe(shutdownCtx, "share-events", func(message []byte) {
		var shareMsg service.ShareEventMessage
		if err := json.Unmarshal(message, &shareMsg); err == nil {
			h.ShareEventCh <- shareMsg
		} else {
			log.Printf("Failed to unmarshal share-events message: %v", err)
		}
	})
	if err != nil {
		log.Printf("WS hub failed to subscribe to share-events: %v", err)
		return err
	}

	return nil
}
