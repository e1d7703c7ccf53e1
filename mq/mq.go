// Package mq abstracts the queue that carries delete-user-shares
// cascade messages from the encryption service to the background
// consumer.
package mq

import "context"

// MessageQueue moves JSON message bodies. A received message stays
// in flight until Delete is called on it, so a consumer that crashes
// mid-cascade gets the message redelivered.
type MessageQueue interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, visibilityTimeout int32) (*Message, error)
	Delete(ctx context.Context, msg *Message) error
}

type Message struct {
	Id   string
	Body string
}
