// Package queue defines the catalog change events exchanged over RabbitMQ
// and the background consumer that records them in an audit log.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// CatalogQueueName is the durable queue catalog events are routed to.
const CatalogQueueName = "catalog.changed"

// Actions carried by CatalogChangedEvent.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// CatalogChangedEvent is published after a document in one of the catalog
// collections is created, updated or deleted.  It carries enough detail for
// the audit consumer to log the change without reading the database.
type CatalogChangedEvent struct {
	ID         string `json:"id"`
	Collection string `json:"collection"`
	Action     string `json:"action"`
	DocumentID string `json:"document_id"`
	Name       string `json:"name,omitempty"`
	Actor      string `json:"actor"`
	OccurredAt string `json:"occurred_at"`
}

// NewCatalogChangedEvent stamps a fresh event id and the current UTC time.
func NewCatalogChangedEvent(collection, action, docID, name, actor string) CatalogChangedEvent {
	return CatalogChangedEvent{
		ID:         uuid.NewString(),
		Collection: collection,
		Action:     action,
		DocumentID: docID,
		Name:       name,
		Actor:      actor,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
}
