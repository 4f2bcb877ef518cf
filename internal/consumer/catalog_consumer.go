package consumer

import (
	"context"
	"encoding/json"
	"log"

	"github.com/atelierfoto/session-service/internal/models"
	"github.com/atelierfoto/session-service/internal/repository"
	amqp "github.com/rabbitmq/amqp091-go"
)

// CatalogConsumer keeps the local price list in sync with the catalog
// service. Line items freeze a snapshot at add time, so a delayed sync only
// affects new additions, never existing sessions.
type CatalogConsumer struct {
	catalog repository.CatalogRepository
}

func NewCatalogConsumer(catalog repository.CatalogRepository) *CatalogConsumer {
	return &CatalogConsumer{catalog: catalog}
}

func (cc *CatalogConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			cc.handleMessage(msg)
		}
		log.Println("[CatalogConsumer] channel closed, stopping consumer")
	}()
}

func (cc *CatalogConsumer) handleMessage(msg amqp.Delivery) {
	var item models.CatalogItem
	if err := json.Unmarshal(msg.Body, &item); err != nil {
		log.Printf("[CatalogConsumer] failed to unmarshal: %v", err)
		msg.Nack(false, false)
		return
	}
	if item.ID == 0 || item.Code == "" {
		log.Printf("[CatalogConsumer] dropping message without id or code")
		msg.Nack(false, false)
		return
	}

	if err := cc.catalog.Upsert(context.Background(), &item); err != nil {
		log.Printf("[CatalogConsumer] failed to upsert item %d: %v", item.ID, err)
		msg.Nack(false, true) // requeue
		return
	}

	log.Printf("[CatalogConsumer] synced catalog item %d: %s", item.ID, item.Code)
	msg.Ack(false)
}
