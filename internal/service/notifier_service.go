package service

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"kiwi-assistant-core/internal/pkg/logger"
	"kiwi-assistant-core/internal/websocket"
	"kiwi-assistant-core/pkg/events"
)

type INotifierService interface {
	Consume(ctx context.Context) error
}

// notifierService is the edge that makes "UI re-renders from new state"
// explicit: it drains the state topic and pushes every committed mutation
// to the websocket hub.
type notifierService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	hub       *websocket.Hub
	logger    logger.ILogger
}

func NewNotifierService(
	pubSub *gochannel.GoChannel,
	topicName string,
	hub *websocket.Hub,
	log logger.ILogger,
) INotifierService {
	return &notifierService{
		pubSub:    pubSub,
		topicName: topicName,
		hub:       hub,
		logger:    log,
	}
}

func (ns *notifierService) Consume(ctx context.Context) error {
	messages, err := ns.pubSub.Subscribe(ctx, ns.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			ns.processMessage(msg)
		}
	}()

	return nil
}

func (ns *notifierService) processMessage(msg *message.Message) {
	var evt events.BaseEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		ns.logger.Warn("NotifierService", "Failed to unmarshal state event", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	data, err := json.Marshal(evt.Data)
	if err != nil {
		ns.logger.Warn("NotifierService", "Failed to marshal event data", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}

	ns.hub.Broadcast(evt.Type, data)
	msg.Ack()
}
