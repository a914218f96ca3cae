package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"cloud.google.com/go/pubsub"
	"github.com/platebook/platebook-backend/internal/config"
	"github.com/platebook/platebook-backend/internal/logging"
	"github.com/platebook/platebook-backend/internal/utils/errors"
)

// Message is the payload of a Pub/Sub event.
type Message struct {
	Data []byte `json:"data"`
}

//DecodeJSONEvent Decodes JSON payload of the event into dst. An empty payload leaves dst untouched.
func DecodeJSONEvent(m Message, dst interface{}) error {
	if len(m.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(m.Data, dst); err != nil {
		return &errors.MalformedRequestError{Msg: fmt.Sprintf("Error while parsing event payload: %v", err)}
	}
	return nil
}

//EventPublisher is an abstraction over PubSub
type EventPublisher interface {
	Publish(ctx context.Context, topic string, msg interface{}) error
}

//NewPublisher Creates publisher for the project, mocked when Firebase is mocked.
func NewPublisher(ctx context.Context, conf config.FirebaseConfig) (EventPublisher, error) {
	if conf.Mocked() {
		logging.FromContext(ctx).Infof("Mocking PubSub")
		return &MockClient{}, nil
	}

	client, err := pubsub.NewClient(ctx, conf.ProjectID)
	if err != nil {
		return nil, &errors.ConfigError{Msg: "Could not create PubSub client", Err: err}
	}

	return Client{PubSub: client}, nil
}

//Client Real PubSub client.
type Client struct {
	PubSub *pubsub.Client
}

//Publish Publish message to some topic.
func (c Client) Publish(ctx context.Context, topic string, msg interface{}) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	result := c.PubSub.Topic(topic).Publish(ctx, &pubsub.Message{Data: payload})

	// The Get method blocks until a server-generated ID or
	// an error is returned for the published message.
	_, err = result.Get(ctx)
	return err
}

//MockClient PubSub client remembering published payloads.
type MockClient struct {
	mu        sync.Mutex
	Published map[string][][]byte
}

//Publish Publish message to some topic.
func (c *MockClient) Publish(_ context.Context, topic string, msg interface{}) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Published == nil {
		c.Published = map[string][][]byte{}
	}
	c.Published[topic] = append(c.Published[topic], payload)
	return nil
}
