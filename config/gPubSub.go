package config

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"
)

// AuditMessage is the wire payload published to the audit topic.
// Audit persistence is owned by a separate consumer service; the core only emits.
type AuditMessage struct {
	ActorId       int       `json:"actor_id"`
	ActorUsername string    `json:"actor_username"`
	Action        string    `json:"action"`
	TargetType    string    `json:"target_type"`
	TargetId      string    `json:"target_id"`
	Summary       string    `json:"summary"`
	IpAddress     string    `json:"ip_address"`
	BranchId      int       `json:"branch_id"`
	CorrelationId string    `json:"correlation_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

var (
	pubsubClient   *pubsub.Client
	pubsubClientMu sync.Mutex
)

func init() {
	// Load env from .env
	godotenv.Load()
}

func getPubSubProjectID() string {
	if v := os.Getenv("PUBSUB_PROJECT_ID"); v != "" {
		return v
	}
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		return v
	}
	if v := os.Getenv("GCP_PROJECT"); v != "" {
		return v
	}
	return ""
}

// getPubSubClient returns a Pub/Sub client, initializing it lazily.
// It uses Application Default Credentials unless PUBSUB_CREDENTIALS_JSON is provided.
func getPubSubClient(ctx context.Context) (*pubsub.Client, error) {
	pubsubClientMu.Lock()
	defer pubsubClientMu.Unlock()
	if pubsubClient != nil {
		return pubsubClient, nil
	}

	projectID := getPubSubProjectID()
	if projectID == "" {
		return nil, errors.New("PUBSUB_PROJECT_ID/GOOGLE_CLOUD_PROJECT not set")
	}

	var opts []option.ClientOption
	if credJSON := os.Getenv("PUBSUB_CREDENTIALS_JSON"); credJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, err
	}
	pubsubClient = client
	return pubsubClient, nil
}

// PublishAuditMessage publishes one audit event to the audit topic and waits for
// the server ack. Callers decide what to do with the error; by policy the
// financial operation that produced the event is already committed.
func PublishAuditMessage(ctx context.Context, msg AuditMessage) error {
	topicID := os.Getenv("AUDIT_TOPIC_ID")
	if topicID == "" {
		topicID = "mfi-audit-events"
	}

	client, err := getPubSubClient(ctx)
	if err != nil {
		return err
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	topic := client.Topic(topicID)
	result := topic.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"action":         msg.Action,
			"correlation_id": msg.CorrelationId,
		},
	})
	_, err = result.Get(ctx)
	return err
}
