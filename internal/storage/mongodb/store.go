// Package mongodb implements the message state store using MongoDB.
//
// The compare-and-set relies on MongoDB's atomic single-document update:
// the update filter matches both the message id and the expected state,
// so of any concurrent racers exactly one observes MatchedCount == 1.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/holodeck-b2b/hb2b-as2-sub001/internal/storage"
	"github.com/holodeck-b2b/hb2b-as2-sub001/pkg/message"
)

// Store implements storage.Store using MongoDB
type Store struct {
	client   *mongo.Client
	db       *mongo.Database
	messages *mongo.Collection
}

// Config holds MongoDB connection settings
type Config struct {
	URI      string
	Database string
}

// messageRecord is the persisted shape of a message unit
type messageRecord struct {
	ID             string    `bson:"_id"`
	RefToMessageID string    `bson:"ref_to_message_id,omitempty"`
	Direction      string    `bson:"direction"`
	Kind           string    `bson:"kind"`
	State          string    `bson:"state"`
	PModeID        string    `bson:"pmode_id,omitempty"`
	FromPartyID    string    `bson:"from_party_id"`
	ToPartyID      string    `bson:"to_party_id"`
	LastError      string    `bson:"last_error,omitempty"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func toRecord(m *message.MessageUnit) *messageRecord {
	return &messageRecord{
		ID:             m.MessageID,
		RefToMessageID: m.RefToMessageID,
		Direction:      string(m.Direction),
		Kind:           string(m.Kind),
		State:          string(m.State),
		PModeID:        m.PModeID,
		FromPartyID:    m.FromPartyID,
		ToPartyID:      m.ToPartyID,
		LastError:      m.LastError,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func (r *messageRecord) toUnit() *message.MessageUnit {
	return &message.MessageUnit{
		MessageID:      r.ID,
		RefToMessageID: r.RefToMessageID,
		Direction:      message.Direction(r.Direction),
		Kind:           message.Kind(r.Kind),
		State:          message.ProcessingState(r.State),
		PModeID:        r.PModeID,
		FromPartyID:    r.FromPartyID,
		ToPartyID:      r.ToPartyID,
		LastError:      r.LastError,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// NewStore creates a new MongoDB store
func NewStore(ctx context.Context, cfg *Config) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}

	db := client.Database(cfg.Database)
	s := &Store{
		client:   client,
		db:       db,
		messages: db.Collection("messages"),
	}

	if err := s.createIndexes(ctx); err != nil {
		return nil, fmt.Errorf("creating indexes: %w", err)
	}

	return s, nil
}

func (s *Store) createIndexes(ctx context.Context) error {
	// The poll query filters on direction and state.
	_, err := s.messages.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "direction", Value: 1}, {Key: "state", Value: 1}}},
		{Keys: bson.D{{Key: "ref_to_message_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("creating message indexes: %w", err)
	}
	return nil
}

// PutMessage implements storage.Store
func (s *Store) PutMessage(ctx context.Context, m *message.MessageUnit) error {
	_, err := s.messages.InsertOne(ctx, toRecord(m))
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}
	return nil
}

// GetMessage implements storage.Store
func (s *Store) GetMessage(ctx context.Context, messageID string) (*message.MessageUnit, error) {
	var rec messageRecord
	err := s.messages.FindOne(ctx, bson.M{"_id": messageID}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", storage.ErrMessageNotFound, messageID)
	}
	if err != nil {
		return nil, fmt.Errorf("finding message: %w", err)
	}
	return rec.toUnit(), nil
}

// MessagesInState implements storage.Store
func (s *Store) MessagesInState(ctx context.Context, direction message.Direction, state message.ProcessingState, limit int) ([]*message.MessageUnit, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.messages.Find(ctx, bson.M{
		"direction": string(direction),
		"state":     string(state),
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*message.MessageUnit
	for cursor.Next(ctx) {
		var rec messageRecord
		if err := cursor.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decoding message: %w", err)
		}
		result = append(result, rec.toUnit())
	}
	return result, cursor.Err()
}

// CompareAndSetState implements storage.Store. The state guard lives in
// the update filter, making the transition atomic server-side.
func (s *Store) CompareAndSetState(ctx context.Context, messageID string, expected, next message.ProcessingState) (bool, error) {
	res, err := s.messages.UpdateOne(ctx,
		bson.M{"_id": messageID, "state": string(expected)},
		bson.M{"$set": bson.M{
			"state":      string(next),
			"updated_at": time.Now(),
		}},
	)
	if err != nil {
		return false, fmt.Errorf("updating message state: %w", err)
	}
	return res.MatchedCount == 1, nil
}

// SetLastError implements storage.Store
func (s *Store) SetLastError(ctx context.Context, messageID, lastError string) error {
	res, err := s.messages.UpdateOne(ctx,
		bson.M{"_id": messageID},
		bson.M{"$set": bson.M{
			"last_error": lastError,
			"updated_at": time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("recording message error: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", storage.ErrMessageNotFound, messageID)
	}
	return nil
}

// Close implements storage.Store
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping implements storage.Store
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}
