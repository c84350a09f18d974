package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/agrolink/logistics-engine/internal/core/domain"
)

const collectionTrips = "trips"

// TripRepository is the MongoDB-backed TripStore.
type TripRepository struct {
	col *mongo.Collection
}

func NewTripRepository(db *mongo.Database) *TripRepository {
	return &TripRepository{col: db.Collection(collectionTrips)}
}

// Get retrieves a trip state by id.
func (r *TripRepository) Get(ctx context.Context, tripID string) (*domain.TripState, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var trip domain.TripState
	err := r.col.FindOne(ctx, bson.M{"_id": tripID}).Decode(&trip)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTripNotFound
		}
		return nil, err
	}
	return &trip, nil
}

// Put upserts the full trip state snapshot.
func (r *TripRepository) Put(ctx context.Context, trip *domain.TripState) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.ReplaceOne(ctx,
		bson.M{"_id": trip.TripID},
		trip,
		options.Replace().SetUpsert(true),
	)
	return err
}

// Delete removes a trip. Deleting an absent trip is not an error.
func (r *TripRepository) Delete(ctx context.Context, tripID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.DeleteOne(ctx, bson.M{"_id": tripID})
	return err
}

// Active returns trips that are neither completed nor cancelled.
func (r *TripRepository) Active(ctx context.Context) ([]*domain.TripState, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"status": bson.M{"$nin": bson.A{
		string(domain.TripCompleted),
		string(domain.TripCancelled),
	}}}

	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var trips []*domain.TripState
	for cur.Next(ctx) {
		var trip domain.TripState
		if err := cur.Decode(&trip); err != nil {
			return nil, err
		}
		trips = append(trips, &trip)
	}
	return trips, cur.Err()
}

// EnsureIndexes creates necessary indexes on the trips collection.
func (r *TripRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "transporter_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
