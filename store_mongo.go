package main

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const sightingsCollection = "sightings"

// sightingDocument is the BSON shape of a sighting in the collection.
type sightingDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Description string             `bson:"description"`
	Food        []string           `bson:"food"`
	Datetime    time.Time          `bson:"datetime"`
}

// MongoStore provides sighting persistence in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// ConnectMongo connects to the MongoDB deployment at uri and selects the
// sightings collection of database dbName.
func ConnectMongo(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %w", ErrStorage, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: ping: %w", ErrStorage, err)
	}
	return NewMongoStore(client, dbName), nil
}

// NewMongoStore creates a MongoStore on an already connected client.
func NewMongoStore(client *mongo.Client, dbName string) *MongoStore {
	return &MongoStore{
		client: client,
		coll:   client.Database(dbName).Collection(sightingsCollection),
	}
}

// ValidateID accepts 24 character hex ObjectIDs.
func (s *MongoStore) ValidateID(id string) error {
	_, err := parseObjectID(id)
	return err
}

// Insert adds a new document and returns its generated ObjectID in hex.
func (s *MongoStore) Insert(ctx context.Context, sighting *Sighting) (string, error) {
	doc := sightingDocument{
		Description: sighting.Description,
		Food:        sighting.Food,
		Datetime:    sighting.Datetime,
	}
	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("%w: insert: %w", ErrStorage, err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("%w: insert: unexpected id type %T", ErrStorage, res.InsertedID)
	}
	sighting.ID = oid.Hex()
	return sighting.ID, nil
}

// Find runs the criteria built from filter against the collection.
func (s *MongoStore) Find(ctx context.Context, filter SearchFilter) ([]*Sighting, error) {
	cur, err := s.coll.Find(ctx, buildCriteria(filter))
	if err != nil {
		return nil, fmt.Errorf("%w: find: %w", ErrStorage, err)
	}
	var docs []sightingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: find: %w", ErrStorage, err)
	}
	sightings := make([]*Sighting, 0, len(docs))
	for _, d := range docs {
		sightings = append(sightings, d.toSighting())
	}
	return sightings, nil
}

// Update sets description, food and datetime on the document with id.
func (s *MongoStore) Update(ctx context.Context, id string, sighting *Sighting) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}
	set := bson.M{
		"description": sighting.Description,
		"food":        sighting.Food,
		"datetime":    sighting.Datetime,
	}
	if _, err := s.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set}); err != nil {
		return fmt.Errorf("%w: update: %w", ErrStorage, err)
	}
	return nil
}

// Delete removes the document with id.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("%w: delete: %w", ErrStorage, err)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// buildCriteria translates a SearchFilter into a find criteria document.
// The description is escaped so it matches as a literal substring.
func buildCriteria(filter SearchFilter) bson.M {
	criteria := bson.M{}
	if filter.Description != "" {
		criteria["description"] = bson.M{
			"$regex":   regexp.QuoteMeta(filter.Description),
			"$options": "i",
		}
	}
	if filter.Food != "" {
		criteria["food"] = bson.M{"$in": bson.A{filter.Food}}
	}
	return criteria
}

func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
	}
	return oid, nil
}

func (d sightingDocument) toSighting() *Sighting {
	food := d.Food
	if food == nil {
		food = []string{}
	}
	return &Sighting{
		ID:          d.ID.Hex(),
		Description: d.Description,
		Food:        food,
		Datetime:    d.Datetime.UTC(),
	}
}
