package store

import (
	"context"
	"fmt"
	"sync"

	"pickmeup-backend/models"
	"pickmeup-backend/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo implements DocumentStore on top of a connected mongo.Database,
// one collection per report variant ("lost", "found").
type Mongo struct {
	db *mongo.Database
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{db: db}
}

func (s *Mongo) col(c models.Collection) *mongo.Collection {
	return s.db.Collection(string(c))
}

type itemDoc struct {
	OID  primitive.ObjectID `bson:"_id,omitempty"`
	Item models.ItemReport  `bson:",inline"`
}

// decodeItem parses one raw remote document into the typed report shape.
// Anything that does not fit the shape is rejected here rather than handed
// to the view layer loosely typed.
func decodeItem(col models.Collection, raw bson.Raw) (models.ItemReport, error) {
	var doc itemDoc
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return models.ItemReport{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if doc.OID.IsZero() {
		return models.ItemReport{}, fmt.Errorf("%w: missing _id", ErrDecode)
	}
	if doc.Item.Status != "" && !col.ValidStatus(doc.Item.Status) {
		return models.ItemReport{}, fmt.Errorf("%w: status %q not valid in collection %q", ErrDecode, doc.Item.Status, col)
	}
	item := doc.Item
	item.ID = doc.OID.Hex()
	if item.Status == "" {
		item.Status = col.InitialStatus()
	}
	return item, nil
}

func (s *Mongo) Create(ctx context.Context, col models.Collection, item models.ItemReport) (string, error) {
	res, err := s.col(col).InsertOne(ctx, item)
	if err != nil {
		return "", fmt.Errorf("inserting into %s: %w", col, err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("inserting into %s: unexpected id type %T", col, res.InsertedID)
	}
	return oid.Hex(), nil
}

func (s *Mongo) Get(ctx context.Context, col models.Collection, id string) (*models.ItemReport, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var raw bson.Raw
	err = s.col(col).FindOne(ctx, bson.M{"_id": oid}).Decode(&raw)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s/%s: %w", col, id, err)
	}
	item, err := decodeItem(col, raw)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Mongo) UpdatePartial(ctx context.Context, col models.Collection, id string, fields map[string]any) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.col(col).UpdateByID(ctx, oid, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("updating %s/%s: %w", col, id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Mongo) Delete(ctx context.Context, col models.Collection, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.col(col).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", col, id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func filterFor(q Query) bson.M {
	filter := bson.M{}
	if q.UserID != "" {
		filter["user_id"] = q.UserID
	}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	return filter
}

func (s *Mongo) List(ctx context.Context, col models.Collection, q Query) ([]models.ItemReport, error) {
	opts := options.Find()
	if q.NewestFirst {
		opts.SetSort(bson.D{{Key: "created_at", Value: -1}})
	}
	cur, err := s.col(col).Find(ctx, filterFor(q), opts)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", col, err)
	}
	defer cur.Close(ctx)

	items := []models.ItemReport{}
	for cur.Next(ctx) {
		item, err := decodeItem(col, cur.Current)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("listing %s: %w", col, err)
	}
	return items, nil
}

// Subscribe watches the collection through a change stream and re-delivers
// the complete filtered listing after every remote change. Small collections
// make the full resend affordable; consumers never receive diffs.
func (s *Mongo) Subscribe(ctx context.Context, col models.Collection, q Query, onSnapshot SnapshotFunc, onError ErrorFunc) (func(), error) {
	cs, err := s.col(col).Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return nil, fmt.Errorf("watching %s: %w", col, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			cancel()
			if err := cs.Close(context.Background()); err != nil {
				utils.LogError(err, "closing change stream for "+string(col))
			}
		})
	}

	go func() {
		deliver := func() bool {
			items, err := s.List(subCtx, col, q)
			if err != nil {
				if subCtx.Err() == nil {
					onError(err)
				}
				return false
			}
			onSnapshot(items)
			return true
		}
		if !deliver() {
			return
		}
		for cs.Next(subCtx) {
			if !deliver() {
				return
			}
		}
		if err := cs.Err(); err != nil && subCtx.Err() == nil {
			onError(fmt.Errorf("change stream on %s: %w", col, err))
		}
	}()

	return unsubscribe, nil
}
