package book

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// CollectionName is the MongoDB collection holding book documents.
const CollectionName = "books"

type bookDocument struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Title     string        `bson:"title"`
	Author    string        `bson:"author"`
	ISBN      string        `bson:"isbn,omitempty"`
	Year      *int          `bson:"year,omitempty"`
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

func (d bookDocument) toBook() Book {
	return Book{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Author:    d.Author,
		ISBN:      d.ISBN,
		Year:      d.Year,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type MongoRepo struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewMongoRepo(db *mongo.Database, timeout time.Duration) *MongoRepo {
	return &MongoRepo{coll: db.Collection(CollectionName), timeout: timeout}
}

func (r *MongoRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// EnsureIndexes creates the index backing the newest-first listing.
func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	_, err := r.coll.Indexes().CreateOne(timeoutCtx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create createdAt index: %w", err)
	}
	return nil
}

func (r *MongoRepo) List(ctx context.Context, q Query) ([]Book, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "createdAt", Value: -1},
		{Key: "_id", Value: -1},
	})

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	cursor, err := r.coll.Find(timeoutCtx, mongoFilter(q), opts)
	if err != nil {
		return nil, err
	}

	var docs []bookDocument
	if err := cursor.All(timeoutCtx, &docs); err != nil {
		return nil, err
	}

	out := make([]Book, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toBook())
	}
	return out, nil
}

func (r *MongoRepo) GetByID(ctx context.Context, id string) (Book, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return Book{}, err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var doc bookDocument
	if err := r.coll.FindOne(timeoutCtx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		return Book{}, translateMongoErr(err)
	}
	return doc.toBook(), nil
}

func (r *MongoRepo) Create(ctx context.Context, f Fields) (Book, error) {
	doc := newDocument(f, mongoNow())

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if _, err := r.coll.InsertOne(timeoutCtx, doc); err != nil {
		return Book{}, err
	}
	return doc.toBook(), nil
}

func (r *MongoRepo) Replace(ctx context.Context, id string, f Fields) (Book, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return Book{}, err
	}

	set := bson.D{
		{Key: "title", Value: f.Title},
		{Key: "author", Value: f.Author},
		{Key: "updatedAt", Value: mongoNow()},
	}
	unset := bson.D{}
	if f.ISBN != "" {
		set = append(set, bson.E{Key: "isbn", Value: f.ISBN})
	} else {
		unset = append(unset, bson.E{Key: "isbn", Value: ""})
	}
	if f.Year != nil {
		set = append(set, bson.E{Key: "year", Value: *f.Year})
	} else {
		unset = append(unset, bson.E{Key: "year", Value: ""})
	}

	update := bson.D{{Key: "$set", Value: set}}
	if len(unset) > 0 {
		update = append(update, bson.E{Key: "$unset", Value: unset})
	}
	return r.findOneAndUpdate(ctx, oid, update)
}

func (r *MongoRepo) Update(ctx context.Context, id string, p Patch) (Book, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return Book{}, err
	}

	set := bson.D{{Key: "updatedAt", Value: mongoNow()}}
	if p.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *p.Title})
	}
	if p.Author != nil {
		set = append(set, bson.E{Key: "author", Value: *p.Author})
	}
	if p.ISBN != nil {
		set = append(set, bson.E{Key: "isbn", Value: *p.ISBN})
	}
	if p.Year != nil {
		set = append(set, bson.E{Key: "year", Value: *p.Year})
	}
	return r.findOneAndUpdate(ctx, oid, bson.D{{Key: "$set", Value: set}})
}

func (r *MongoRepo) findOneAndUpdate(ctx context.Context, oid bson.ObjectID, update bson.D) (Book, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var doc bookDocument
	err := r.coll.FindOneAndUpdate(timeoutCtx, bson.D{{Key: "_id", Value: oid}}, update, opts).Decode(&doc)
	if err != nil {
		return Book{}, translateMongoErr(err)
	}
	return doc.toBook(), nil
}

func (r *MongoRepo) Delete(ctx context.Context, id string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	res, err := r.coll.DeleteOne(timeoutCtx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepo) Reset(ctx context.Context, seed []Fields) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if _, err := r.coll.DeleteMany(timeoutCtx, bson.D{}); err != nil {
		return fmt.Errorf("clear books: %w", err)
	}
	if len(seed) == 0 {
		return nil
	}

	now := mongoNow()
	docs := make([]any, 0, len(seed))
	for _, f := range seed {
		docs = append(docs, newDocument(f, now))
	}
	if _, err := r.coll.InsertMany(timeoutCtx, docs); err != nil {
		return fmt.Errorf("insert books: %w", err)
	}
	return nil
}

func (r *MongoRepo) Ping(ctx context.Context) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.coll.Database().Client().Ping(timeoutCtx, readpref.Primary())
}

func newDocument(f Fields, now time.Time) bookDocument {
	return bookDocument{
		ID:        bson.NewObjectID(),
		Title:     f.Title,
		Author:    f.Author,
		ISBN:      f.ISBN,
		Year:      copyInt(f.Year),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func mongoFilter(q Query) bson.D {
	if q.Q != "" {
		re := containsRegex(q.Q)
		return bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "title", Value: re}},
			bson.D{{Key: "author", Value: re}},
			bson.D{{Key: "isbn", Value: re}},
		}}}
	}

	filter := bson.D{}
	if q.Title != "" {
		filter = append(filter, bson.E{Key: "title", Value: containsRegex(q.Title)})
	}
	if q.Author != "" {
		filter = append(filter, bson.E{Key: "author", Value: containsRegex(q.Author)})
	}
	if q.ISBN != "" {
		filter = append(filter, bson.E{Key: "isbn", Value: containsRegex(q.ISBN)})
	}
	return filter
}

func containsRegex(term string) bson.Regex {
	return bson.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
}

func parseObjectID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.ObjectID{}, ErrInvalidID
	}
	return oid, nil
}

func translateMongoErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

// BSON datetimes carry millisecond precision.
func mongoNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
