package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo bundles the three collection-backed stores over one client.
type Mongo struct {
	client   *mongo.Client
	Products *MongoProducts
	Sellers  *MongoSellers
	Users    *MongoUsers
}

// MongoProducts implements ProductStore over the products collection.
type MongoProducts struct {
	coll *mongo.Collection
}

// MongoSellers implements SellerStore over the sellers collection.
type MongoSellers struct {
	coll *mongo.Collection
}

// MongoUsers implements UserStore over the users collection.
type MongoUsers struct {
	coll *mongo.Collection
}

var (
	_ ProductStore = (*MongoProducts)(nil)
	_ SellerStore  = (*MongoSellers)(nil)
	_ UserStore    = (*MongoUsers)(nil)
)

// Connect opens a Mongo connection, verifies it with a ping and prepares the
// unique indexes the schema relies on.
func Connect(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(database)
	m := &Mongo{
		client:   client,
		Products: &MongoProducts{coll: db.Collection("products")},
		Sellers:  &MongoSellers{coll: db.Collection("sellers")},
		Users:    &MongoUsers{coll: db.Collection("users")},
	}
	if err := m.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	for _, coll := range []*mongo.Collection{m.Sellers.coll, m.Users.coll} {
		_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "telegramId", Value: 1}},
			Options: unique,
		})
		if err != nil {
			return fmt.Errorf("failed to create index on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

// Close disconnects the underlying client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// --- Products ---

func (r *MongoProducts) Insert(ctx context.Context, p *Product) (primitive.ObjectID, error) {
	p.CreatedAt = time.Now().UTC()
	res, err := r.coll.InsertOne(ctx, p)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to insert product: %w", err)
	}
	id := res.InsertedID.(primitive.ObjectID)
	p.ID = id
	return id, nil
}

func (r *MongoProducts) findOne(ctx context.Context, filter bson.M) (*Product, error) {
	var p Product
	err := r.coll.FindOne(ctx, filter).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return &p, nil
}

func (r *MongoProducts) FindByID(ctx context.Context, id primitive.ObjectID) (*Product, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoProducts) FindActiveByID(ctx context.Context, id primitive.ObjectID) (*Product, error) {
	return r.findOne(ctx, bson.M{"_id": id, "isActive": true})
}

func (r *MongoProducts) FindOwned(ctx context.Context, id, sellerID primitive.ObjectID) (*Product, error) {
	return r.findOne(ctx, bson.M{"_id": id, "sellerId": sellerID})
}

func (r *MongoProducts) findAll(ctx context.Context, filter bson.M) ([]Product, error) {
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	var out []Product
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return out, nil
}

func (r *MongoProducts) FindActiveBySeller(ctx context.Context, sellerID primitive.ObjectID) ([]Product, error) {
	return r.findAll(ctx, bson.M{"sellerId": sellerID, "isActive": true})
}

func (r *MongoProducts) FindActive(ctx context.Context) ([]Product, error) {
	return r.findAll(ctx, bson.M{"isActive": true})
}

func (r *MongoProducts) Update(ctx context.Context, id primitive.ObjectID, p *Product) error {
	set := bson.M{
		"name":               p.Name,
		"primaryImageId":     p.PrimaryImageID,
		"additionalImageIds": p.AdditionalImageIDs,
		"generalCategory":    p.GeneralCategory,
		"specificCategory":   p.SpecificCategory,
		"shortDescription":   p.ShortDescription,
		"price":              p.Price,
		"location":           p.Location,
		"contactPhone":       p.ContactPhone,
		"sellerId":           p.SellerID,
		"editedAt":           time.Now().UTC(),
	}
	res, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoProducts) SetBroadcastIDs(ctx context.Context, id primitive.ObjectID, channelMsgID, groupMsgID int) error {
	_, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"channelMessageId": channelMsgID,
		"groupMessageId":   groupMsgID,
	}})
	if err != nil {
		return fmt.Errorf("failed to store broadcast message ids: %w", err)
	}
	return nil
}

func (r *MongoProducts) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"isActive": false}})
	if err != nil {
		return fmt.Errorf("failed to deactivate product: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Sellers ---

func (r *MongoSellers) findOne(ctx context.Context, filter bson.M) (*Seller, error) {
	var s Seller
	err := r.coll.FindOne(ctx, filter).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find seller: %w", err)
	}
	return &s, nil
}

func (r *MongoSellers) FindByTelegramID(ctx context.Context, telegramID int64) (*Seller, error) {
	return r.findOne(ctx, bson.M{"telegramId": telegramID})
}

func (r *MongoSellers) FindByID(ctx context.Context, id primitive.ObjectID) (*Seller, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoSellers) Upsert(ctx context.Context, s *Seller) (primitive.ObjectID, error) {
	filter := bson.M{"telegramId": s.TelegramID}
	update := bson.M{
		"$set": bson.M{
			"username":  s.Username,
			"firstName": s.FirstName,
			"phone":     s.Phone,
		},
		"$setOnInsert": bson.M{"createdAt": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var stored Seller
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to upsert seller: %w", err)
	}
	return stored.ID, nil
}

// --- Users ---

func (r *MongoUsers) Ensure(ctx context.Context, u *User) (*User, error) {
	filter := bson.M{"telegramId": u.TelegramID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"telegramId": u.TelegramID,
			"username":   u.Username,
			"firstName":  u.FirstName,
			"createdAt":  time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var stored User
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}
	return &stored, nil
}

func (r *MongoUsers) AddCategoryPreferences(ctx context.Context, telegramID int64, general, specific string) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"telegramId": telegramID}, bson.M{
		"$addToSet": bson.M{
			"preferences.generalCategories":  general,
			"preferences.specificCategories": specific,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to record category preferences: %w", err)
	}
	return nil
}
