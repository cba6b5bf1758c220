package account

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func optionsAfter() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}

type Repository interface {
	Create(ctx context.Context, user User) error
	GetByUID(ctx context.Context, uid string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByPhone(ctx context.Context, phone string) (User, error)
	UpdateProfile(ctx context.Context, uid string, req UpdateProfileRequest, now time.Time) (User, error)
	IncrementBookings(ctx context.Context, uid string) error
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, user User) error {
	_, err := r.col.InsertOne(ctx, user)
	return err
}

func (r *MongoRepository) GetByUID(ctx context.Context, uid string) (User, error) {
	var user User
	if err := r.col.FindOne(ctx, bson.M{"_id": uid}).Decode(&user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (r *MongoRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	var user User
	if err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (r *MongoRepository) GetByPhone(ctx context.Context, phone string) (User, error) {
	var user User
	if err := r.col.FindOne(ctx, bson.M{"phone": phone}).Decode(&user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (r *MongoRepository) UpdateProfile(ctx context.Context, uid string, req UpdateProfileRequest, now time.Time) (User, error) {
	opts := optionsAfter()
	update := bson.M{
		"$set": bson.M{
			"firstName": req.FirstName,
			"lastName":  req.LastName,
			"phone":     req.Phone,
			"updatedAt": now,
		},
	}

	var updated User
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": uid}, update, opts).Decode(&updated); err != nil {
		return User{}, err
	}
	return updated, nil
}

func (r *MongoRepository) IncrementBookings(ctx context.Context, uid string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{
		"$inc": bson.M{"totalBookings": 1},
		"$set": bson.M{"updatedAt": time.Now()},
	})
	return err
}
