package storage

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/errs"
	"backend/models"
)

type Users struct {
	col *mongo.Collection
}

func NewUsers(col *mongo.Collection) *Users {
	return &Users{col: col}
}

func (s *Users) Insert(ctx context.Context, u *models.User) error {
	count, err := s.col.CountDocuments(ctx, bson.M{"email": u.Email})
	if err != nil {
		return errs.Storage(err)
	}
	if count > 0 {
		return errs.Validationf("email %s is already registered", u.Email)
	}

	u.CreatedAt = time.Now()
	res, err := s.col.InsertOne(ctx, u)
	if err != nil {
		return errs.Storage(err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = id
	}
	return nil
}

func (s *Users) ByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.col.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.NotFoundf("user %s", email)
	}
	if err != nil {
		return nil, errs.Storage(err)
	}
	return &u, nil
}
