package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Keshav-Madhav/mern-authorization/core"
)

// userDocument is the stored shape of core.User. Nullable credentials are
// omitted when unset so the partial reset token index ignores them.
type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	Name         string             `bson:"name"`
	PasswordHash string             `bson:"password"`
	IsVerified   bool               `bson:"isVerified"`

	VerificationToken          *string    `bson:"verificationToken,omitempty"`
	VerificationTokenExpiresAt *time.Time `bson:"verificationTokenExpiresAt,omitempty"`
	ResetPasswordToken         *string    `bson:"resetPasswordToken,omitempty"`
	ResetPasswordExpiresAt     *time.Time `bson:"resetPasswordExpiresAt,omitempty"`

	LastLogin time.Time `bson:"lastLogin"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func toDocument(u *core.User) (*userDocument, error) {
	doc := &userDocument{
		Email:                      u.Email,
		Name:                       u.Name,
		PasswordHash:               u.PasswordHash,
		IsVerified:                 u.IsVerified,
		VerificationToken:          u.VerificationToken,
		VerificationTokenExpiresAt: u.VerificationTokenExpiresAt,
		ResetPasswordToken:         u.ResetPasswordToken,
		ResetPasswordExpiresAt:     u.ResetPasswordExpiresAt,
		LastLogin:                  u.LastLogin,
		CreatedAt:                  u.CreatedAt,
		UpdatedAt:                  u.UpdatedAt,
	}
	if u.ID != "" {
		id, err := primitive.ObjectIDFromHex(u.ID)
		if err != nil {
			return nil, core.ErrUserNotFound
		}
		doc.ID = id
	}
	return doc, nil
}

func (d *userDocument) toUser() *core.User {
	return &core.User{
		ID:                         d.ID.Hex(),
		Email:                      d.Email,
		Name:                       d.Name,
		PasswordHash:               d.PasswordHash,
		IsVerified:                 d.IsVerified,
		VerificationToken:          d.VerificationToken,
		VerificationTokenExpiresAt: d.VerificationTokenExpiresAt,
		ResetPasswordToken:         d.ResetPasswordToken,
		ResetPasswordExpiresAt:     d.ResetPasswordExpiresAt,
		LastLogin:                  d.LastLogin,
		CreatedAt:                  d.CreatedAt,
		UpdatedAt:                  d.UpdatedAt,
	}
}

func (s *Store) CreateUser(ctx context.Context, u *core.User) error {
	u.ID = ""
	doc, err := toDocument(u)
	if err != nil {
		return err
	}

	res, err := s.users.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return core.ErrUserExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	u.ID = id.Hex()
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, core.ErrUserNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *Store) GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*core.User, error) {
	return s.findOne(ctx, resetFilter(tokenHash, now))
}

func (s *Store) VerifyUser(ctx context.Context, email, code string, now time.Time) (*core.User, error) {
	return s.findOneAndUpdate(ctx, verificationFilter(email, code, now), verifyUpdate(now))
}

func (s *Store) SetVerificationToken(ctx context.Context, id, code string, expiresAt, now time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return core.ErrUserNotFound
	}
	filter := bson.M{"_id": oid, "isVerified": false}
	return s.updateOne(ctx, filter, bson.M{"$set": bson.M{
		"verificationToken":          code,
		"verificationTokenExpiresAt": expiresAt,
		"updatedAt":                  now,
	}})
}

func (s *Store) SetResetToken(ctx context.Context, id, tokenHash string, expiresAt, now time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return core.ErrUserNotFound
	}
	return s.updateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"resetPasswordToken":     tokenHash,
		"resetPasswordExpiresAt": expiresAt,
		"updatedAt":              now,
	}})
}

func (s *Store) ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string, now time.Time) (*core.User, error) {
	return s.findOneAndUpdate(ctx, resetFilter(tokenHash, now), consumeResetUpdate(passwordHash, now))
}

func (s *Store) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return core.ErrUserNotFound
	}
	return s.updateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"lastLogin": at,
		"updatedAt": at,
	}})
}

func (s *Store) updateOne(ctx context.Context, filter, update bson.M) error {
	res, err := s.users.UpdateOne(ctx, filter, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return core.ErrUserExists
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return core.ErrUserNotFound
	}
	return nil
}

// findOneAndUpdate applies update to the first match and returns the
// record as it is after the update.
func (s *Store) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*core.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	if err := s.users.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, core.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return doc.toUser(), nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*core.User, error) {
	var doc userDocument
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, core.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return doc.toUser(), nil
}

func verificationFilter(email, token string, now time.Time) bson.M {
	return bson.M{
		"email":                      email,
		"verificationToken":          token,
		"verificationTokenExpiresAt": bson.M{"$gt": now},
	}
}

func resetFilter(tokenHash string, now time.Time) bson.M {
	return bson.M{
		"resetPasswordToken":     tokenHash,
		"resetPasswordExpiresAt": bson.M{"$gt": now},
	}
}

func verifyUpdate(now time.Time) bson.M {
	return bson.M{
		"$set":   bson.M{"isVerified": true, "updatedAt": now},
		"$unset": bson.M{"verificationToken": "", "verificationTokenExpiresAt": ""},
	}
}

func consumeResetUpdate(passwordHash string, now time.Time) bson.M {
	return bson.M{
		"$set":   bson.M{"password": passwordHash, "updatedAt": now},
		"$unset": bson.M{"resetPasswordToken": "", "resetPasswordExpiresAt": ""},
	}
}
