package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/model"
)

// AccountRepository defines the account-related database operations. All
// mutating operations are single-document atomic updates; the account
// document is never read, mutated in memory, and written back, so concurrent
// logins and session touches for the same account cannot lose increments or
// session entries.
type AccountRepository interface {
	CreateAccount(ctx context.Context, account *model.Account) (*model.Account, error)
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	GetAccountByExternalID(ctx context.Context, provider, externalID string) (*model.Account, error)

	// RecordFailedLogin atomically increments the failed-attempt counter and
	// returns its new value.
	RecordFailedLogin(ctx context.Context, id string) (int, error)
	// LockAccount sets locked_until, but only if it is absent or earlier
	// than the new deadline, so concurrent failures never shorten a lock.
	LockAccount(ctx context.Context, id string, until time.Time) error
	ClearLockout(ctx context.Context, id string) error
	RecordSuccessfulLogin(ctx context.Context, id, sourceIP string, at time.Time) error

	SetRefreshToken(ctx context.Context, id, token string, expiresAt time.Time) error
	// SwapRefreshToken replaces the stored refresh token only when the stored
	// value equals oldToken. A mismatch (already rotated, revoked, or foreign
	// token) returns mongo.ErrNoDocuments.
	SwapRefreshToken(ctx context.Context, id, oldToken, newToken string, expiresAt time.Time) error
	ClearRefreshToken(ctx context.Context, id string) error

	LinkExternalIdentity(ctx context.Context, id, provider string, identity model.ExternalIdentity, markVerified bool) error
	UpdateExternalIdentityTokens(ctx context.Context, id, provider, accessToken, refreshToken string) error

	AppendSession(ctx context.Context, id string, session model.Session) error
	UpdateSession(ctx context.Context, id, sessionID, sourceIP string, at time.Time) error
	TouchSession(ctx context.Context, id, sessionID string, at time.Time) error
	RemoveSession(ctx context.Context, id, sessionID string) error
	RemoveAllSessions(ctx context.Context, id string) error
	ReplaceSessions(ctx context.Context, id string, sessions []model.Session) error
	ListAccountsWithSessions(ctx context.Context) ([]*model.Account, error)
}

const accountCollection = "accounts"

type accountMongoRepository struct {
	db *mongo.Database
}

func NewAccountMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) AccountRepository {
	collection := db.Collection(accountCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create account indexes")
	}

	return &accountMongoRepository{db: db}
}

func (r *accountMongoRepository) CreateAccount(ctx context.Context, account *model.Account) (*model.Account, error) {
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	result, err := r.db.Collection(accountCollection).InsertOne(ctx, account)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		account.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return account, nil
}

func (r *accountMongoRepository) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	return r.findOne(ctx, bson.M{"_id": objectID})
}

func (r *accountMongoRepository) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *accountMongoRepository) GetAccountByExternalID(
	ctx context.Context,
	provider, externalID string,
) (*model.Account, error) {
	return r.findOne(ctx, bson.M{"external_identities." + provider + ".external_id": externalID})
}

func (r *accountMongoRepository) RecordFailedLogin(ctx context.Context, id string) (int, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return 0, err
	}

	result := r.db.Collection(accountCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{
			"$inc": bson.M{"failed_login_attempts": 1},
			"$set": bson.M{"updated_at": time.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return 0, result.Err()
	}

	var account model.Account
	if err := result.Decode(&account); err != nil {
		return 0, err
	}

	return account.FailedLoginAttempts, nil
}

func (r *accountMongoRepository) LockAccount(ctx context.Context, id string, until time.Time) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.db.Collection(accountCollection).UpdateOne(
		ctx,
		bson.M{
			"_id": objectID,
			"$or": bson.A{
				bson.M{"locked_until": bson.M{"$exists": false}},
				bson.M{"locked_until": bson.M{"$lt": until}},
			},
		},
		bson.M{"$set": bson.M{"locked_until": until, "updated_at": time.Now()}},
	)
	return err
}

func (r *accountMongoRepository) ClearLockout(ctx context.Context, id string) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.db.Collection(accountCollection).UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{
			"$set":   bson.M{"failed_login_attempts": 0, "updated_at": time.Now()},
			"$unset": bson.M{"locked_until": ""},
		},
	)
	return err
}

func (r *accountMongoRepository) RecordSuccessfulLogin(
	ctx context.Context,
	id, sourceIP string,
	at time.Time,
) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.db.Collection(accountCollection).UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{
			"$set": bson.M{
				"failed_login_attempts": 0,
				"last_login":            at,
				"last_login_ip":         sourceIP,
				"updated_at":            at,
			},
			"$unset": bson.M{"locked_until": ""},
			"$inc":   bson.M{"login_count": 1},
		},
	)
	return err
}

func (r *accountMongoRepository) SetRefreshToken(
	ctx context.Context,
	id, token string,
	expiresAt time.Time,
) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.db.Collection(accountCollection).UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{
			"refresh_token":            token,
			"refresh_token_expires_at": expiresAt,
			"updated_at":               time.Now(),
		}},
	)
	return err
}

func (r *accountMongoRepository) SwapRefreshToken(
	ctx context.Context,
	id, oldToken, newToken string,
	expiresAt time.Time,
) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	result := r.db.Collection(accountCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID, "refresh_token": oldToken},
		bson.M{"$set": bson.M{
			"refresh_token":            newToken,
			"refresh_token_expires_at": expiresAt,
			"updated_at":               time.Now(),
		}},
	)
	return result.Err()
}

func (r *accountMongoRepository) ClearRefreshToken(ctx context.Context, id string) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.db.Collection(accountCollection).UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{
			"$unset": bson.M{"refresh_token": "", "refresh_token_expires_at": ""},
			"$set":   bson.M{"updated_at": time.Now()},
		},
	)
	return err
}

func (r *accountMongoRepository) LinkExternalIdentity(
	ctx context.Context,
	id, provider string,
	identity model.ExternalIdentity,
	markVerified bool,
) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	setMap := bson.M{
		"external_identities." + provider: identity,
		"updated_at":                      time.Now(),
	}
	if markVerified {
		setMap["email_verified"] = true
	}

	_, err = r.db.Collection(accountCollection).UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{
			"$set":      setMap,
			"$addToSet": bson.M{"linked_providers": provider},
		},
	)
	return err
}

func (r *accountMongoRepository) UpdateExternalIdentityTokens(
	ctx context.Context,
	id, provider, accessToken, refreshToken string,
) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.db.Collection(accountCollection).UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{
			"external_identities." + provider + ".access_token":  accessToken,
			"external_identities." + provider + ".refresh_token": refreshToken,
			"updated_at": time.Now(),
		}},
	)
	return err
}

func (r *accountMongoRepository) AppendSession(ctx context.Context, id string, session model.Session) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	// The filter excludes documents already holding this session id, so a
	// concurrent append of the same session cannot produce a duplicate
	// entry; the loser sees mongo.ErrNoDocuments and falls back to an
	// in-place update.
	result := r.db.Collection(accountCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID, "sessions.session_id": bson.M{"$ne": session.SessionID}},
		bson.M{
			"$push": bson.M{"sessions": session},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	return result.Err()
}

func (r *accountMongoRepository) UpdateSession(
	ctx context.Context,
	id, sessionID, sourceIP string,
	at time.Time,
) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	result := r.db.Collection(accountCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID, "sessions.session_id": sessionID},
		bson.M{"$set": bson.M{
			"sessions.$.last_activity": at,
			"sessions.$.source_ip":     sourceIP,
			"sessions.$.active":        true,
			"updated_at":               at,
		}},
	)
	return result.Err()
}

func (r *accountMongoRepository) TouchSession(ctx context.Context, id, sessionID string, at time.Time) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	result := r.db.Collection(accountCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID, "sessions.session_id": sessionID},
		bson.M{"$set": bson.M{"sessions.$.last_activity": at}},
	)
	return result.Err()
}

func (r *accountMongoRepository) RemoveSession(ctx context.Context, id, sessionID string) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	result := r.db.Collection(accountCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID, "sessions.session_id": sessionID},
		bson.M{
			"$pull": bson.M{"sessions": bson.M{"session_id": sessionID}},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	return result.Err()
}

func (r *accountMongoRepository) RemoveAllSessions(ctx context.Context, id string) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.db.Collection(accountCollection).UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"sessions": bson.A{}, "updated_at": time.Now()}},
	)
	return err
}

func (r *accountMongoRepository) ReplaceSessions(ctx context.Context, id string, sessions []model.Session) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	if sessions == nil {
		sessions = []model.Session{}
	}

	_, err = r.db.Collection(accountCollection).UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"sessions": sessions, "updated_at": time.Now()}},
	)
	return err
}

func (r *accountMongoRepository) ListAccountsWithSessions(ctx context.Context) ([]*model.Account, error) {
	cursor, err := r.db.Collection(accountCollection).Find(
		ctx,
		bson.M{"sessions.0": bson.M{"$exists": true}},
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var accounts []*model.Account
	for cursor.Next(ctx) {
		var account model.Account
		if err := cursor.Decode(&account); err != nil {
			return nil, err
		}
		accounts = append(accounts, &account)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return accounts, nil
}

func (r *accountMongoRepository) findOne(ctx context.Context, filter bson.M) (*model.Account, error) {
	result := r.db.Collection(accountCollection).FindOne(ctx, filter)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var account model.Account
	if err := result.Decode(&account); err != nil {
		return nil, err
	}

	return &account, nil
}
