package repository

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/emzola/bookshelf/data"
)

type tokens interface {
	CreateNewToken(ctx context.Context, userID string, ttl time.Duration, scope string) (*data.Token, error)
	DeleteToken(ctx context.Context, scope string, tokenPlaintext string) error
	DeleteAllTokensForUser(ctx context.Context, scope string, userID string) error
	DeleteExpiredTokens(ctx context.Context) (int64, error)
}

// generateToken generates a new user token.
func generateToken(userID string, ttl time.Duration, scope string) (*data.Token, error) {
	token := &data.Token{
		UserID: userID,
		Expiry: time.Now().Add(ttl).UTC(),
		Scope:  scope,
	}
	randomBytes := make([]byte, 16)
	_, err := rand.Read(randomBytes)
	if err != nil {
		return nil, err
	}
	token.Plaintext = base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)
	hash := sha256.Sum256([]byte(token.Plaintext))
	token.Hash = hash[:]
	return token, nil
}

// CreateNewToken is a shortcut method which generates and creates a new token record.
func (r *repository) CreateNewToken(ctx context.Context, userID string, ttl time.Duration, scope string) (*data.Token, error) {
	token, err := generateToken(userID, ttl, scope)
	if err != nil {
		return nil, err
	}
	err = r.createToken(ctx, token)
	return token, err
}

// createToken creates a token record.
func (r *repository) createToken(ctx context.Context, token *data.Token) error {
	query, args, err := r.dialect.Insert("tokens").Rows(goqu.Record{
		"hash":    token.Hash,
		"user_id": token.UserID,
		"expiry":  token.Expiry,
		"scope":   token.Scope,
	}).Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

// DeleteToken deletes a single token by its plaintext.
func (r *repository) DeleteToken(ctx context.Context, scope string, tokenPlaintext string) error {
	hash := sha256.Sum256([]byte(tokenPlaintext))
	query, args, err := r.dialect.Delete("tokens").
		Where(goqu.Ex{"hash": hash[:], "scope": scope}).
		Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	return r.execAffectingOne(ctx, query, args)
}

// DeleteAllTokensForUser deletes all tokens for a specific user and scope.
func (r *repository) DeleteAllTokensForUser(ctx context.Context, scope string, userID string) error {
	if userID == "" {
		return ErrRecordNotFound
	}
	query, args, err := r.dialect.Delete("tokens").
		Where(goqu.Ex{"scope": scope, "user_id": userID}).
		Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

// DeleteExpiredTokens deletes every expired token and reports how many were removed.
func (r *repository) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	query, args, err := r.dialect.Delete("tokens").
		Where(goqu.C("expiry").Lte(time.Now().UTC())).
		Prepared(true).ToSQL()
	if err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
