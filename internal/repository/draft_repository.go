package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"exercise-service/internal/exercise"

	"github.com/redis/go-redis/v9"
)

const draftKeyPrefix = "exercise:draft:"

// DraftRepository keeps in-progress drafts in redis as JSON with a sliding TTL.
type DraftRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDraftRepository(client *redis.Client, ttl time.Duration) *DraftRepository {
	return &DraftRepository{client: client, ttl: ttl}
}

func draftKey(id string) string {
	return draftKeyPrefix + id
}

func (r *DraftRepository) Save(ctx context.Context, d *exercise.Draft) error {
	val, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("error encoding draft: %w", err)
	}
	if err := r.client.Set(ctx, draftKey(d.ID), val, r.ttl).Err(); err != nil {
		return fmt.Errorf("error saving draft to cache: %w", err)
	}
	return nil
}

func (r *DraftRepository) Get(ctx context.Context, id string) (*exercise.Draft, error) {
	raw, err := r.client.Get(ctx, draftKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error get draft in cache: %w", err)
	}

	var d exercise.Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("error decoding draft: %w", err)
	}
	return &d, nil
}

func (r *DraftRepository) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, draftKey(id)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
