package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"exercise-service/internal/models"

	"github.com/redis/go-redis/v9"
)

const leaderboardKeyPrefix = "exercise:leaderboard:"

// LeaderboardRepository accumulates weekly XP per language in sorted sets.
type LeaderboardRepository struct {
	client *redis.Client
}

func NewLeaderboardRepository(client *redis.Client) *LeaderboardRepository {
	return &LeaderboardRepository{client: client}
}

func WeekKey(lang string, at time.Time) string {
	year, week := at.UTC().ISOWeek()
	return fmt.Sprintf("%s%s:%d-W%02d", leaderboardKeyPrefix, lang, year, week)
}

func (r *LeaderboardRepository) AddXP(ctx context.Context, lang, userID string, xp int, at time.Time) error {
	key := WeekKey(lang, at)
	pipe := r.client.TxPipeline()
	pipe.ZIncrBy(ctx, key, float64(xp), userID)
	pipe.Expire(ctx, key, 15*24*time.Hour)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *LeaderboardRepository) Top(ctx context.Context, lang string, limit int, at time.Time) ([]models.LeaderboardEntry, error) {
	zs, err := r.client.ZRevRangeWithScores(ctx, WeekKey(lang, at), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]models.LeaderboardEntry, 0, len(zs))
	for i, z := range zs {
		member, _ := z.Member.(string)
		entries = append(entries, models.LeaderboardEntry{
			Rank:   i + 1,
			UserID: member,
			XP:     int64(z.Score),
		})
	}
	return entries, nil
}

// Prune deletes every leaderboard that does not belong to the week of at.
func (r *LeaderboardRepository) Prune(ctx context.Context, at time.Time) (int, error) {
	year, week := at.UTC().ISOWeek()
	current := fmt.Sprintf(":%d-W%02d", year, week)

	deleted := 0
	iter := r.client.Scan(ctx, 0, leaderboardKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if strings.HasSuffix(key, current) {
			continue
		}
		if err := r.client.Del(ctx, key).Err(); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, iter.Err()
}
