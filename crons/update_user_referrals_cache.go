package crons

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	cache "github.com/qgatssdev/nika/cache/user_referrals"
	"github.com/qgatssdev/nika/queries"
)

// CronUpdateUserReferralsCache reloads the referral graph into the read cache
func CronUpdateUserReferralsCache(repo queries.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	links, err := repo.ListReferrals(ctx)
	if err != nil {
		log.Error().Err(err).Str("section", "crons").Str("cron", "update_user_referrals_cache").Msg("Unable to load referrals")
		return
	}
	cache.SetAll(links)
}
