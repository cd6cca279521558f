package crons

import (
	"github.com/robfig/cron"
	"github.com/rs/zerolog/log"

	"github.com/qgatssdev/nika/config"
	"github.com/qgatssdev/nika/queries"
)

var cronService *cron.Cron

// Start Initiate the crons based on the given configuration file
func Start(crons config.Crons, repo queries.Store) {
	cronService = cron.New()
	for id, schedule := range crons {
		callback := GetCronByID(id, repo)
		if err := cronService.AddFunc(schedule, callback); err != nil {
			log.Error().Err(err).Str("section", "crons").Str("cron", id).Str("schedule", schedule).Msg("Unable to schedule cron")
			continue
		}
		// call the caching functions at least once at startup to init caching
		callback()
	}
	cronService.Start()
}

// GetCronByID get a function to execute based on the id
func GetCronByID(id string, repo queries.Store) func() {
	switch id {
	case "update_user_referrals_cache":
		return func() {
			CronUpdateUserReferralsCache(repo)
		}
	}
	return func() {}
}

// Close godoc
func Close() {
	if cronService != nil {
		cronService.Stop()
	}
}
