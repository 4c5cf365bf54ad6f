// Package updater checks the release feed for newer builds and can replace
// the running executable in place.
package updater

import (
	"context"
	"fmt"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/dannystewart/starfieldsaver/global"
	"github.com/rs/zerolog"
)

type Updater struct {
	log zerolog.Logger
}

func New(logger zerolog.Logger) *Updater {
	return &Updater{log: logger}
}

// CheckForUpdates looks for a release newer than the running version. Any
// failure is a warning; an update check must never keep the utility from
// starting.
func (u *Updater) CheckForUpdates(ctx context.Context) (string, bool) {
	latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(global.UpdateRepo))
	if err != nil {
		u.log.Warn().Err(err).Msg("Failed to check for updates.")
		return "", false
	}
	if !found || latest.LessOrEqual(global.Version) {
		u.log.Info().Msg("You have the latest version.")
		return "", false
	}

	u.log.Info().Msgf("New version %s available! Run with --update to install it.", latest.Version())
	return latest.Version(), true
}

// Update replaces the running executable with the latest release.
func (u *Updater) Update(ctx context.Context) error {
	release, err := selfupdate.UpdateSelf(ctx, global.Version, selfupdate.ParseSlug(global.UpdateRepo))
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	u.log.Info().Msgf("Updated to version %s. Restart the application.", release.Version())
	return nil
}
