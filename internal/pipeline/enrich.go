package pipeline

import (
	"context"

	"aotw/internal/album"
	"aotw/internal/logging"
)

// enrich fills optional fields. Failures leave the field empty and never stop
// the submission.
func (o *Orchestrator) enrich(ctx context.Context, rec *album.Record, submitter string) {
	logger := logging.WithContext(ctx, o.logger)

	rec.Picker = submitter
	if rec.Picker == "" && o.cfg.Pickers.AssignByRotation {
		rec.Picker = o.rotation.For(rec.PickNumber)
	}

	if o.links == nil || rec.AlternateURL != "" {
		return
	}
	link, err := o.links.AppleMusicURL(ctx, rec.SourceURL)
	if err != nil {
		logging.WarnWithContext(logger, "alternate link lookup failed", "enrich_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run 'aotw enrich apple-music' later to fill the link"),
			logging.String(logging.FieldImpact, "apple_music_url left empty"),
		)
		return
	}
	rec.AlternateURL = link
}
