package httpapi

import (
	"net/http"
	"time"

	"log/slog"

	"github.com/organizador/platform/internal/domain"
	"github.com/organizador/platform/internal/domain/campaign"
)

// Options carries the deployment facts the tracker API reports on.
type Options struct {
	// DefaultUserID serves requests without an X-User-ID header; 0 makes
	// the header mandatory.
	DefaultUserID int64
	Backend       string
	Persistent    bool
	Now           func() time.Time
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// Register attaches the tracker API routes to the provided mux.
func Register(mux *http.ServeMux, logger *slog.Logger, services domain.Container, opts Options) {
	ident := identifier{logger: logger, users: services.Users, defaultID: opts.DefaultUserID}

	registerCategoryRoutes(mux, logger, ident, services.Categories)
	registerActivityRoutes(mux, logger, ident, services.Activities)
	registerProgressRoutes(mux, logger, ident, services.Progress)
	registerScheduleRoutes(mux, logger, ident, services.Schedules)
	registerPointsRoutes(mux, logger, ident, services.Points, services.Streaks)
	registerRewardRoutes(mux, logger, ident, services.Rewards)
	registerInsightRoutes(mux, logger, ident, services.Insights)
	registerOperationRoutes(mux, logger, ident, services, opts)
}

// RegisterCampaign attaches the campaign dashboard routes to the provided mux.
func RegisterCampaign(mux *http.ServeMux, logger *slog.Logger, service campaign.Service) {
	registerMemberRoutes(mux, logger, service)
	registerCampaignRoutes(mux, logger, service)
}
