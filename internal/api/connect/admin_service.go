package connect

import (
	"context"

	"connectrpc.com/connect"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/moodbox/internal/app/session"
	"github.com/osa030/moodbox/internal/domain/listener"
)

// AdminService implements the operator RPCs.
type AdminService struct {
	session *session.Manager
}

// NewAdminService creates a new AdminService.
func NewAdminService(session *session.Manager) *AdminService {
	return &AdminService{session: session}
}

// ReloadCatalog re-reads the catalog file through the filter chain.
func (s *AdminService) ReloadCatalog(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[ReloadCatalogResponse], error) {
	report, err := s.session.ReloadCatalog(ctx)
	if err != nil {
		return nil, toConnectError(AdminServiceReloadCatalogProcedure, err)
	}
	rejected := report.Rejected
	if rejected == nil {
		rejected = map[string]int{}
	}
	zlog.Info().Msgf("catalog reloaded by admin: %d admitted", report.Admitted)
	return connect.NewResponse(&ReloadCatalogResponse{
		Admitted: report.Admitted,
		Rejected: rejected,
	}), nil
}

// ListStrategies lists the recommendation strategies.
func (s *AdminService) ListStrategies(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[ListStrategiesResponse], error) {
	infos := s.session.Strategies()
	out := make([]Strategy, len(infos))
	for i, info := range infos {
		out[i] = Strategy{Name: info.Name, Description: info.Description, Active: info.Active}
	}
	return connect.NewResponse(&ListStrategiesResponse{Strategies: out}), nil
}

// SetStrategy switches the active recommendation strategy.
func (s *AdminService) SetStrategy(
	ctx context.Context,
	req *connect.Request[SetStrategyRequest],
) (*connect.Response[ListStrategiesResponse], error) {
	if err := s.session.SetStrategy(req.Msg.Name, req.Msg.Settings); err != nil {
		return nil, toConnectError(AdminServiceSetStrategyProcedure, err)
	}
	return s.ListStrategies(ctx, connect.NewRequest(&Empty{}))
}

// ListProfiles lists all profiles, oldest first.
func (s *AdminService) ListProfiles(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[ListProfilesResponse], error) {
	var out []Profile
	for _, p := range s.session.ListProfiles() {
		if err := s.session.ViewProfile(p.ID, func(p *listener.Profile) {
			out = append(out, newProfile(p))
		}); err != nil {
			// removed concurrently
			continue
		}
	}
	if out == nil {
		out = []Profile{}
	}
	return connect.NewResponse(&ListProfilesResponse{Profiles: out}), nil
}
