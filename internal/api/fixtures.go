package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mrd0ll4r/kaleidoscope/internal/api/models"
)

type fixtureInput struct {
	Fixture string `path:"fixture"`
}

func (s *Server) registerFixtureRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-fixtures",
		Method:      http.MethodGet,
		Path:        "/api/v1/fixtures",
		Summary:     "List fixtures",
		Tags:        []string{"fixtures"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.FixtureListResponse, error) {
		fixtures := s.control.ListFixtures()
		out := make(map[string]models.FixtureMetadata, len(fixtures))
		for name, meta := range fixtures {
			out[name] = convertFixture(meta)
		}
		return &models.FixtureListResponse{Body: models.FixtureListData{Fixtures: out}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-fixture",
		Method:      http.MethodGet,
		Path:        "/api/v1/fixtures/{fixture}",
		Summary:     "Get fixture",
		Tags:        []string{"fixtures"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(_ context.Context, in *fixtureInput) (*models.FixtureResponse, error) {
		meta, err := s.control.GetFixture(in.Fixture)
		if err != nil {
			return nil, notFoundError(err)
		}
		return &models.FixtureResponse{Body: convertFixture(meta)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:  "set-active-program",
		Method:       http.MethodPost,
		Path:         "/api/v1/fixtures/{fixture}/set_active_program",
		Summary:      "Set a fixture's active program",
		Tags:         []string{"fixtures"},
		Security:     withAuth(),
		Errors:       []int{401, 404},
		MaxBodyBytes: maxBodyBytes,
	}, func(_ context.Context, in *struct {
		Fixture string `path:"fixture"`
		RawBody []byte `contentType:"text/plain"`
	}) (*struct{}, error) {
		if err := s.control.SetActiveProgram(in.Fixture, string(in.RawBody)); err != nil {
			return nil, notFoundError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "cycle-active-program",
		Method:      http.MethodPost,
		Path:        "/api/v1/fixtures/{fixture}/cycle_active_program",
		Summary:     "Cycle a fixture's active program",
		Tags:        []string{"fixtures"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(_ context.Context, in *fixtureInput) (*models.CycleActiveProgramResponse, error) {
		name, err := s.control.CycleActiveProgram(in.Fixture)
		if err != nil {
			return nil, notFoundError(err)
		}
		return &models.CycleActiveProgramResponse{Body: models.CycleActiveProgramData{Name: name}}, nil
	})
}
