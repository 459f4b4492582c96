package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mrd0ll4r/kaleidoscope/internal/api/models"
)

type programInput struct {
	Fixture string `path:"fixture"`
	Program string `path:"program"`
}

func (s *Server) registerProgramRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-programs",
		Method:      http.MethodGet,
		Path:        "/api/v1/fixtures/{fixture}/programs",
		Summary:     "List a fixture's programs",
		Tags:        []string{"programs"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(_ context.Context, in *fixtureInput) (*models.ProgramListResponse, error) {
		programs, err := s.control.ListPrograms(in.Fixture)
		if err != nil {
			return nil, notFoundError(err)
		}
		out := make([]models.ProgramMetadata, len(programs))
		for i, p := range programs {
			out[i] = convertProgram(p)
		}
		return &models.ProgramListResponse{Body: models.ProgramListData{Programs: out}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-program",
		Method:      http.MethodGet,
		Path:        "/api/v1/fixtures/{fixture}/programs/{program}",
		Summary:     "Get one program",
		Tags:        []string{"programs"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(_ context.Context, in *programInput) (*models.ProgramResponse, error) {
		meta, err := s.control.GetProgram(in.Fixture, in.Program)
		if err != nil {
			return nil, notFoundError(err)
		}
		return &models.ProgramResponse{Body: convertProgram(meta)}, nil
	})
}
