package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mrd0ll4r/kaleidoscope/internal/api/models"
	"github.com/mrd0ll4r/kaleidoscope/internal/control"
)

type parameterInput struct {
	Fixture   string `path:"fixture"`
	Program   string `path:"program"`
	Parameter string `path:"parameter"`
}

func (s *Server) registerParameterRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-parameters",
		Method:      http.MethodGet,
		Path:        "/api/v1/fixtures/{fixture}/programs/{program}/parameters",
		Summary:     "List a program's parameters",
		Tags:        []string{"parameters"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(_ context.Context, in *programInput) (*models.ParameterListResponse, error) {
		params, err := s.control.ListParameters(in.Fixture, in.Program)
		if err != nil {
			return nil, notFoundError(err)
		}
		out := make([]models.ProgramParameter, len(params))
		for i, p := range params {
			out[i] = convertParameter(p)
		}
		return &models.ParameterListResponse{Body: models.ParameterListData{Parameters: out}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-parameter",
		Method:      http.MethodGet,
		Path:        "/api/v1/fixtures/{fixture}/programs/{program}/parameters/{parameter}",
		Summary:     "Get one program parameter",
		Tags:        []string{"parameters"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(_ context.Context, in *parameterInput) (*models.ParameterResponse, error) {
		p, err := s.control.GetParameter(in.Fixture, in.Program, in.Parameter)
		if err != nil {
			return nil, notFoundError(err)
		}
		return &models.ParameterResponse{Body: convertParameter(p)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:  "set-parameter",
		Method:       http.MethodPost,
		Path:         "/api/v1/fixtures/{fixture}/programs/{program}/parameters/{parameter}",
		Summary:      "Set one program parameter",
		Tags:         []string{"parameters"},
		Security:     withAuth(),
		Errors:       []int{401, 400, 404},
		MaxBodyBytes: maxBodyBytes,
	}, func(_ context.Context, in *struct {
		Fixture   string `path:"fixture"`
		Program   string `path:"program"`
		Parameter string `path:"parameter"`
		Body      models.ParameterSetRequestData
	}) (*struct{}, error) {
		req := control.SetRequest{}
		if in.Body.Continuous != nil {
			req.Continuous = &struct {
				Value float64 `json:"value"`
			}{Value: in.Body.Continuous.Value}
		}
		if in.Body.Discrete != nil {
			req.Discrete = &struct {
				Level string `json:"level"`
			}{Level: in.Body.Discrete.Level}
		}
		if err := s.control.SetParameter(in.Fixture, in.Program, in.Parameter, req); err != nil {
			if err == control.ErrNotFound {
				return nil, notFoundError(err)
			}
			return nil, badRequestError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "cycle-parameter",
		Method:      http.MethodPost,
		Path:        "/api/v1/fixtures/{fixture}/programs/{program}/parameters/{parameter}/cycle",
		Summary:     "Cycle a discrete program parameter",
		Tags:        []string{"parameters"},
		Security:    withAuth(),
		Errors:      []int{401, 400, 404},
	}, func(_ context.Context, in *parameterInput) (*models.CycleParameterResponse, error) {
		level, err := s.control.CycleParameter(in.Fixture, in.Program, in.Parameter)
		if err != nil {
			if err == control.ErrNotFound {
				return nil, notFoundError(err)
			}
			return nil, badRequestError(err)
		}
		return &models.CycleParameterResponse{Body: models.CycleParameterData{Level: level}}, nil
	})
}
