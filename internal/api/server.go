// Package api implements the control surface's REST boundary (spec §6),
// built on huma v2 over the standard library mux exactly as the teacher's
// server.go does, with basic auth and CORS middleware retained from the
// teacher's wiring.
package api

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/mrd0ll4r/kaleidoscope/internal/api/models"
	"github.com/mrd0ll4r/kaleidoscope/internal/control"
)

// maxBodyBytes enforces the 1024-byte request body limit spec §6 requires.
const maxBodyBytes = 1024

// Options configures the server's auth and listen behavior.
type Options struct {
	AuthUsername string
	AuthPassword string
	ListenAddr   string
}

// Server is the control surface's HTTP server.
type Server struct {
	api     huma.API
	mux     *http.ServeMux
	control *control.Adapter
	options *Options
}

// NewServer creates a control surface server backed by ctl.
func NewServer(ctl *control.Adapter, opts *Options) *Server {
	mux := http.NewServeMux()

	corsConfig := DefaultCORSConfig()
	AddCORSHandler(mux, corsConfig)

	config := huma.DefaultConfig("Kaleidoscope Control API", "1.0.0")
	config.Info.Description = "Control surface for fixtures, programs, and parameters"
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"basicAuth": {Type: "http", Scheme: "basic"},
	}

	humaAPI := humago.New(mux, config)

	s := &Server{api: humaAPI, mux: mux, control: ctl, options: opts}

	humaAPI.UseMiddleware(NewCORSMiddleware(corsConfig))
	humaAPI.UseMiddleware(HTTPLoggingMiddleware)
	if opts.AuthUsername != "" && opts.AuthPassword != "" {
		humaAPI.UseMiddleware(s.basicAuthMiddleware(opts.AuthUsername, opts.AuthPassword))
	}

	s.registerRoutes()
	return s
}

// GetMux returns the underlying HTTP ServeMux.
func (s *Server) GetMux() *http.ServeMux { return s.mux }

// Start serves the control surface on addr.
func (s *Server) Start(addr string) error {
	return http.ListenAndServe(addr, s.mux)
}

func withAuth() []map[string][]string {
	return []map[string][]string{{"basicAuth": {}}}
}

// basicAuthMiddleware mirrors the teacher's server.go basic-auth
// middleware, skipping operations with no declared security requirement.
func (s *Server) basicAuthMiddleware(username, password string) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		op := ctx.Operation()
		if op != nil && len(op.Security) == 0 {
			next(ctx)
			return
		}

		authHeader := ctx.Header("Authorization")
		const prefix = "Basic "
		if !strings.HasPrefix(authHeader, prefix) {
			ctx.SetHeader("WWW-Authenticate", `Basic realm="Kaleidoscope API"`)
			huma.WriteErr(s.api, ctx, http.StatusUnauthorized, "authentication required")
			return
		}

		decoded, err := base64.StdEncoding.DecodeString(authHeader[len(prefix):])
		if err != nil {
			ctx.SetHeader("WWW-Authenticate", `Basic realm="Kaleidoscope API"`)
			huma.WriteErr(s.api, ctx, http.StatusUnauthorized, "invalid credentials format", err)
			return
		}

		parts := strings.SplitN(string(decoded), ":", 2)
		if len(parts) != 2 || parts[0] != username || parts[1] != password {
			ctx.SetHeader("WWW-Authenticate", `Basic realm="Kaleidoscope API"`)
			huma.WriteErr(s.api, ctx, http.StatusUnauthorized, "invalid credentials")
			return
		}

		next(ctx)
	}
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Tags:        []string{"health"},
		Security:    []map[string][]string{},
	}, func(_ context.Context, _ *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{Body: models.HealthData{Status: "ok", Message: "API is healthy"}}, nil
	})

	s.registerFixtureRoutes()
	s.registerProgramRoutes()
	s.registerParameterRoutes()
}

func notFoundError(err error) error {
	if err == control.ErrNotFound {
		return huma.Error404NotFound(err.Error())
	}
	return huma.Error400BadRequest(err.Error())
}

func badRequestError(err error) error {
	return huma.Error400BadRequest(err.Error())
}

func convertFixture(m control.FixtureMetadata) models.FixtureMetadata {
	return models.FixtureMetadata{Name: m.Name, ActiveProgram: m.ActiveProgram, Programs: m.Programs}
}

func convertProgram(m control.ProgramMetadata) models.ProgramMetadata {
	return models.ProgramMetadata{Name: m.Name, Parameters: m.Parameters}
}

func convertParameter(p control.ProgramParameter) models.ProgramParameter {
	out := models.ProgramParameter{Name: p.Name}
	if p.Continuous != nil {
		out.Continuous = &models.ContinuousValue{Lower: p.Continuous.Lower, Upper: p.Continuous.Upper, Current: p.Continuous.Current}
	}
	if p.Discrete != nil {
		out.Discrete = &models.DiscreteValue{Levels: p.Discrete.Levels, Current: p.Discrete.Current}
	}
	return out
}
