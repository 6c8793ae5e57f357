package devserver

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/lineasoftware/boredom/internal/build"
)

// HealthResponse reports that the dev server is up
type HealthResponse struct {
	Body struct {
		Status  string `json:"status" example:"ok" doc:"Service status"`
		Message string `json:"message,omitempty" example:"Boredom Engine dev server is running" doc:"Status message"`
		Version string `json:"version,omitempty" example:"0.1.0" doc:"Project version"`
	}
}

// ScriptInfo describes one analyzed script
type ScriptInfo struct {
	ID          string `json:"id" example:"com/reddit/hide.ts" doc:"Registry id, the path under the scripts root"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
	Type        string `json:"type" enum:"site,generic"`
	Host        string `json:"host,omitempty" example:"reddit.com" doc:"Host the script applies to, empty for generic scripts"`
}

// ScriptsResponse lists the analyzed scripts
type ScriptsResponse struct {
	Body struct {
		Scripts []ScriptInfo `json:"scripts"`
	}
}

// BuildStatusResponse wraps the last build status
type BuildStatusResponse struct {
	Body build.Status
}

// BuildInput selects the adapter of a triggered build
type BuildInput struct {
	Adapter string `query:"adapter" enum:"tampermonkey,plain" doc:"Build adapter, defaults to the one dev mode runs"`
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health Check",
		Description: "Check if the dev server is running",
		Tags:        []string{"Health"},
	}, func(ctx context.Context, input *struct{}) (*HealthResponse, error) {
		resp := &HealthResponse{}
		resp.Body.Status = "ok"
		resp.Body.Message = s.opts.Name + " dev server is running"
		resp.Body.Version = s.opts.Version
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-scripts",
		Method:      http.MethodGet,
		Path:        "/api/scripts",
		Summary:     "List scripts",
		Description: "Analyze the scripts root and list every script with its metadata",
		Tags:        []string{"Scripts"},
	}, func(ctx context.Context, input *struct{}) (*ScriptsResponse, error) {
		analysis, err := s.builder.Analyze()
		if err != nil {
			return nil, huma.Error422UnprocessableEntity("script analysis failed", err)
		}

		resp := &ScriptsResponse{}
		resp.Body.Scripts = make([]ScriptInfo, 0, len(analysis.Scripts))
		for _, script := range analysis.Scripts {
			resp.Body.Scripts = append(resp.Body.Scripts, ScriptInfo{
				ID:          script.ID,
				Name:        script.Metadata.Name,
				Description: script.Metadata.Description,
				Version:     script.Metadata.Version,
				Type:        string(script.Type),
				Host:        script.Match.Host,
			})
		}
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-build",
		Method:      http.MethodGet,
		Path:        "/api/build",
		Summary:     "Build status",
		Description: "Status of the most recent build",
		Tags:        []string{"Build"},
	}, func(ctx context.Context, input *struct{}) (*BuildStatusResponse, error) {
		return &BuildStatusResponse{Body: s.builder.Status()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "trigger-build",
		Method:      http.MethodPost,
		Path:        "/api/build",
		Summary:     "Trigger build",
		Description: "Rebuild the project and return the resulting status. A failed build is reported in the status, not as an HTTP error.",
		Tags:        []string{"Build"},
	}, func(ctx context.Context, input *BuildInput) (*BuildStatusResponse, error) {
		adapter := input.Adapter
		if adapter == "" {
			adapter = s.opts.Adapter
		}

		if _, err := s.builder.Build(ctx, build.Options{Adapter: adapter}); err != nil && s.opts.Logger != nil {
			s.opts.Logger.Error("❌ Build failed", "err", err)
		}
		return &BuildStatusResponse{Body: s.builder.Status()}, nil
	})
}
