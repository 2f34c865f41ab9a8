package server

import "github.com/raysh454/linkscout/internal/model"

// AnalyzeCompetitorsRequest names the competitors to profile and the
// keywords to attribute to them.
type AnalyzeCompetitorsRequest struct {
	Domains  []string `json:"domains" example:"[\"rival.com\"]"`
	Keywords []string `json:"keywords" example:"[\"ai tools\"]"`
}

// BrokenLinksRequest asks for the dead outbound links on one domain.
type BrokenLinksRequest struct {
	Domain   string   `json:"domain" example:"resources.example"`
	Keywords []string `json:"keywords" example:"[\"seo\"]"`
}

// ResourcePagesRequest asks for resource pages matching keywords.
type ResourcePagesRequest struct {
	Keywords []string      `json:"keywords" example:"[\"ai tools\"]"`
	Filters  model.Filters `json:"filters"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"not found"`
}
