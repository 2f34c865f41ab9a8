// Package docs registers the OpenAPI description served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "linkscout maintainers",
            "url": "https://github.com/raysh454/linkscout"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/scans": {
            "get": {
                "produces": ["application/json"],
                "tags": ["scans"],
                "summary": "List scan jobs",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/app.Job"}}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["scans"],
                "summary": "Start a scan",
                "parameters": [
                    {"description": "Scan configuration", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.ScanConfiguration"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/app.Job"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/scans/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["scans"],
                "summary": "Get a scan's status and SERP results",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/session.Results"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["scans"],
                "summary": "Cancel a running scan",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/scans/{id}/opportunities": {
            "get": {
                "produces": ["application/json"],
                "tags": ["scans"],
                "summary": "List a scan's competitor and resource page opportunities",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.LinkOpportunity"}}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/competitors/analyze": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["competitors"],
                "summary": "Analyze competitor backlink profiles",
                "parameters": [
                    {"description": "Domains and keywords", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.AnalyzeCompetitorsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/competitor.Result"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/competitors/{domain}/history": {
            "get": {
                "produces": ["application/json"],
                "tags": ["competitors"],
                "summary": "List stored analyses of a competitor, newest first",
                "parameters": [
                    {"type": "string", "description": "Competitor domain", "name": "domain", "in": "path", "required": true},
                    {"type": "integer", "description": "Maximum entries", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.CompetitorAnalysis"}}}
                }
            }
        },
        "/competitors/{domain}/changes": {
            "get": {
                "produces": ["application/json"],
                "tags": ["competitors"],
                "summary": "Compare a competitor's two latest analyses",
                "parameters": [
                    {"type": "string", "description": "Competitor domain", "name": "domain", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/competitor.ProfileChange"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/opportunities/broken-links": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["opportunities"],
                "summary": "Find broken link opportunities on a domain",
                "parameters": [
                    {"description": "Domain and keywords", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.BrokenLinksRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.LinkOpportunity"}}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/opportunities/resource-pages": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["opportunities"],
                "summary": "Find resource page opportunities for keywords",
                "parameters": [
                    {"description": "Keywords and filters", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.ResourcePagesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.LinkOpportunity"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "app.Job": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "keyword": {"type": "string"},
                "status": {"type": "string", "enum": ["pending", "running", "done", "failed", "canceled"]},
                "error": {"type": "string"},
                "started_at": {"type": "string"},
                "ended_at": {"type": "string"},
                "tasks": {"type": "array", "items": {"$ref": "#/definitions/app.TaskReport"}}
            }
        },
        "app.TaskReport": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "outcome": {"type": "string", "enum": ["ok", "partial", "timeout", "failed"]},
                "error": {"type": "string"},
                "opportunities": {"type": "integer"},
                "stored": {"type": "integer"},
                "missing": {"type": "integer"},
                "duration": {"type": "integer"}
            }
        },
        "model.Filters": {
            "type": "object",
            "properties": {
                "min_domain_rating": {"type": "number"},
                "max_spam_score": {"type": "number"},
                "exclude_domains": {"type": "array", "items": {"type": "string"}},
                "include_only": {"type": "array", "items": {"type": "string"}}
            }
        },
        "model.ScanConfiguration": {
            "type": "object",
            "properties": {
                "keyword": {"type": "string", "example": "ai tools"},
                "location": {"type": "string"},
                "language": {"type": "string"},
                "search_depth": {"type": "integer", "example": 20},
                "competitor_domains": {"type": "array", "items": {"type": "string"}},
                "filters": {"$ref": "#/definitions/model.Filters"},
                "analysis_depth": {"type": "string", "enum": ["basic", "detailed", "comprehensive"]}
            }
        },
        "model.LinkOpportunity": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "domain": {"type": "string"},
                "url": {"type": "string"},
                "opportunity_type": {"type": "string"},
                "priority": {"type": "string"},
                "estimated_da": {"type": "number"},
                "success_probability": {"type": "number"},
                "effort_required": {"type": "string"},
                "contact_method": {"type": "string"},
                "notes": {"type": "string"},
                "discovered_via": {"type": "string"}
            }
        },
        "model.CompetitorAnalysis": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "competitor_domain": {"type": "string"},
                "domain_rating": {"type": "number"},
                "backlink_count": {"type": "integer"},
                "referring_domains": {"type": "integer"},
                "top_keywords": {"type": "array", "items": {"type": "string"}},
                "gap_opportunities": {"type": "array", "items": {"$ref": "#/definitions/model.LinkOpportunity"}},
                "backlink_sources": {"type": "array", "items": {"type": "object"}},
                "analysis_date": {"type": "string"}
            }
        },
        "competitor.Result": {
            "type": "object",
            "properties": {
                "analyses": {"type": "array", "items": {"$ref": "#/definitions/model.CompetitorAnalysis"}},
                "opportunities": {"type": "array", "items": {"$ref": "#/definitions/model.LinkOpportunity"}},
                "failures": {"type": "array", "items": {"type": "object"}},
                "persist_failures": {"type": "array", "items": {"type": "object"}}
            }
        },
        "competitor.ProfileChange": {
            "type": "object",
            "properties": {
                "domain": {"type": "string"},
                "from": {"type": "string"},
                "to": {"type": "string"},
                "rating_delta": {"type": "number"},
                "backlink_delta": {"type": "integer"},
                "gained": {"type": "array", "items": {"type": "string"}},
                "lost": {"type": "array", "items": {"type": "string"}}
            }
        },
        "session.Results": {
            "type": "object",
            "properties": {
                "session_id": {"type": "string"},
                "status": {"type": "string", "enum": ["running", "completed", "failed"]},
                "failure_reason": {"type": "string"},
                "started_at": {"type": "string"},
                "completed_at": {"type": "string"},
                "results": {"type": "array", "items": {"type": "object"}}
            }
        },
        "server.AnalyzeCompetitorsRequest": {
            "type": "object",
            "properties": {
                "domains": {"type": "array", "items": {"type": "string"}},
                "keywords": {"type": "array", "items": {"type": "string"}}
            }
        },
        "server.BrokenLinksRequest": {
            "type": "object",
            "properties": {
                "domain": {"type": "string"},
                "keywords": {"type": "array", "items": {"type": "string"}}
            }
        },
        "server.ResourcePagesRequest": {
            "type": "object",
            "properties": {
                "keywords": {"type": "array", "items": {"type": "string"}},
                "filters": {"$ref": "#/definitions/model.Filters"}
            }
        },
        "server.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "not found"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "0.1",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "linkscout API",
	Description:      "Backlink opportunity discovery: scans, competitor gaps, broken links and resource pages.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
