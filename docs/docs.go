// Package docs holds the generated Swagger/OpenAPI specification.
// Regenerate with: swag init -g cmd/server/main.go -o docs
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "url": "https://github.com/shopfloor/backend"
        },
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/partners": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["partners"],
                "summary": "List processing partners",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["partners"],
                "summary": "Register a processing partner",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/partners/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["partners"],
                "summary": "Get a partner by ID",
                "parameters": [{"type": "string", "format": "uuid", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/outwork/moves": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["moves"],
                "summary": "List outwork moves with reconciled views",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["moves"],
                "summary": "Dispatch material to a processing partner",
                "responses": {"201": {"description": "Created"}, "422": {"description": "Validation failed"}}
            }
        },
        "/outwork/moves/{id}/receipts": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["moves"],
                "summary": "List receipts recorded against a move",
                "parameters": [{"type": "string", "format": "uuid", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["moves"],
                "summary": "Record a return receipt against a move",
                "parameters": [{"type": "string", "format": "uuid", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "422": {"description": "Over-receipt or QC outcome missing"}}
            }
        },
        "/dashboard/partners/{id}/stats": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["dashboard"],
                "summary": "Partner performance over a trailing window",
                "parameters": [{"type": "string", "format": "uuid", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/dashboard/process-summary": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["dashboard"],
                "summary": "Active move load grouped by process type",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Bearer token authentication. Format: \"Bearer {token}\"",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Shopfloor Outwork API",
	Description:      "External processing move and reconciliation backend: partner directory, outwork move ledger, receipt reconciliation, and floor dashboards.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
