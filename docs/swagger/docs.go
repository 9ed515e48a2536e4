// Package swagger registers the OpenAPI document served at /swagger/doc.json.
// Code generated by swag, then trimmed by hand. Regenerate with:
//
//	swag init -g cmd/api/main.go -o docs/swagger
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/reports": {
            "get": {
                "produces": ["application/json"],
                "tags": ["reports"],
                "summary": "List reports",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/report.Report"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            },
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["reports"],
                "summary": "Create a report",
                "parameters": [
                    {"type": "file", "name": "file", "in": "formData"},
                    {"type": "string", "name": "category", "in": "formData", "required": true},
                    {"type": "number", "name": "longitude", "in": "formData"},
                    {"type": "number", "name": "latitude", "in": "formData"},
                    {"type": "string", "name": "description", "in": "formData"},
                    {"type": "string", "name": "status", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/report.Report"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.ErrorBody"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        },
        "/reports/upload": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["reports"],
                "summary": "Create or replace a report with an image",
                "parameters": [
                    {"type": "string", "name": "report_id", "in": "formData"},
                    {"type": "file", "name": "file", "in": "formData", "required": true},
                    {"type": "string", "name": "category", "in": "formData", "required": true},
                    {"type": "number", "name": "longitude", "in": "formData"},
                    {"type": "number", "name": "latitude", "in": "formData"},
                    {"type": "string", "name": "description", "in": "formData"},
                    {"type": "string", "name": "status", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/report.Report"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.ErrorBody"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.ErrorBody"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        },
        "/reports/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["reports"],
                "summary": "Get a report",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/report.Report"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.ErrorBody"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            },
            "delete": {
                "tags": ["reports"],
                "summary": "Delete a report",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.ErrorBody"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        },
        "/reports/{id}/image-url": {
            "get": {
                "produces": ["application/json"],
                "tags": ["reports"],
                "summary": "Get a time-limited image URL",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.ErrorBody"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        }
    },
    "definitions": {
        "report.Report": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "image_url": {"type": "string"},
                "category": {"type": "string"},
                "longitude": {"type": "number"},
                "latitude": {"type": "number"},
                "description": {"type": "string"},
                "status": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "response.ErrorBody": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "0.1",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Reports API MINGAFIX",
	Description:      "API para la gestión de reportes.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
