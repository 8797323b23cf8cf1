package api

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
        "/health": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/api.APIResponse"}}}
            }
        },
        "/get": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json", "application/msgpack"],
                "tags": ["records"],
                "summary": "Read a record",
                "parameters": [
                    {"type": "string", "description": "Record key", "name": "key", "in": "query", "required": true},
                    {"type": "string", "description": "Comma separated field names to return", "name": "fields", "in": "query"},
                    {"type": "string", "description": "msgpack for binary-safe output", "name": "format", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.StringRecord"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/put": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json", "application/msgpack"],
                "produces": ["application/json"],
                "tags": ["records"],
                "summary": "Insert a record",
                "parameters": [
                    {"type": "string", "description": "Record key", "name": "key", "in": "query", "required": true},
                    {"type": "string", "description": "Record as a JSON object, instead of a body", "name": "value", "in": "query"},
                    {"description": "Record", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/api.StringRecord"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/update": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json", "application/msgpack"],
                "produces": ["application/json"],
                "tags": ["records"],
                "summary": "Merge fields into a record",
                "parameters": [
                    {"type": "string", "description": "Record key", "name": "key", "in": "query", "required": true},
                    {"type": "string", "description": "Fields as a JSON object, instead of a body", "name": "value", "in": "query"},
                    {"description": "Fields", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/api.StringRecord"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/del": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["records"],
                "summary": "Delete a record",
                "parameters": [
                    {"type": "string", "description": "Record key", "name": "key", "in": "query", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/api.APIResponse"}}}
            }
        },
        "/scan": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json", "application/msgpack"],
                "tags": ["records"],
                "summary": "Range scan",
                "parameters": [
                    {"type": "string", "description": "First key", "name": "key", "in": "query"},
                    {"type": "integer", "description": "Maximum number of records", "name": "limit", "in": "query", "required": true},
                    {"type": "string", "description": "Comma separated field names to return", "name": "fields", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/api.StringRecord"}}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "api.APIResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {"type": "string"},
                "success": {"type": "boolean"}
            }
        },
        "api.StringRecord": {
            "type": "object",
            "additionalProperties": {"type": "string"}
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "X-API-Key", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "recordkv HTTP API",
	Description:      "Record-level access (read, insert, update, delete, scan) over a recordkv store.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
