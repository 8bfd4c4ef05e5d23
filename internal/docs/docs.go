// Package docs holds the OpenAPI description served at /swagger.
//
// Regenerate with:
//
//	swag init -g cmd/server/main.go -o internal/docs --parseInternal
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/users": {
            "get": {
                "description": "Returns a page of users. Supports weak ETag via If-None-Match and may return 304.",
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "List users (paginated)",
                "operationId": "listUsers",
                "parameters": [
                    {"type": "string", "description": "Return 304 if ETag matches", "name": "If-None-Match", "in": "header"},
                    {"minimum": 1, "type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"maximum": 100, "minimum": 1, "type": "integer", "default": 20, "description": "Items per page", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/handlers.ListUsersResponse"},
                        "headers": {"ETag": {"type": "string", "description": "Weak ETag for current result"}}
                    },
                    "304": {"description": "Not Modified", "schema": {"type": "string"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/apierr.Body"}}
                }
            },
            "post": {
                "description": "Creates a user. Field problems are reported in error_details.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Register a user",
                "operationId": "createUser",
                "parameters": [
                    {"description": "Create user payload", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateUserRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.User"}},
                    "400": {"description": "Validation failed or email_taken", "schema": {"$ref": "#/definitions/apierr.Body"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/apierr.Body"}}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Fetch a user",
                "operationId": "getUser",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "User ID (UUID)", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.User"}},
                    "400": {"description": "id is not a UUID", "schema": {"$ref": "#/definitions/apierr.Body"}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/apierr.Body"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/apierr.Body"}}
                }
            },
            "delete": {
                "description": "Admins may delete anyone; members only themselves.",
                "tags": ["Users"],
                "summary": "Delete a user",
                "operationId": "deleteUser",
                "parameters": [
                    {"type": "string", "description": "Acting user ID", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "string", "format": "uuid", "description": "User ID (UUID)", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content", "schema": {"type": "string"}},
                    "400": {"description": "id is not a UUID", "schema": {"$ref": "#/definitions/apierr.Body"}},
                    "401": {"description": "Missing or unknown X-User-ID", "schema": {"$ref": "#/definitions/apierr.Body"}},
                    "403": {"description": "Not allowed to delete this user", "schema": {"$ref": "#/definitions/apierr.Body"}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/apierr.Body"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/apierr.Body"}}
                }
            }
        }
    },
    "definitions": {
        "apierr.Body": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "not_found"},
                "error_description": {"type": "string", "example": "Resource not found"},
                "error_details": {"type": "array", "items": {"$ref": "#/definitions/apierr.FieldError"}}
            }
        },
        "apierr.FieldError": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "required"},
                "path": {"type": "string", "example": "email"},
                "message": {"type": "string", "example": "email is required"}
            }
        },
        "domain.User": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "name": {"type": "string"},
                "role": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "handlers.CreateUserRequest": {
            "type": "object",
            "required": ["email", "name"],
            "properties": {
                "email": {"type": "string", "example": "ada@example.com"},
                "name": {"type": "string", "maxLength": 100, "example": "Ada Lovelace"},
                "role": {"type": "string", "enum": ["member", "admin"], "example": "member"}
            }
        },
        "handlers.ListUsersResponse": {
            "type": "object",
            "properties": {
                "users": {"type": "array", "items": {"$ref": "#/definitions/domain.User"}},
                "pagination": {"$ref": "#/definitions/handlers.Pagination"}
            }
        },
        "handlers.Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"},
                "has_next": {"type": "boolean"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "REST errors demo API",
	Description:      "Users registry whose every failure is answered with the {error, error_description, error_details} envelope.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
