package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "description": "MotelHub venue directory API",
        "title": "MotelHub API",
        "version": "1.0"
    },
    "host": "localhost:3001",
    "basePath": "/api",
    "schemes": ["http"],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Log in",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "credentials", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Login successful", "schema": {"$ref": "#/definitions/LoginResponse"}},
                    "400": {"description": "Missing fields", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/auth/check": {
            "get": {
                "tags": ["Auth"],
                "summary": "Ensure an administrator exists",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/AuthCheckResponse"}}
                }
            }
        },
        "/venues": {
            "get": {
                "tags": ["Venues"],
                "summary": "List venues",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "query", "name": "q", "type": "string", "description": "Text search over names, descriptions, locations and rooms"},
                    {"in": "query", "name": "minPrice", "type": "number"},
                    {"in": "query", "name": "maxPrice", "type": "number"},
                    {"in": "query", "name": "amenities", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Venue"}}}
                }
            },
            "post": {
                "tags": ["Venues"],
                "summary": "Create a venue",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "venue", "required": true, "schema": {"$ref": "#/definitions/Venue"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Venue"}},
                    "400": {"description": "Invalid venue", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/venues/{id}": {
            "get": {
                "tags": ["Venues"],
                "summary": "Get a venue",
                "produces": ["application/json"],
                "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Venue"}},
                    "404": {"description": "Venue not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "put": {
                "tags": ["Venues"],
                "summary": "Update the fields present in the body",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "integer", "required": true},
                    {"in": "body", "name": "venue", "required": true, "schema": {"$ref": "#/definitions/Venue"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Venue"}},
                    "404": {"description": "Venue not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["Venues"],
                "summary": "Delete a venue and its rooms",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}],
                "responses": {
                    "200": {"description": "Venue deleted successfully", "schema": {"$ref": "#/definitions/MessageResponse"}},
                    "404": {"description": "Venue not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/venues/{id}/rooms": {
            "get": {
                "tags": ["Rooms"],
                "summary": "List the rooms of a venue",
                "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Room"}}}
                }
            },
            "post": {
                "tags": ["Rooms"],
                "summary": "Add a room",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "integer", "required": true},
                    {"in": "body", "name": "room", "required": true, "schema": {"$ref": "#/definitions/Room"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Room"}},
                    "404": {"description": "Venue not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/venues/{id}/rooms/{roomId}": {
            "put": {
                "tags": ["Rooms"],
                "summary": "Update the fields present in the body",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "integer", "required": true},
                    {"in": "path", "name": "roomId", "type": "integer", "required": true},
                    {"in": "body", "name": "room", "required": true, "schema": {"$ref": "#/definitions/Room"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Room"}},
                    "404": {"description": "Venue or room not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["Rooms"],
                "summary": "Delete a room",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "integer", "required": true},
                    {"in": "path", "name": "roomId", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "Room deleted successfully", "schema": {"$ref": "#/definitions/MessageResponse"}},
                    "404": {"description": "Venue or room not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/venues/export": {
            "get": {
                "tags": ["Transfer"],
                "summary": "Download every venue as CSV or XLSX",
                "produces": ["text/csv", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [{"in": "query", "name": "format", "type": "string", "enum": ["csv", "xlsx"]}],
                "responses": {"200": {"description": "File attachment"}}
            }
        },
        "/venues/export/template": {
            "get": {
                "tags": ["Transfer"],
                "summary": "Download an import template with one example row",
                "parameters": [{"in": "query", "name": "format", "type": "string", "enum": ["csv", "xlsx"]}],
                "responses": {"200": {"description": "File attachment"}}
            }
        },
        "/venues/import": {
            "post": {
                "tags": ["Transfer"],
                "summary": "Import venues, merging by name",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [{"in": "formData", "name": "file", "type": "file", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ImportResult"}},
                    "400": {"description": "Invalid import file", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/amenities": {
            "get": {
                "tags": ["Venues"],
                "summary": "Most used amenity tags",
                "parameters": [{"in": "query", "name": "top", "type": "integer"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/settings": {
            "get": {
                "tags": ["Settings"],
                "summary": "Get the site settings",
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            },
            "put": {
                "tags": ["Settings"],
                "summary": "Merge keys into the site settings",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "body", "name": "settings", "required": true, "schema": {"type": "object"}}],
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List administrators",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/User"}}}}
            },
            "post": {
                "tags": ["Users"],
                "summary": "Create an administrator",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "body", "name": "user", "required": true, "schema": {"$ref": "#/definitions/CreateUserRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/User"}},
                    "400": {"description": "Username already in use", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/users/{id}": {
            "put": {
                "tags": ["Users"],
                "summary": "Update an administrator",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "integer", "required": true},
                    {"in": "body", "name": "user", "required": true, "schema": {"$ref": "#/definitions/CreateUserRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/User"}}}
            },
            "delete": {
                "tags": ["Users"],
                "summary": "Delete an administrator, never the last one",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}],
                "responses": {
                    "200": {"description": "User deleted successfully", "schema": {"$ref": "#/definitions/MessageResponse"}},
                    "400": {"description": "Cannot delete the last administrator", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/upload": {
            "post": {
                "tags": ["Images"],
                "summary": "Upload one image",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [{"in": "formData", "name": "image", "type": "file", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Image"}},
                    "502": {"description": "Image host failed", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/upload-multiple": {
            "post": {
                "tags": ["Images"],
                "summary": "Upload up to ten images",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [{"in": "formData", "name": "images", "type": "file", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Image"}}}
                }
            }
        },
        "/images/{publicId}": {
            "delete": {
                "tags": ["Images"],
                "summary": "Delete an image by public id",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "publicId", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "Image deleted successfully", "schema": {"$ref": "#/definitions/MessageResponse"}},
                    "404": {"description": "Image not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "Venue": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "location": {"type": "string"},
                "website": {"type": "string"},
                "phone": {"type": "string"},
                "email": {"type": "string"},
                "logo": {"type": "string"},
                "logo_id": {"type": "string"},
                "rooms": {"type": "array", "items": {"$ref": "#/definitions/Room"}}
            }
        },
        "Room": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "priceOptions": {"type": "array", "items": {"$ref": "#/definitions/PriceOption"}},
                "amenities": {"type": "array", "items": {"type": "string"}},
                "images": {"type": "array", "items": {"$ref": "#/definitions/Image"}}
            }
        },
        "PriceOption": {
            "type": "object",
            "properties": {
                "hours": {"description": "Number of hours or a label such as pernoite"},
                "price": {"type": "number"},
                "additionalInfo": {"type": "string"}
            }
        },
        "Image": {
            "type": "object",
            "properties": {
                "url": {"type": "string"},
                "public_id": {"type": "string"}
            }
        },
        "User": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "username": {"type": "string"},
                "name": {"type": "string"},
                "createdAt": {"type": "string", "format": "date-time"},
                "updatedAt": {"type": "string", "format": "date-time"}
            }
        },
        "CreateUserRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string", "example": "admin"},
                "password": {"type": "string", "example": "admin123"}
            }
        },
        "LoginResponse": {
            "type": "object",
            "properties": {
                "user": {"$ref": "#/definitions/User"},
                "message": {"type": "string"},
                "token": {"type": "string"},
                "expiresAt": {"type": "string", "format": "date-time"}
            }
        },
        "AuthCheckResponse": {
            "type": "object",
            "properties": {
                "hasUsers": {"type": "boolean"},
                "message": {"type": "string"}
            }
        },
        "ImportResult": {
            "type": "object",
            "properties": {
                "created": {"type": "integer"},
                "updated": {"type": "integer"},
                "skipped": {"type": "integer"},
                "venues": {"type": "array", "items": {"$ref": "#/definitions/Venue"}}
            }
        },
        "MessageResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "error": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header",
            "description": "Type 'Bearer' followed by a space and JWT token"
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:3001",
	BasePath:         "/api",
	Schemes:          []string{"http"},
	Title:            "MotelHub API",
	Description:      "MotelHub venue directory API",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
