// Package docs は Swagger 定義。ハンドラの godoc 注釈から `swag init` で再生成する
package docs

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
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "paths": {
        "/login": {"post": {"tags": ["auth"], "summary": "Issue an access token", "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/auth.LoginRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/apperr.Envelope"}}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/apperr.Envelope"}}}}},
        "/register": {"post": {"tags": ["auth"], "summary": "Register a member", "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/apperr.Envelope"}}, "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/apperr.Envelope"}}}}},
        "/books": {"get": {"tags": ["books"], "summary": "List books", "parameters": [{"in": "query", "name": "available", "type": "boolean"}, {"in": "query", "name": "limit", "type": "integer"}, {"in": "query", "name": "offset", "type": "integer"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/apperr.Envelope"}}}}},
        "/books/{id}": {"get": {"tags": ["books"], "summary": "Get a book", "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/apperr.Envelope"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/apperr.Envelope"}}}}},
        "/admin/books": {"post": {"tags": ["books"], "summary": "Add a book to the catalog (admin)", "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/apperr.Envelope"}}}}},
        "/transactions": {"get": {"tags": ["transactions"], "summary": "List transactions (members see their own)", "parameters": [{"in": "query", "name": "status", "type": "string", "enum": ["borrowed", "returned", "overdue", "lost"]}, {"in": "query", "name": "member_id", "type": "integer"}, {"in": "query", "name": "book_id", "type": "integer"}, {"in": "query", "name": "open", "type": "boolean"}, {"in": "query", "name": "limit", "type": "integer"}, {"in": "query", "name": "offset", "type": "integer"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/apperr.Envelope"}}}}},
        "/transactions/borrow": {"post": {"tags": ["transactions"], "summary": "Borrow a book", "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/circulation.BorrowRequest"}}], "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/apperr.Envelope"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/apperr.Envelope"}}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/apperr.Envelope"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/apperr.Envelope"}}}}},
        "/transactions/{id}": {"get": {"tags": ["transactions"], "summary": "Get a transaction", "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/apperr.Envelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/apperr.Envelope"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/apperr.Envelope"}}}}},
        "/transactions/{id}/return": {"post": {"tags": ["transactions"], "summary": "Return a borrowed book", "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/apperr.Envelope"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/apperr.Envelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/apperr.Envelope"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/apperr.Envelope"}}}}},
        "/transactions/{id}/fine": {"get": {"tags": ["transactions"], "summary": "Current fine status of a transaction", "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/apperr.Envelope"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/apperr.Envelope"}}}}},
        "/admin/transactions/sweep-overdue": {"post": {"tags": ["transactions"], "summary": "Mark stored status of past-due open transactions as overdue (admin)", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/apperr.Envelope"}}}}},
        "/me/fines": {"get": {"tags": ["fines"], "summary": "List my fines", "parameters": [{"in": "query", "name": "unpaid", "type": "boolean"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/apperr.Envelope"}}}}},
        "/fines/{id}": {"get": {"tags": ["fines"], "summary": "Get a fine", "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/apperr.Envelope"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/apperr.Envelope"}}}}},
        "/admin/fines": {"get": {"tags": ["fines"], "summary": "List fines (admin)", "parameters": [{"in": "query", "name": "unpaid", "type": "boolean"}, {"in": "query", "name": "member_id", "type": "integer"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/apperr.Envelope"}}}}},
        "/admin/fines/{id}/payments": {"post": {"tags": ["fines"], "summary": "Record a fine payment (admin)", "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}, {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/fines.PaymentRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/apperr.Envelope"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/apperr.Envelope"}}, "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/apperr.Envelope"}}}}}
    },
    "definitions": {
        "apperr.ErrorBody": {"type": "object", "properties": {"code": {"type": "string"}, "details": {"type": "string"}}},
        "apperr.Envelope": {"type": "object", "properties": {"success": {"type": "boolean"}, "message": {"type": "string"}, "data": {}, "error": {"$ref": "#/definitions/apperr.ErrorBody"}}},
        "auth.LoginRequest": {"type": "object", "required": ["email", "password"], "properties": {"email": {"type": "string"}, "password": {"type": "string"}}},
        "circulation.BorrowRequest": {"type": "object", "required": ["book_id"], "properties": {"book_id": {"type": "integer"}, "notes": {"type": "string"}}},
        "fines.PaymentRequest": {"type": "object", "required": ["method"], "properties": {"amount": {"type": "string", "example": "30000"}, "method": {"type": "string", "enum": ["cash", "transfer", "e-wallet", "credit_card"]}, "notes": {"type": "string"}}}
    }
}`

// SwaggerInfo は公開時に書き換えられる項目
var SwaggerInfo = &swag.Spec{
	Version:          "2.0",
	Host:             "",
	BasePath:         "/api/v2",
	Schemes:          []string{},
	Title:            "LIBRA library API",
	Description:      "Borrow, return and fine management for the library.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
