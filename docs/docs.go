// Package docs registers the OpenAPI document served at /api/v1/swagger.json.
// Regenerate with: swag init -g main.go -o docs
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
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/api/v1/health": {"get": {"tags": ["Health"], "summary": "Health Check", "responses": {"200": {"description": "Service is healthy"}}}},
        "/api/v1/auth/register": {"post": {"tags": ["Authentication"], "summary": "Register", "responses": {"201": {"description": "Account created"}, "409": {"description": "Username or email already exists"}}}},
        "/api/v1/auth/captcha": {"get": {"tags": ["Authentication"], "summary": "Login captcha", "responses": {"200": {"description": "Challenge created"}, "503": {"description": "Captcha disabled"}}}},
        "/api/v1/auth/login": {"post": {"tags": ["Authentication"], "summary": "Login", "responses": {"200": {"description": "Login successful"}, "401": {"description": "Invalid credentials"}}}},
        "/api/v1/auth/refresh": {"post": {"tags": ["Authentication"], "summary": "Refresh session", "responses": {"200": {"description": "Session refreshed"}, "401": {"description": "Invalid refresh token"}}}},
        "/api/v1/auth/logout": {"post": {"tags": ["Authentication"], "summary": "Logout", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Logged out"}}}},
        "/api/v1/verification/code": {"post": {"tags": ["Verification"], "summary": "Request verification code", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Code sent"}, "429": {"description": "Requested too soon"}}}},
        "/api/v1/verification/verify": {"post": {"tags": ["Verification"], "summary": "Verify account", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Account verified"}, "400": {"description": "Invalid or expired code"}}}},
        "/api/v1/profile": {
            "get": {"tags": ["Profile"], "summary": "Get own profile", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Profile retrieved successfully"}}},
            "put": {"tags": ["Profile"], "summary": "Update own profile", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Profile updated successfully"}}}
        },
        "/api/v1/profile/picture": {"post": {"tags": ["Profile"], "summary": "Upload profile picture", "security": [{"BearerAuth": []}], "consumes": ["multipart/form-data"], "responses": {"200": {"description": "Profile picture updated"}}}},
        "/api/v1/profile/{id}": {"get": {"tags": ["Profile"], "summary": "Get profile by id", "security": [{"BearerAuth": []}], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Profile retrieved successfully"}, "403": {"description": "Not allowed"}}}},
        "/api/v1/notifications": {"get": {"tags": ["Notifications"], "summary": "Unread notifications", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Notifications retrieved"}}}},
        "/api/v1/notifications/{uuid}/read": {"post": {"tags": ["Notifications"], "summary": "Mark notification read", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "uuid", "in": "path", "required": true}], "responses": {"200": {"description": "Notification marked read"}, "404": {"description": "Notification not found"}}}},
        "/api/v1/admin/accounts": {"get": {"tags": ["Admin Accounts"], "summary": "Admin list accounts", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Accounts retrieved"}}}},
        "/api/v1/admin/accounts/export": {"get": {"tags": ["Admin Accounts"], "summary": "Admin export accounts", "security": [{"BearerAuth": []}], "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"], "responses": {"200": {"description": "XLSX file"}}}},
        "/api/v1/admin/accounts/{id}": {"put": {"tags": ["Admin Accounts"], "summary": "Admin update account", "security": [{"BearerAuth": []}], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Account updated"}, "409": {"description": "Superuser role locked"}}}},
        "/api/v1/admin/accounts/{id}/notifications": {"post": {"tags": ["Admin Accounts"], "summary": "Admin notify account", "security": [{"BearerAuth": []}], "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"201": {"description": "Notification sent"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "DTI Portal API",
	Description:      "Account registration, verification and administration for the DTI provincial portal.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
