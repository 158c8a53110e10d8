// Package docs serves the OpenAPI description of the back-office ledger API.
// Regenerate with `swag init -g cmd/server/main.go` after changing handler
// annotations.
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
        "/journal-entries": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Journal"], "summary": "List journal entries", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["Journal"], "summary": "Create journal entry", "responses": {"201": {"description": "Created"}, "422": {"description": "Unbalanced or invalid lines"}}}
        },
        "/journal-entries/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Journal"], "summary": "Get journal entry", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["Journal"], "summary": "Update draft journal entry", "responses": {"200": {"description": "OK"}, "409": {"description": "Entry is not a draft"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["Journal"], "summary": "Delete draft journal entry", "responses": {"204": {"description": "No Content"}, "409": {"description": "Entry is not a draft"}}}
        },
        "/journal-entries/{id}/post": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Journal"], "summary": "Post journal entry", "responses": {"200": {"description": "OK"}, "409": {"description": "Already posted"}}}
        },
        "/journal-entries/{id}/reverse": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Journal"], "summary": "Reverse journal entry", "responses": {"201": {"description": "Created"}, "409": {"description": "Not posted"}}}
        },
        "/accounts/{accountId}/ledger": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Reports"], "summary": "Account ledger", "responses": {"200": {"description": "OK"}}}
        },
        "/accounts/{accountId}/balance": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Reports"], "summary": "Account balance", "responses": {"200": {"description": "OK"}}}
        },
        "/reports/trial-balance": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Reports"], "summary": "Trial balance", "responses": {"200": {"description": "OK"}}}
        },
        "/cash": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Cash"], "summary": "Cash on hand", "responses": {"200": {"description": "OK"}}}
        },
        "/cash/transactions": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Cash"], "summary": "Cash transaction history", "responses": {"200": {"description": "OK"}}}
        },
        "/cash/adjustments": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Cash"], "summary": "Adjust cash on hand", "responses": {"201": {"description": "Created"}}}
        },
        "/cash/reversals": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Cash"], "summary": "Reverse cash movements of a source", "responses": {"201": {"description": "Created"}, "204": {"description": "Nothing to reverse"}}}
        },
        "/cash/reset": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Cash"], "summary": "Reset cash ledger", "responses": {"204": {"description": "No Content"}, "403": {"description": "Forbidden"}}}
        },
        "/events/expenses": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Events"], "summary": "Expense recorded", "responses": {"202": {"description": "Accepted"}}}
        },
        "/events/purchase-invoices": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Events"], "summary": "Purchase invoice recorded", "responses": {"202": {"description": "Accepted"}}}
        },
        "/events/invoice-payments": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Events"], "summary": "Invoice payment recorded", "responses": {"202": {"description": "Accepted"}}}
        },
        "/events/reimbursements": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Events"], "summary": "Reimbursement settled", "responses": {"202": {"description": "Accepted"}}}
        },
        "/events/daily-revenue": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Events"], "summary": "Daily revenue recorded", "responses": {"202": {"description": "Accepted"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Retail Back-Office Ledger API",
	Description:      "Journal entries, account reports and the store cash ledger",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
