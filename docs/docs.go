// Package docs serves the OpenAPI description of the admin API.
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
        "/admin/bookings/{id}": {
            "get": {
                "summary": "Get a booking from either variant table",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "400": {"$ref": "#/responses/Error"}, "404": {"$ref": "#/responses/Error"}}
            }
        },
        "/admin/bookings/{id}/mark-paid": {
            "post": {
                "summary": "Mark a booking as paid at the counter",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"$ref": "#/responses/Error"}}
            }
        },
        "/admin/bookings/{id}/slots/cancel": {
            "post": {
                "summary": "Cancel one slot and refund its share",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CancelSlotRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SlotCancelResponse"}},
                    "400": {"$ref": "#/responses/Error"},
                    "404": {"$ref": "#/responses/Error"},
                    "409": {"$ref": "#/responses/Error"},
                    "502": {"$ref": "#/responses/Error"}
                }
            }
        },
        "/admin/bookings/{id}/cancel": {
            "post": {
                "summary": "Cancel a whole booking",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/BookingCancelResponse"}},
                    "400": {"$ref": "#/responses/Error"},
                    "404": {"$ref": "#/responses/Error"},
                    "409": {"$ref": "#/responses/Error"},
                    "502": {"$ref": "#/responses/Error"}
                }
            }
        },
        "/admin/registrations/{id}/cancel": {
            "post": {
                "summary": "Cancel an event registration",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"$ref": "#/responses/Error"}, "409": {"$ref": "#/responses/Error"}, "502": {"$ref": "#/responses/Error"}}
            }
        },
        "/admin/refunds": {
            "get": {
                "summary": "List refund ledger records",
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "bookingId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "kind", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/admin/refunds/{id}": {
            "get": {
                "summary": "Get one refund record",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"$ref": "#/responses/Error"}}
            }
        },
        "/admin/refunds/{id}/sync": {
            "post": {
                "summary": "Re-poll the gateway for a PENDING refund",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"$ref": "#/responses/Error"}}
            }
        },
        "/admin/memberships/{userId}/credits": {
            "get": {
                "summary": "Remaining membership credits",
                "parameters": [{"name": "userId", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"$ref": "#/responses/Error"}}
            }
        }
    },
    "definitions": {
        "CancelSlotRequest": {
            "type": "object",
            "properties": {
                "slotIndex": {"type": "integer", "minimum": 0},
                "courtId": {"type": "string"},
                "start": {"type": "string"},
                "end": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "SlotCancelResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"},
                "action": {"type": "string"},
                "refunded": {"type": "number"},
                "currency": {"type": "string"},
                "refundStatus": {"type": "string"}
            }
        },
        "BookingCancelResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"},
                "deletedId": {"type": "string"},
                "refunded": {"type": "number"},
                "currency": {"type": "string"},
                "refundStatus": {"type": "string"}
            }
        },
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"},
                "error": {"type": "string"},
                "code": {"type": "string"},
                "upstreamStatus": {"type": "integer"},
                "details": {"type": "object"}
            }
        }
    },
    "responses": {
        "Error": {"description": "Classified failure", "schema": {"$ref": "#/definitions/ErrorResponse"}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Kreede Ops Console API",
	Description:      "Booking cancellation and refund reconciliation for the facility admin console.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
