package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Registration API",
        "description": "Item registration with a Pending, Approved, Rejected review workflow",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Items", "description": "Item registration"},
        {"name": "Approvals", "description": "Review workflow"},
        {"name": "Analytics", "description": "Dashboard figures and exports"},
        {"name": "Audit", "description": "Audit trail"},
        {"name": "Notifications", "description": "Notification ledger"},
        {"name": "Images", "description": "Item images"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is down"}
                }
            }
        },
        "/api/items": {
            "get": {
                "tags": ["Items"],
                "summary": "List items",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "enum": ["Pending", "Approved", "Rejected"]},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Item"}}},
                    "400": {"description": "Invalid filter", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            },
            "post": {
                "tags": ["Items"],
                "summary": "Register an item",
                "description": "JSON body, or multipart/form-data with name, description and an optional image (JPEG or PNG).",
                "consumes": ["application/json", "multipart/form-data"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateItemRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Item"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/items/status/pending": {
            "get": {
                "tags": ["Items"],
                "summary": "Items awaiting review",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Item"}}}}
            }
        },
        "/api/items/{id}": {
            "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
            "get": {
                "tags": ["Items"],
                "summary": "Get an item",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Item"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            },
            "put": {
                "tags": ["Items"],
                "summary": "Update name and description",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateItemRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Item"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            },
            "delete": {
                "tags": ["Items"],
                "summary": "Delete an item",
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/approvals/{id}/approve": {
            "post": {
                "tags": ["Approvals"],
                "summary": "Approve a pending item",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Item"}},
                    "400": {"description": "Invalid transition", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/approvals/{id}/reject": {
            "post": {
                "tags": ["Approvals"],
                "summary": "Reject a pending item",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Item"}},
                    "400": {"description": "Invalid transition", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/approvals/pending": {
            "get": {
                "tags": ["Approvals"],
                "summary": "Items awaiting review",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Item"}}}}
            }
        },
        "/api/approvals/stats": {
            "get": {
                "tags": ["Approvals"],
                "summary": "Item counts per status",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ItemStatusCounts"}}}
            }
        },
        "/api/analytics": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Item analytics",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/AnalyticsReport"}}}
            }
        },
        "/api/analytics/overview": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Headline analytics",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/AnalyticsOverview"}}}
            }
        },
        "/api/analytics/export": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Download the analytics report",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [{"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}],
                "responses": {"200": {"description": "Report file", "schema": {"type": "file"}}}
            }
        },
        "/api/audit": {
            "get": {
                "tags": ["Audit"],
                "summary": "Search audit entries",
                "parameters": [
                    {"name": "action", "in": "query", "type": "string", "enum": ["Created", "Updated", "Deleted", "Viewed", "Approved", "Rejected"]},
                    {"name": "from", "in": "query", "type": "string", "format": "date-time"},
                    {"name": "to", "in": "query", "type": "string", "format": "date-time"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/AuditLogEntry"}}}}
            },
            "post": {
                "tags": ["Audit"],
                "summary": "Log a manual audit entry",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateAuditRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/AuditLogEntry"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/audit/{itemId}": {
            "get": {
                "tags": ["Audit"],
                "summary": "Audit history of an item",
                "parameters": [
                    {"name": "itemId", "in": "path", "required": true, "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/AuditLogEntry"}}}}
            }
        },
        "/api/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "Recent notifications",
                "parameters": [{"name": "limit", "in": "query", "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/NotificationRecord"}}}}
            }
        },
        "/api/notifications/stats": {
            "get": {
                "tags": ["Notifications"],
                "summary": "Notification counts per status",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/NotificationStats"}}}
            }
        },
        "/api/notifications/send": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Queue an email notification",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SendNotificationRequest"}}],
                "responses": {
                    "202": {"description": "Accepted"},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/images/{key}": {
            "get": {
                "tags": ["Images"],
                "summary": "Redirect to a short-lived image URL",
                "parameters": [{"name": "key", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "302": {"description": "Redirect"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        }
    },
    "definitions": {
        "ErrorBody": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "code": {"type": "string", "enum": ["NOT_FOUND", "VALIDATION_ERROR", "INVALID_TRANSITION", "TOO_MANY_REQUESTS", "UNAUTHORIZED", "INTERNAL_ERROR"]}
            }
        },
        "Item": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string", "maxLength": 200},
                "description": {"type": "string", "maxLength": 1000},
                "status": {"type": "string", "enum": ["Pending", "Approved", "Rejected"]},
                "imageUrl": {"type": "string"},
                "createdAt": {"type": "string", "format": "date-time"},
                "updatedAt": {"type": "string", "format": "date-time"}
            }
        },
        "CreateItemRequest": {
            "type": "object",
            "required": ["name", "description"],
            "properties": {
                "name": {"type": "string", "maxLength": 200},
                "description": {"type": "string", "maxLength": 1000}
            }
        },
        "ItemStatusCounts": {
            "type": "object",
            "properties": {
                "pending": {"type": "integer"},
                "approved": {"type": "integer"},
                "rejected": {"type": "integer"}
            }
        },
        "AnalyticsReport": {
            "type": "object",
            "properties": {
                "totalItems": {"type": "integer"},
                "approvedItems": {"type": "integer"},
                "rejectedItems": {"type": "integer"},
                "pendingItems": {"type": "integer"},
                "successRate": {"type": "number"},
                "auditCount": {"type": "integer"},
                "queueDepth": {"type": "integer"},
                "apiResponseTime": {"type": "number"}
            }
        },
        "AnalyticsOverview": {
            "type": "object",
            "properties": {
                "totalItems": {"type": "integer"},
                "pendingApprovals": {"type": "integer"},
                "approvedThisMonth": {"type": "integer"},
                "successRate": {"type": "number"}
            }
        },
        "AuditLogEntry": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "itemId": {"type": "string"},
                "action": {"type": "string"},
                "itemName": {"type": "string"},
                "itemDescription": {"type": "string"},
                "changedBy": {"type": "string"},
                "timestamp": {"type": "string", "format": "date-time"},
                "details": {"type": "object"},
                "ipAddress": {"type": "string"},
                "userAgent": {"type": "string"},
                "partition": {"type": "string"}
            }
        },
        "CreateAuditRequest": {
            "type": "object",
            "required": ["action"],
            "properties": {
                "itemId": {"type": "string"},
                "action": {"type": "string", "enum": ["Created", "Updated", "Deleted", "Viewed", "Approved", "Rejected"]},
                "itemName": {"type": "string"},
                "itemDescription": {"type": "string"},
                "changedBy": {"type": "string"},
                "details": {"type": "object"}
            }
        },
        "NotificationRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "itemId": {"type": "integer"},
                "recipientEmail": {"type": "string"},
                "subject": {"type": "string"},
                "status": {"type": "string", "enum": ["Pending", "Sent", "Failed", "Skipped"]},
                "transport": {"type": "string"},
                "lastError": {"type": "string"},
                "timestamp": {"type": "string", "format": "date-time"},
                "updatedAt": {"type": "string", "format": "date-time"}
            }
        },
        "NotificationStats": {
            "type": "object",
            "properties": {
                "queued": {"type": "integer"},
                "sent": {"type": "integer"},
                "failed": {"type": "integer"},
                "skipped": {"type": "integer"}
            }
        },
        "SendNotificationRequest": {
            "type": "object",
            "required": ["email", "subject", "body"],
            "properties": {
                "email": {"type": "string", "format": "email"},
                "subject": {"type": "string", "maxLength": 200},
                "body": {"type": "string", "maxLength": 5000}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
