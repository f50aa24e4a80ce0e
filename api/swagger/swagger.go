package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Student Affairs API",
        "description": "Leave approvals, security gate logging and course enrollment guard",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Leaves", "description": "Student leave requests and mentor approval"},
        {"name": "Parent", "description": "Tokenised parent consent links"},
        {"name": "Security", "description": "Campus gate exit and entry"},
        {"name": "Enrollment", "description": "Section selection with change limits"},
        {"name": "Settings", "description": "Administrator feature toggles"}
    ],
    "paths": {
        "/leaves/apply": {
            "post": {
                "tags": ["Leaves"],
                "summary": "Apply for leave",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/ApplyLeaveRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Feature disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/leaves/student": {
            "get": {
                "tags": ["Leaves"],
                "summary": "List the caller's leave requests",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/leaves/{id}": {
            "put": {
                "tags": ["Leaves"],
                "summary": "Edit a pending leave request",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/ApplyLeaveRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already processed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Leaves"],
                "summary": "Withdraw a pending leave request",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/leaves/mentor": {
            "get": {
                "tags": ["Leaves"],
                "summary": "List parent-approved requests awaiting the mentor",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/leaves/mentor-action/{id}": {
            "post": {
                "tags": ["Leaves"],
                "summary": "Approve or reject a leave request",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/MentorActionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Parent approval required or already processed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/leaves/{id}/generate-otp": {
            "post": {
                "tags": ["Leaves"],
                "summary": "Issue a one-time approval code",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Code outstanding", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/leaves/{id}/verify-otp": {
            "post": {
                "tags": ["Leaves"],
                "summary": "Approve with a one-time code",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/VerifyOTPRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid or expired code", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/leaves/{id}/pass": {
            "get": {
                "tags": ["Leaves"],
                "summary": "Download the gate pass PDF",
                "produces": ["application/pdf"],
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"200": {"description": "PDF"}}
            }
        },
        "/leaves/{id}/pass-link": {
            "post": {
                "tags": ["Leaves"],
                "summary": "Create a signed, expiring gate pass link",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/passes/{token}": {
            "get": {
                "tags": ["Leaves"],
                "summary": "Download a gate pass through a signed link",
                "produces": ["application/pdf"],
                "parameters": [{"in": "path", "name": "token", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "PDF"},
                    "410": {"description": "Link invalid or expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/leaves/parent-view/{token}": {
            "get": {
                "tags": ["Parent"],
                "summary": "View a leave request awaiting parent consent",
                "parameters": [{"in": "path", "name": "token", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "410": {"description": "Token invalid or consumed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/leaves/parent-action/{token}": {
            "post": {
                "tags": ["Parent"],
                "summary": "Approve or reject as parent",
                "parameters": [
                    {"in": "path", "name": "token", "type": "string", "required": true},
                    {"in": "query", "name": "action", "type": "string", "enum": ["approve", "reject"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "410": {"description": "Token invalid or consumed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/leaves/security/active/{rollNumber}": {
            "get": {
                "tags": ["Security"],
                "summary": "Show the approved leave active today",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "rollNumber", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No active leave", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/leaves/security/roll/{rollNumber}/exit": {
            "post": {
                "tags": ["Security"],
                "summary": "Record a student leaving campus",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "rollNumber", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/leaves/security/roll/{rollNumber}/entry": {
            "post": {
                "tags": ["Security"],
                "summary": "Record a student returning to campus",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "rollNumber", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/leaves/security/{id}/action": {
            "post": {
                "tags": ["Security"],
                "summary": "Record a gate action by leave id",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/SecurityActionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/enroll": {
            "post": {
                "tags": ["Enrollment"],
                "summary": "Enroll in or change a section",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/EnrollRequest"}}
                ],
                "responses": {
                    "200": {"description": "Section changed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Enrolled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Change limit exceeded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "429": {"description": "Change frozen", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/enrollments/student": {
            "get": {
                "tags": ["Enrollment"],
                "summary": "List the caller's enrollments",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/courses/sections/{id}/enrollments": {
            "get": {
                "tags": ["Enrollment"],
                "summary": "List a section roster",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/settings": {
            "get": {
                "tags": ["Settings"],
                "summary": "List feature toggles",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/settings/{key}": {
            "get": {
                "tags": ["Settings"],
                "summary": "Read a feature toggle",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "key", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Settings"],
                "summary": "Update a feature toggle",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "key", "type": "string", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSettingRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "ApplyLeaveRequest": {
            "type": "object",
            "required": ["leave_type", "from_date", "to_date", "reason", "parent_email"],
            "properties": {
                "leave_type": {"type": "string"},
                "from_date": {"type": "string", "format": "date"},
                "to_date": {"type": "string", "format": "date"},
                "reason": {"type": "string"},
                "parent_email": {"type": "string", "format": "email"}
            }
        },
        "MentorActionRequest": {
            "type": "object",
            "required": ["action"],
            "properties": {
                "action": {"type": "string", "enum": ["approve", "reject"]},
                "remarks": {"type": "string"}
            }
        },
        "VerifyOTPRequest": {
            "type": "object",
            "required": ["otp"],
            "properties": {
                "otp": {"type": "string"},
                "remarks": {"type": "string"}
            }
        },
        "SecurityActionRequest": {
            "type": "object",
            "required": ["action"],
            "properties": {"action": {"type": "string", "enum": ["EXIT", "ENTRY"]}}
        },
        "EnrollRequest": {
            "type": "object",
            "required": ["section_id"],
            "properties": {"section_id": {"type": "string"}}
        },
        "UpdateSettingRequest": {
            "type": "object",
            "required": ["value"],
            "properties": {"value": {"type": "string"}}
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
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
