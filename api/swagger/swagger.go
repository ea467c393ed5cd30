package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Teacher Records Service API",
        "description": "Registry of teacher records, ITT outcomes and QTS awards",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Auth", "description": "Client credential token issuance"},
        {"name": "Teachers", "description": "Teacher record creation and ITT outcomes"},
        {"name": "Review", "description": "Support team review queue"}
    ],
    "paths": {
        "/auth/token": {
            "post": {
                "tags": ["Auth"],
                "summary": "Issue an access token for client credentials",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/TokenRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Token issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers": {
            "post": {
                "tags": ["Teachers"],
                "security": [{"BearerAuth": []}],
                "summary": "Create a teacher record",
                "description": "Creates the teacher with an initial training record and provisional registration. Unresolved reference codes fail the request with reasons; duplicate candidates leave the record unresolved without a TRN and raise review tasks.",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateTeacherCommand"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Unresolved reference data", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/{trn}/itt-outcome": {
            "put": {
                "tags": ["Teachers"],
                "security": [{"BearerAuth": []}],
                "summary": "Set the ITT outcome for a teacher",
                "parameters": [
                    {
                        "name": "trn",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Teacher reference number"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/SetIttResultCommand"}
                    }
                ],
                "responses": {
                    "200": {"description": "Outcome applied", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Transition rejected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/review-tasks": {
            "get": {
                "tags": ["Review"],
                "security": [{"BearerAuth": []}],
                "summary": "List review tasks",
                "parameters": [
                    {"name": "category", "in": "query", "type": "string"},
                    {"name": "completed", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/review-tasks/{id}/complete": {
            "post": {
                "tags": ["Review"],
                "security": [{"BearerAuth": []}],
                "summary": "Mark a review task complete",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Completed"}
                }
            }
        },
        "/review-tasks/export": {
            "get": {
                "tags": ["Review"],
                "security": [{"BearerAuth": []}],
                "summary": "Export review tasks as CSV or PDF",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "category", "in": "query", "type": "string"},
                    {"name": "completed", "in": "query", "type": "boolean"},
                    {"name": "delivery", "in": "query", "type": "string", "enum": ["inline", "link"], "description": "link stores the file and returns a signed download URL"}
                ],
                "responses": {
                    "200": {"description": "Rendered export, or a signed download link when delivery=link"}
                }
            }
        },
        "/review-tasks/export/download": {
            "get": {
                "tags": ["Review"],
                "summary": "Download a stored export using a signed token",
                "parameters": [
                    {"name": "token", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Exported file"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "TokenRequest": {
            "type": "object",
            "required": ["client_id", "client_secret"],
            "properties": {
                "client_id": {"type": "string"},
                "client_secret": {"type": "string"}
            }
        },
        "CreateTeacherCommand": {
            "type": "object",
            "required": ["first_name", "last_name", "initial_teacher_training"],
            "properties": {
                "first_name": {"type": "string"},
                "middle_name": {"type": "string"},
                "last_name": {"type": "string"},
                "birth_date": {"type": "string", "format": "date-time"},
                "email": {"type": "string"},
                "husid": {"type": "string"},
                "slug_id": {"type": "string"},
                "initial_teacher_training": {"$ref": "#/definitions/CreateTeacherITT"},
                "qualification": {"$ref": "#/definitions/CreateTeacherQualification"}
            }
        },
        "CreateTeacherITT": {
            "type": "object",
            "required": ["provider_ukprn", "programme_type"],
            "properties": {
                "provider_ukprn": {"type": "string"},
                "programme_type": {"type": "string"},
                "subject1": {"type": "string"},
                "subject2": {"type": "string"},
                "subject3": {"type": "string"},
                "country_code": {"type": "string"},
                "age_range_from": {"type": "integer"},
                "age_range_to": {"type": "integer"},
                "start_date": {"type": "string", "format": "date-time"},
                "end_date": {"type": "string", "format": "date-time"},
                "slug_id": {"type": "string"}
            }
        },
        "CreateTeacherQualification": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "country_code": {"type": "string"},
                "subject1": {"type": "string"},
                "subject2": {"type": "string"},
                "subject3": {"type": "string"},
                "class": {"type": "string"},
                "completion_date": {"type": "string", "format": "date-time"}
            }
        },
        "SetIttResultCommand": {
            "type": "object",
            "required": ["provider_ukprn", "programme_type", "result"],
            "properties": {
                "provider_ukprn": {"type": "string"},
                "programme_type": {"type": "string"},
                "slug_id": {"type": "string"},
                "result": {"type": "string", "enum": ["in_training", "under_assessment", "pass", "fail", "withdrawn", "deferred", "deferred_for_skills_tests"]},
                "assessment_date": {"type": "string", "format": "date-time"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
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
