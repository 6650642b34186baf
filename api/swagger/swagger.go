package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Uni Enroll API",
        "description": "Semester enrollment workflow service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "Schemes", "description": "Study scheme catalog"},
        {"name": "Fees", "description": "Semester fee verification"},
        {"name": "Forms", "description": "Enrollment form workflow"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Degraded"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate a user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange a refresh token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid refresh token"}
                }
            }
        },
        "/schemes": {
            "post": {
                "tags": ["Schemes"],
                "summary": "Create scheme",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSchemeRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate scheme"}
                }
            }
        },
        "/schemes/{id}": {
            "put": {
                "tags": ["Schemes"],
                "summary": "Replace semester plans",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSchemeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Schemes"],
                "summary": "Deactivate scheme",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/schemes/subjects": {
            "get": {
                "tags": ["Schemes"],
                "summary": "List subjects offered in one semester",
                "parameters": [
                    {"name": "degree", "in": "query", "required": true, "type": "string"},
                    {"name": "session", "in": "query", "required": true, "type": "string"},
                    {"name": "semester", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/fees": {
            "post": {
                "tags": ["Fees"],
                "summary": "Submit fee verification",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitFeeRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Active submission already pending"}
                }
            }
        },
        "/fees/{id}": {
            "get": {
                "tags": ["Fees"],
                "summary": "Get fee verification",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/fees/{id}/status": {
            "patch": {
                "tags": ["Fees"],
                "summary": "Apply office decision",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FeeDecisionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Transition not allowed"}
                }
            }
        },
        "/forms": {
            "get": {
                "tags": ["Forms"],
                "summary": "List forms",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "degreeId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Forms"],
                "summary": "Open enrollment form",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OpenFormRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Open form already exists"},
                    "412": {"description": "Fee not verified"}
                }
            }
        },
        "/forms/{id}": {
            "get": {
                "tags": ["Forms"],
                "summary": "Get form",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/forms/{id}/subjects": {
            "post": {
                "tags": ["Forms"],
                "summary": "Add subjects to form",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SelectSubjectsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Credit ceiling exceeded"}
                }
            }
        },
        "/forms/{id}/submit": {
            "post": {
                "tags": ["Forms"],
                "summary": "Submit form with student signature",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SignatureRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Credit floor not met"}
                }
            }
        },
        "/forms/{id}/tutor-sign": {
            "post": {
                "tags": ["Forms"],
                "summary": "Tutor signs form",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SignatureRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Form not in a signable state"}
                }
            }
        },
        "/forms/{id}/tutor-reject": {
            "post": {
                "tags": ["Forms"],
                "summary": "Tutor rejects form",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReasonRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/forms/{id}/manager-approve": {
            "post": {
                "tags": ["Forms"],
                "summary": "Manager approves form and assigns form number",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReasonRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/forms/{id}/manager-reject": {
            "post": {
                "tags": ["Forms"],
                "summary": "Manager rejects form",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReasonRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/forms/{id}/snapshot": {
            "get": {
                "tags": ["Forms"],
                "summary": "Finalized form snapshot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Form not finalized"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "RefreshTokenRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            },
            "required": ["refresh_token"]
        },
        "SubjectInput": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "title": {"type": "string"},
                "credit_notation": {"type": "string", "example": "3(2-1)"}
            },
            "required": ["code", "title", "credit_notation"]
        },
        "SemesterPlanInput": {
            "type": "object",
            "properties": {
                "semester_number": {"type": "integer"},
                "subjects": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/SubjectInput"}
                }
            },
            "required": ["semester_number", "subjects"]
        },
        "CreateSchemeRequest": {
            "type": "object",
            "properties": {
                "degree_id": {"type": "string"},
                "session_label": {"type": "string", "example": "2026/2027"},
                "name": {"type": "string"},
                "semester_plans": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/SemesterPlanInput"}
                }
            },
            "required": ["degree_id", "session_label", "name", "semester_plans"]
        },
        "UpdateSchemeRequest": {
            "type": "object",
            "properties": {
                "semester_plans": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/SemesterPlanInput"}
                }
            },
            "required": ["semester_plans"]
        },
        "SubmitFeeRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "semester_paid_for": {"type": "integer"},
                "amount": {"type": "integer"},
                "voucher_ref": {"type": "string"}
            },
            "required": ["student_id", "semester_paid_for", "amount"]
        },
        "FeeDecisionRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["PROCESSING", "APPROVED", "REJECTED"]},
                "message": {"type": "string"}
            },
            "required": ["status"]
        },
        "OpenFormRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "degree_id": {"type": "string"},
                "session_label": {"type": "string"},
                "semester_number": {"type": "integer"},
                "section": {"type": "string"}
            },
            "required": ["student_id", "degree_id", "session_label", "semester_number"]
        },
        "AdHocSubject": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "title": {"type": "string"},
                "credit_notation": {"type": "string", "example": "2(2-0)"}
            },
            "required": ["code", "title", "credit_notation"]
        },
        "SelectSubjectsRequest": {
            "type": "object",
            "properties": {
                "subject_codes": {
                    "type": "array",
                    "items": {"type": "string"}
                },
                "extra_subjects": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/AdHocSubject"}
                }
            }
        },
        "SignatureRequest": {
            "type": "object",
            "properties": {
                "signature": {"type": "string"}
            },
            "required": ["signature"]
        },
        "ReasonRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"},
                "notes": {"type": "string"}
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
