package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "PKBM Rapor API",
        "description": "Report card aggregation, snapshot and rendering service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "Report Cards", "description": "Snapshot generation, preview and rendering"},
        {"name": "Exports", "description": "Async classroom recap exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login with email and password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current authenticated user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/report-cards/generate": {
            "post": {
                "tags": ["Report Cards"],
                "summary": "Generate one report card snapshot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Snapshot finalized"}
                }
            }
        },
        "/report-cards/generate-batch": {
            "post": {
                "tags": ["Report Cards"],
                "summary": "Generate report cards for a whole classroom",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BatchGenerateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/report-cards/preview": {
            "get": {
                "tags": ["Report Cards"],
                "summary": "Preview a generated snapshot",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string", "required": true},
                    {"name": "classroomId", "in": "query", "type": "string", "required": true},
                    {"name": "academicYearId", "in": "query", "type": "string"},
                    {"name": "semester", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not generated yet"}
                }
            }
        },
        "/report-cards/finalize": {
            "post": {
                "tags": ["Report Cards"],
                "summary": "Finalize a snapshot (one-way)",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string", "required": true},
                    {"name": "classroomId", "in": "query", "type": "string", "required": true},
                    {"name": "academicYearId", "in": "query", "type": "string"},
                    {"name": "semester", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Already finalized"}
                }
            }
        },
        "/report-cards": {
            "delete": {
                "tags": ["Report Cards"],
                "summary": "Delete a snapshot",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string", "required": true},
                    {"name": "classroomId", "in": "query", "type": "string", "required": true},
                    {"name": "academicYearId", "in": "query", "type": "string"},
                    {"name": "semester", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/report-cards/download": {
            "get": {
                "tags": ["Report Cards"],
                "summary": "Download the rendered rapor PDF",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string", "required": true},
                    {"name": "classroomId", "in": "query", "type": "string", "required": true},
                    {"name": "academicYearId", "in": "query", "type": "string"},
                    {"name": "semester", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "PDF document"}
                }
            }
        },
        "/report-cards/simulasi": {
            "get": {
                "tags": ["Report Cards"],
                "summary": "Render a rapor preview without persisting a snapshot",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string", "required": true},
                    {"name": "classroomId", "in": "query", "type": "string", "required": true},
                    {"name": "academicYearId", "in": "query", "type": "string"},
                    {"name": "semester", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "PDF document"}
                }
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a classroom recap export",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateExportRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export job status",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/download": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export via signed token",
                "parameters": [
                    {"name": "token", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Export file"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "GenerateRequest": {
            "type": "object",
            "required": ["student_id", "classroom_id", "semester"],
            "properties": {
                "student_id": {"type": "string"},
                "classroom_id": {"type": "string"},
                "academic_year_id": {"type": "string"},
                "semester": {"type": "string", "enum": ["ganjil", "genap"]},
                "force": {"type": "boolean"}
            }
        },
        "BatchGenerateRequest": {
            "type": "object",
            "required": ["classroom_id", "semester"],
            "properties": {
                "classroom_id": {"type": "string"},
                "academic_year_id": {"type": "string"},
                "semester": {"type": "string", "enum": ["ganjil", "genap"]},
                "force": {"type": "boolean"}
            }
        },
        "CreateExportRequest": {
            "type": "object",
            "required": ["classroom_id", "academic_year_id", "semester", "format"],
            "properties": {
                "classroom_id": {"type": "string"},
                "academic_year_id": {"type": "string"},
                "semester": {"type": "string", "enum": ["ganjil", "genap"]},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
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
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_items": {"type": "integer"},
                "total_pages": {"type": "integer"}
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
