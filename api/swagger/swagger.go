package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Deens Academy Timetable API",
        "description": "Class timetable management for teachers and students",
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
        {"name": "Authentication", "description": "Account registration and sessions"},
        {"name": "Teachers", "description": "Teacher profile and lifecycle"},
        {"name": "Subjects", "description": "Per-section subject registry"},
        {"name": "Timetable", "description": "Weekly day/period grid"},
        {"name": "Registrations", "description": "Student class registration"},
        {"name": "Notifications", "description": "Change log and email drain"},
        {"name": "Exports", "description": "Timetable exports"}
    ],
    "paths": {
        "/auth/register/teacher": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register a teacher",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterTeacherRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate section, handle or email", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/register/student": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register a student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate by email or login handle",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Rotate a refresh token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Revoke the current session",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/teachers/me": {
            "get": {
                "tags": ["Teachers"],
                "summary": "Current teacher profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Teachers"],
                "summary": "Remove teacher and owned data",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "No Content"},
                    "500": {"description": "Partial cascade failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/subjects": {
            "get": {
                "tags": ["Subjects"],
                "summary": "List subjects of own class section",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Subjects"],
                "summary": "Add a subject",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddSubjectRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate name", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/subjects/{id}": {
            "delete": {
                "tags": ["Subjects"],
                "summary": "Delete a subject and its timetable cells",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/timetable": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Get own weekly grid",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Timetable"],
                "summary": "Replace the whole grid",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkSaveRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/timetable/cell": {
            "put": {
                "tags": ["Timetable"],
                "summary": "Assign a subject to a slot",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetCellRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            },
            "delete": {
                "tags": ["Timetable"],
                "summary": "Clear a slot",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "day", "in": "query", "required": true, "type": "integer"},
                    {"name": "period", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/classes": {
            "get": {
                "tags": ["Registrations"],
                "summary": "List available classes",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{section}/timetable": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Get a class section's weekly grid",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "section", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{section}/timetable/export": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export a class section's timetable",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "section", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["pdf", "csv"]}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/registrations": {
            "get": {
                "tags": ["Registrations"],
                "summary": "List own registrations",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Registrations"],
                "summary": "Register for a class",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already registered", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/registrations/{section}": {
            "delete": {
                "tags": ["Registrations"],
                "summary": "Unregister from a class",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "section", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/notifications/changes": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List timetable changes",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/notifications/pending": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List queued notifications",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/notifications/drain": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Drain the notification queue",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "RegisterTeacherRequest": {
            "type": "object",
            "required": ["email", "password", "confirm_password", "display_name", "class_section", "login_handle"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "confirm_password": {"type": "string"},
                "display_name": {"type": "string"},
                "class_section": {"type": "string"},
                "login_handle": {"type": "string"}
            }
        },
        "RegisterStudentRequest": {
            "type": "object",
            "required": ["email", "password", "confirm_password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "confirm_password": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["login", "password"],
            "properties": {
                "login": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "AddSubjectRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"}
            }
        },
        "SetCellRequest": {
            "type": "object",
            "required": ["day", "period", "subject_id"],
            "properties": {
                "day": {"type": "integer", "minimum": 1, "maximum": 5},
                "period": {"type": "integer", "minimum": 1, "maximum": 8},
                "subject_id": {"type": "string"}
            }
        },
        "BulkSaveRequest": {
            "type": "object",
            "properties": {
                "cells": {"type": "array", "items": {"$ref": "#/definitions/SetCellRequest"}}
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
