package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable Conflict API",
        "description": "Conflict detection and allocation validation for the university timetable",
        "version": "1.0.0"
    },
    "basePath": "/",
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
        {
            "name": "Timetable",
            "description": "Sessions, conflicts and allocation changes"
        },
        {
            "name": "Availability",
            "description": "Free rooms, teachers and slots"
        },
        {
            "name": "Exports",
            "description": "CSV, PDF and XLSX downloads"
        },
        {
            "name": "Metrics",
            "description": "Service instrumentation"
        }
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Liveness check",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {
                        "description": "Timetable loaded"
                    },
                    "503": {
                        "description": "Timetable not loaded"
                    }
                }
            }
        },
        "/metrics": {
            "get": {
                "summary": "Prometheus metrics",
                "produces": [
                    "text/plain"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/metrics/snapshot": {
            "get": {
                "tags": [
                    "Metrics"
                ],
                "summary": "Metrics digest",
                "parameters": [],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/timetable/sessions": {
            "get": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Search sessions",
                "parameters": [
                    {
                        "name": "q",
                        "in": "query",
                        "type": "string",
                        "required": false
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/timetable/sessions/{index}": {
            "get": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Get a session",
                "parameters": [
                    {
                        "name": "index",
                        "in": "path",
                        "type": "integer",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "put": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Apply an allocation change",
                "parameters": [
                    {
                        "name": "index",
                        "in": "path",
                        "type": "integer",
                        "required": true
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SessionPayload"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Applied",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Rejected with validation result",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/api/v1/timetable/sessions/{index}/conflicts": {
            "get": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Teacher and room clashes of one session",
                "parameters": [
                    {
                        "name": "index",
                        "in": "path",
                        "type": "integer",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/timetable/allocations/validate": {
            "post": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Validate a proposed allocation",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ValidateAllocationRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/timetable/conflicts": {
            "get": {
                "tags": [
                    "Timetable"
                ],
                "summary": "List conflicts",
                "parameters": [
                    {
                        "name": "type",
                        "in": "query",
                        "type": "string",
                        "required": false
                    },
                    {
                        "name": "severity",
                        "in": "query",
                        "type": "string",
                        "required": false
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/timetable/conflicts/summary": {
            "get": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Conflict counts by type and severity",
                "parameters": [],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/timetable/entities": {
            "get": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Teachers, rooms and groups",
                "parameters": [],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/timetable/snapshot": {
            "get": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Full timetable with conflict report",
                "parameters": [],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/timetable/reload": {
            "post": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Reload sessions from storage",
                "parameters": [],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/api/v1/timetable/availability/rooms": {
            "get": {
                "tags": [
                    "Availability"
                ],
                "summary": "Rooms free at a day and time",
                "parameters": [
                    {
                        "name": "day",
                        "in": "query",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "time",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Theory slot, lab code or time range"
                    },
                    {
                        "name": "schedule_type",
                        "in": "query",
                        "type": "string",
                        "required": false
                    },
                    {
                        "name": "exclude_index",
                        "in": "query",
                        "type": "integer",
                        "required": false
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/timetable/availability/teachers": {
            "get": {
                "tags": [
                    "Availability"
                ],
                "summary": "Teachers free at a day and time",
                "parameters": [
                    {
                        "name": "day",
                        "in": "query",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "time",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Theory slot, lab code or time range"
                    },
                    {
                        "name": "schedule_type",
                        "in": "query",
                        "type": "string",
                        "required": false
                    },
                    {
                        "name": "exclude_index",
                        "in": "query",
                        "type": "integer",
                        "required": false
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/timetable/availability/slots": {
            "get": {
                "tags": [
                    "Availability"
                ],
                "summary": "Free canonical slots on a day",
                "parameters": [
                    {
                        "name": "day",
                        "in": "query",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "schedule_type",
                        "in": "query",
                        "type": "string",
                        "required": false
                    },
                    {
                        "name": "room_id",
                        "in": "query",
                        "type": "string",
                        "required": false
                    },
                    {
                        "name": "teacher_id",
                        "in": "query",
                        "type": "string",
                        "required": false
                    },
                    {
                        "name": "group_name",
                        "in": "query",
                        "type": "string",
                        "required": false
                    },
                    {
                        "name": "exclude_index",
                        "in": "query",
                        "type": "integer",
                        "required": false
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/timetable/exports/conflicts": {
            "get": {
                "tags": [
                    "Exports"
                ],
                "summary": "Download the conflict report",
                "parameters": [
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string",
                        "required": false
                    },
                    {
                        "name": "type",
                        "in": "query",
                        "type": "string",
                        "required": false
                    },
                    {
                        "name": "severity",
                        "in": "query",
                        "type": "string",
                        "required": false
                    }
                ],
                "responses": {
                    "200": {
                        "description": "File download"
                    }
                },
                "produces": [
                    "text/csv",
                    "application/pdf",
                    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
                ]
            }
        },
        "/api/v1/timetable/exports/sessions": {
            "get": {
                "tags": [
                    "Exports"
                ],
                "summary": "Download the session list",
                "parameters": [
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string",
                        "required": false
                    },
                    {
                        "name": "q",
                        "in": "query",
                        "type": "string",
                        "required": false
                    }
                ],
                "responses": {
                    "200": {
                        "description": "File download"
                    }
                },
                "produces": [
                    "text/csv",
                    "application/pdf",
                    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
                ]
            }
        }
    },
    "definitions": {
        "SessionPayload": {
            "type": "object",
            "required": [
                "schedule_type",
                "day",
                "teacher_id",
                "room_id",
                "group_name",
                "course_code"
            ],
            "properties": {
                "id": {
                    "type": "string"
                },
                "schedule_type": {
                    "type": "string"
                },
                "day": {
                    "type": "string"
                },
                "time_slot": {
                    "type": "string"
                },
                "session_name": {
                    "type": "string"
                },
                "time_range": {
                    "type": "string"
                },
                "teacher_id": {
                    "type": "string"
                },
                "teacher_name": {
                    "type": "string"
                },
                "staff_code": {
                    "type": "string"
                },
                "room_id": {
                    "type": "string"
                },
                "room_number": {
                    "type": "string"
                },
                "block": {
                    "type": "string"
                },
                "capacity": {
                    "type": "integer"
                },
                "student_count": {
                    "type": "integer"
                },
                "group_name": {
                    "type": "string"
                },
                "course_code": {
                    "type": "string"
                },
                "course_name": {
                    "type": "string"
                },
                "course_instance_id": {
                    "type": "string"
                },
                "department": {
                    "type": "string"
                },
                "student_dept": {
                    "type": "string"
                },
                "day_pattern": {
                    "type": "string"
                },
                "is_batched": {
                    "type": "boolean"
                },
                "session_info": {
                    "type": "string"
                }
            }
        },
        "ValidateAllocationRequest": {
            "type": "object",
            "properties": {
                "original_index": {
                    "type": "integer"
                },
                "session": {
                    "$ref": "#/definitions/SessionPayload"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                }
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {
                    "type": "integer"
                },
                "page_size": {
                    "type": "integer"
                },
                "total_count": {
                    "type": "integer"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "pagination": {
                    "$ref": "#/definitions/Pagination"
                },
                "meta": {
                    "type": "object"
                }
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
