package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable Engine API",
        "description": "Weekly timetable generation, interactive editing and versioned storage.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {
            "name": "Timetables",
            "description": "Generation, editing and versioned storage"
        },
        {
            "name": "Teacher Preferences",
            "description": "Teacher unavailability windows"
        },
        {
            "name": "Observability",
            "description": "Health and metrics"
        }
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": [
                    "Observability"
                ],
                "summary": "Health check with registered engines",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "tags": [
                    "Observability"
                ],
                "summary": "Readiness check",
                "responses": {
                    "200": {
                        "description": "Ready"
                    },
                    "503": {
                        "description": "Database unavailable"
                    }
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": [
                    "Observability"
                ],
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
        "/metrics/summary": {
            "get": {
                "tags": [
                    "Observability"
                ],
                "summary": "Solver and request metrics snapshot",
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
        "/api/v1/timetables/generate": {
            "post": {
                "tags": [
                    "Timetables"
                ],
                "summary": "Generate a timetable proposal",
                "description": "An unsolvable request still returns 200 with solved=false and a failure kind.",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/GenerateTimetableRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Invalid request",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "422": {
                        "description": "Strategy cannot place the request",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "503": {
                        "description": "Generation disabled",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/timetables/edit": {
            "post": {
                "tags": [
                    "Timetables"
                ],
                "summary": "Move, swap or remove one occurrence",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/EditTimetableRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Proposal not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Edit rejected",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/timetables": {
            "post": {
                "tags": [
                    "Timetables"
                ],
                "summary": "Save a proposal as a new draft version",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SaveTimetableRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Proposal has unplaced lessons",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "412": {
                        "description": "Proposal has no placement",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "get": {
                "tags": [
                    "Timetables"
                ],
                "summary": "List saved timetables",
                "parameters": [
                    {
                        "name": "name",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "status",
                        "in": "query",
                        "type": "string",
                        "enum": [
                            "DRAFT",
                            "PUBLISHED",
                            "ARCHIVED"
                        ]
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer"
                    },
                    {
                        "name": "pageSize",
                        "in": "query",
                        "type": "integer"
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
        "/api/v1/timetables/{id}": {
            "get": {
                "tags": [
                    "Timetables"
                ],
                "summary": "Get a saved timetable with its grid",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "Timetables"
                ],
                "summary": "Delete a draft timetable",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "Deleted"
                    },
                    "409": {
                        "description": "Only drafts can be deleted",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/timetables/{id}/publish": {
            "post": {
                "tags": [
                    "Timetables"
                ],
                "summary": "Publish a timetable version",
                "description": "Archives every other published version with the same name.",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Archived timetables cannot be published",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/timetables/{id}/export": {
            "get": {
                "tags": [
                    "Timetables"
                ],
                "summary": "Download a timetable as CSV",
                "produces": [
                    "text/csv"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "CSV file",
                        "schema": {
                            "type": "file"
                        }
                    }
                }
            }
        },
        "/api/v1/timetables/jobs": {
            "post": {
                "tags": [
                    "Timetables"
                ],
                "summary": "Queue a timetable generation",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/GenerateTimetableRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "202": {
                        "description": "Accepted",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "429": {
                        "description": "Queue full",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/timetables/jobs/{id}": {
            "get": {
                "tags": [
                    "Timetables"
                ],
                "summary": "Poll a queued generation",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Job not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/teachers/{id}/preferences": {
            "get": {
                "tags": [
                    "Teacher Preferences"
                ],
                "summary": "Get teacher unavailability windows",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
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
                    "Teacher Preferences"
                ],
                "summary": "Replace teacher unavailability windows",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UpsertTeacherPreferenceRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Invalid window",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "ClassRequest": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                }
            },
            "required": [
                "id"
            ]
        },
        "LoadRequest": {
            "type": "object",
            "properties": {
                "loadId": {
                    "type": "string"
                },
                "kind": {
                    "type": "string",
                    "enum": [
                        "regular",
                        "meeting"
                    ]
                },
                "classId": {
                    "type": "string"
                },
                "subjectId": {
                    "type": "string"
                },
                "teacherId": {
                    "type": "string"
                },
                "meetingTeacherIds": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "weeklySessions": {
                    "type": "integer"
                },
                "duration": {
                    "type": "integer"
                }
            },
            "required": [
                "loadId",
                "weeklySessions"
            ]
        },
        "BlockedSlotRequest": {
            "type": "object",
            "properties": {
                "teacherId": {
                    "type": "string"
                },
                "slots": {
                    "type": "array",
                    "items": {
                        "type": "integer"
                    }
                }
            },
            "required": [
                "teacherId",
                "slots"
            ]
        },
        "GenerateTimetableRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "days": {
                    "type": "integer"
                },
                "slotsPerDay": {
                    "type": "integer"
                },
                "classes": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/ClassRequest"
                    }
                },
                "loads": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/LoadRequest"
                    }
                },
                "blocked": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/BlockedSlotRequest"
                    }
                },
                "forced": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "integer"
                    }
                },
                "strategy": {
                    "type": "string",
                    "enum": [
                        "auto",
                        "heuristic",
                        "exact"
                    ]
                },
                "engine": {
                    "type": "string"
                },
                "timeLimitMs": {
                    "type": "integer"
                },
                "maxBacktracks": {
                    "type": "integer"
                },
                "workers": {
                    "type": "integer"
                },
                "maxSubjectSlotsPerDay": {
                    "type": "integer"
                },
                "maxMeetingsPerDay": {
                    "type": "integer"
                },
                "ignorePreferences": {
                    "type": "boolean"
                }
            },
            "required": [
                "days",
                "slotsPerDay",
                "classes",
                "loads"
            ]
        },
        "LessonRequest": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "loadId": {
                    "type": "string"
                },
                "subjectId": {
                    "type": "string"
                },
                "kind": {
                    "type": "string"
                },
                "classId": {
                    "type": "string"
                },
                "teacherId": {
                    "type": "string"
                },
                "teacherIds": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "duration": {
                    "type": "integer"
                }
            },
            "required": [
                "id",
                "loadId",
                "duration"
            ]
        },
        "EditSource": {
            "type": "object",
            "properties": {
                "kind": {
                    "type": "string",
                    "enum": [
                        "grid",
                        "pool"
                    ]
                },
                "classId": {
                    "type": "string"
                },
                "index": {
                    "type": "integer"
                },
                "loadId": {
                    "type": "string"
                },
                "lesson": {
                    "$ref": "#/definitions/LessonRequest"
                }
            },
            "required": [
                "kind"
            ]
        },
        "SlotRef": {
            "type": "object",
            "properties": {
                "classId": {
                    "type": "string"
                },
                "index": {
                    "type": "integer"
                }
            },
            "required": [
                "classId"
            ]
        },
        "EditTimetableRequest": {
            "type": "object",
            "properties": {
                "proposalId": {
                    "type": "string"
                },
                "grid": {
                    "type": "object"
                },
                "blocked": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/BlockedSlotRequest"
                    }
                },
                "meetings": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "lessonId": {
                                "type": "string"
                            },
                            "slot": {
                                "type": "integer"
                            },
                            "duration": {
                                "type": "integer"
                            },
                            "teacherIds": {
                                "type": "array",
                                "items": {
                                    "type": "string"
                                }
                            }
                        }
                    }
                },
                "source": {
                    "$ref": "#/definitions/EditSource"
                },
                "action": {
                    "type": "string",
                    "enum": [
                        "move",
                        "remove"
                    ]
                },
                "target": {
                    "$ref": "#/definitions/SlotRef"
                },
                "swap": {
                    "type": "boolean"
                }
            },
            "required": [
                "action"
            ]
        },
        "SaveTimetableRequest": {
            "type": "object",
            "properties": {
                "proposalId": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                }
            },
            "required": [
                "proposalId"
            ]
        },
        "TeacherUnavailableSlot": {
            "type": "object",
            "properties": {
                "day_of_week": {
                    "type": "string"
                },
                "time_range": {
                    "type": "string"
                }
            },
            "required": [
                "day_of_week",
                "time_range"
            ]
        },
        "UpsertTeacherPreferenceRequest": {
            "type": "object",
            "properties": {
                "unavailable": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/TeacherUnavailableSlot"
                    }
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
                },
                "details": {
                    "type": "object"
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
