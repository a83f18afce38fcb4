package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "LearnSmart API",
        "description": "Learning management backend: courses, enrollments, progress, gamification and transcript exports",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Registration, login and sessions"},
        {"name": "Courses", "description": "Course catalogue and authoring"},
        {"name": "Content", "description": "Modules and lessons"},
        {"name": "Learning", "description": "Enrollments, lesson progress and certificates"},
        {"name": "Achievements", "description": "Gamification"},
        {"name": "Admin", "description": "User and achievement administration"},
        {"name": "Exports", "description": "Asynchronous transcript exports"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register a new account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/AuthResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/Message"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/AuthResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/Message"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Logout current session",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Message"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/UserProfile"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/Message"}}
                }
            }
        },
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "List courses",
                "parameters": [
                    {"name": "category", "in": "query", "type": "string"},
                    {"name": "level", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "authorId", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Course"}}}
                }
            },
            "post": {
                "tags": ["Courses"],
                "summary": "Create course",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCourseRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Course"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/Message"}}
                }
            }
        },
        "/courses/{id}": {
            "get": {
                "tags": ["Courses"],
                "summary": "Course detail with modules, lessons and the viewer's enrollment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Course"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/Message"}}
                }
            },
            "put": {
                "tags": ["Courses"],
                "summary": "Update course",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCourseRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Course"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/Message"}}
                }
            },
            "delete": {
                "tags": ["Courses"],
                "summary": "Delete course and its content",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Message"}}
                }
            }
        },
        "/modules": {
            "post": {
                "tags": ["Content"],
                "summary": "Create module",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/modules/{id}": {
            "put": {
                "tags": ["Content"],
                "summary": "Update module",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["Content"],
                "summary": "Delete module and its lessons",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Message"}}}
            }
        },
        "/lessons": {
            "post": {
                "tags": ["Content"],
                "summary": "Create lesson",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/lessons/{id}": {
            "put": {
                "tags": ["Content"],
                "summary": "Update lesson",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["Content"],
                "summary": "Delete lesson",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Message"}}}
            }
        },
        "/enrollments": {
            "post": {
                "tags": ["Learning"],
                "summary": "Enroll in a course",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnrollRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Enrollment"}},
                    "400": {"description": "Already enrolled", "schema": {"$ref": "#/definitions/Message"}}
                }
            }
        },
        "/enrollments/me": {
            "get": {
                "tags": ["Learning"],
                "summary": "List my enrollments",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Enrollment"}}}}
            }
        },
        "/enrollments/course/{courseId}": {
            "get": {
                "tags": ["Learning"],
                "summary": "My enrollment in a course",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "courseId", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Enrollment"}}}
            }
        },
        "/progress": {
            "post": {
                "tags": ["Learning"],
                "summary": "Mark a lesson completed",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CompleteLessonRequest"}}
                ],
                "responses": {
                    "201": {"description": "First completion", "schema": {"$ref": "#/definitions/Progress"}},
                    "200": {"description": "Already completed", "schema": {"$ref": "#/definitions/Progress"}}
                }
            }
        },
        "/progress/lesson/{lessonId}": {
            "get": {
                "tags": ["Learning"],
                "summary": "Lesson completion status",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "lessonId", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/certificates/{courseId}": {
            "post": {
                "tags": ["Learning"],
                "summary": "Issue course certificate",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "courseId", "in": "path", "required": true, "type": "integer"}],
                "responses": {
                    "201": {"description": "Issued"},
                    "200": {"description": "Already issued"},
                    "400": {"description": "Course not completed yet", "schema": {"$ref": "#/definitions/Message"}}
                }
            }
        },
        "/certificates/me": {
            "get": {
                "tags": ["Learning"],
                "summary": "List my certificates",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/achievements": {
            "get": {
                "tags": ["Achievements"],
                "summary": "List achievements",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/achievements/me": {
            "get": {
                "tags": ["Achievements"],
                "summary": "List my unlocked achievements",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/admin/users": {
            "get": {
                "tags": ["Admin"],
                "summary": "List users",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/UserProfile"}}}}
            }
        },
        "/admin/users/{id}": {
            "put": {
                "tags": ["Admin"],
                "summary": "Update user",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/UserProfile"}}}
            }
        },
        "/admin/achievements": {
            "post": {
                "tags": ["Admin"],
                "summary": "Create achievement",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/Message"}}}
            }
        },
        "/admin/achievements/{id}": {
            "put": {
                "tags": ["Admin"],
                "summary": "Update achievement",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["Admin"],
                "summary": "Delete achievement",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Message"}}}
            }
        },
        "/exports/transcript": {
            "post": {
                "tags": ["Exports"],
                "summary": "Request a transcript export",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TranscriptExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ExportJob"}},
                    "503": {"description": "Exports disabled", "schema": {"$ref": "#/definitions/Message"}}
                }
            }
        },
        "/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export job status",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ExportJob"}}}
            }
        },
        "/exports/download/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "File"}, "403": {"description": "Invalid token"}}
            }
        }
    },
    "definitions": {
        "Message": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        },
        "RegisterRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "fullName": {"type": "string"},
                "role": {"type": "string", "enum": ["student", "teacher"]},
                "avatarUrl": {"type": "string"}
            },
            "required": ["username", "email", "password", "fullName"]
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["username", "password"]
        },
        "UserProfile": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "username": {"type": "string"},
                "email": {"type": "string"},
                "fullName": {"type": "string"},
                "role": {"type": "string"},
                "points": {"type": "integer"},
                "streak": {"type": "integer"}
            }
        },
        "AuthResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "username": {"type": "string"},
                "role": {"type": "string"},
                "accessToken": {"type": "string"},
                "tokenType": {"type": "string"},
                "expiresAt": {"type": "string"}
            }
        },
        "Course": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "slug": {"type": "string"},
                "description": {"type": "string"},
                "imageUrl": {"type": "string"},
                "category": {"type": "string"},
                "level": {"type": "string"},
                "duration": {"type": "integer"},
                "authorId": {"type": "integer"},
                "points": {"type": "integer"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "CreateCourseRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "imageUrl": {"type": "string"},
                "category": {"type": "string"},
                "level": {"type": "string"},
                "duration": {"type": "integer"},
                "points": {"type": "integer"}
            },
            "required": ["title", "description", "category", "level"]
        },
        "EnrollRequest": {
            "type": "object",
            "properties": {
                "courseId": {"type": "integer"}
            },
            "required": ["courseId"]
        },
        "Enrollment": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "userId": {"type": "integer"},
                "courseId": {"type": "integer"},
                "progress": {"type": "integer"},
                "completed": {"type": "boolean"},
                "certificateIssued": {"type": "boolean"},
                "enrolledAt": {"type": "string"},
                "completedAt": {"type": "string"}
            }
        },
        "CompleteLessonRequest": {
            "type": "object",
            "properties": {
                "lessonId": {"type": "integer"}
            },
            "required": ["lessonId"]
        },
        "Progress": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "userId": {"type": "integer"},
                "lessonId": {"type": "integer"},
                "completed": {"type": "boolean"},
                "completedAt": {"type": "string"}
            }
        },
        "TranscriptExportRequest": {
            "type": "object",
            "properties": {
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            },
            "required": ["format"]
        },
        "ExportJob": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "format": {"type": "string"},
                "status": {"type": "string"},
                "progress": {"type": "integer"},
                "resultUrl": {"type": "string"},
                "error": {"type": "string"}
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
