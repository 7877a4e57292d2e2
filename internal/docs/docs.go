// Package docs holds the OpenAPI document served at /swagger/doc.json.
// Regenerate with: swag init -g internal/transport/http/http.go -o internal/docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/v1/turns": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["conversation"],
                "summary": "Submit a typed turn",
                "parameters": [
                    {"description": "User text", "name": "turn", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.TextRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/assistant.TurnResult"}},
                    "409": {"description": "An action is awaiting confirmation", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "422": {"description": "Empty input", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/v1/pending": {
            "get": {
                "produces": ["application/json"],
                "tags": ["pending"],
                "summary": "Get the action awaiting confirmation",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.PendingResponse"}}
                }
            }
        },
        "/v1/pending/confirm": {
            "post": {
                "produces": ["application/json"],
                "tags": ["pending"],
                "summary": "Confirm the pending action",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/pending.Outcome"}},
                    "404": {"description": "Nothing is pending", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/v1/pending/reject": {
            "post": {
                "produces": ["application/json"],
                "tags": ["pending"],
                "summary": "Reject the pending action",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/pending.Outcome"}},
                    "404": {"description": "Nothing is pending", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/v1/conversation": {
            "get": {
                "produces": ["application/json"],
                "tags": ["conversation"],
                "summary": "Get the conversation log",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ConversationResponse"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["conversation"],
                "summary": "Reset the conversation to the greeting",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ConversationResponse"}}
                }
            }
        },
        "/v1/reminders": {
            "get": {
                "produces": ["application/json"],
                "tags": ["reminders"],
                "summary": "List reminders",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/reminder.Reminder"}}}
                }
            }
        },
        "/v1/reminders/{id}/complete": {
            "post": {
                "produces": ["application/json"],
                "tags": ["reminders"],
                "summary": "Mark a reminder as completed",
                "parameters": [{"type": "string", "description": "Reminder ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/reminder.Reminder"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/v1/reminders/{id}": {
            "delete": {
                "tags": ["reminders"],
                "summary": "Delete a reminder",
                "parameters": [{"type": "string", "description": "Reminder ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/v1/apps": {
            "get": {
                "produces": ["application/json"],
                "tags": ["apps"],
                "summary": "List launchable apps",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/apps.Descriptor"}}}
                }
            }
        },
        "/v1/speech": {
            "post": {
                "consumes": ["audio/webm", "audio/ogg", "audio/mp4", "audio/wav"],
                "produces": ["application/json"],
                "tags": ["speech"],
                "summary": "Submit a recorded utterance",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.SpeechResponse"}},
                    "409": {"description": "Another upload is being transcribed", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "413": {"description": "Recording exceeds 25 MiB", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "422": {"description": "Empty recording or no transcript", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/v1/tts": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["speech"],
                "summary": "Read text aloud",
                "parameters": [
                    {"description": "Text to synthesize", "name": "text", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.TextRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.TTSResponse"}},
                    "503": {"description": "Text-to-speech is disabled", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "apps.Descriptor": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "web_url": {"type": "string"},
                "native_url": {"type": "string"},
                "search_url": {"type": "string"}
            }
        },
        "message.Turn": {
            "type": "object",
            "properties": {
                "role": {"type": "string"},
                "content": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "assistant.PendingView": {
            "type": "object",
            "properties": {
                "state": {"type": "string"},
                "action": {"type": "object"},
                "prompt": {"type": "string"}
            }
        },
        "assistant.TurnResult": {
            "type": "object",
            "properties": {
                "appended": {"type": "array", "items": {"$ref": "#/definitions/message.Turn"}},
                "intent": {"type": "string"},
                "pending": {"$ref": "#/definitions/assistant.PendingView"},
                "remote_failed": {"type": "boolean"}
            }
        },
        "pending.Outcome": {
            "type": "object",
            "properties": {
                "action": {"type": "object"},
                "confirmed": {"type": "boolean"},
                "succeeded": {"type": "boolean"},
                "native": {"type": "boolean"},
                "reminder": {"$ref": "#/definitions/reminder.Reminder"},
                "turn": {"$ref": "#/definitions/message.Turn"}
            }
        },
        "reminder.Reminder": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "date": {"type": "string"},
                "time": {"type": "string"},
                "description": {"type": "string"},
                "due": {"type": "string"},
                "completed": {"type": "boolean"},
                "created_at": {"type": "string"}
            }
        },
        "speech.Result": {
            "type": "object",
            "properties": {
                "transcript": {"type": "string"},
                "encoding": {"type": "string"},
                "bytes": {"type": "integer"}
            }
        },
        "http.TextRequest": {
            "type": "object",
            "properties": {"text": {"type": "string", "example": "YouTube aç"}}
        },
        "http.PendingResponse": {
            "type": "object",
            "properties": {"pending": {"$ref": "#/definitions/assistant.PendingView"}}
        },
        "http.ConversationResponse": {
            "type": "object",
            "properties": {"turns": {"type": "array", "items": {"$ref": "#/definitions/message.Turn"}}}
        },
        "http.SpeechResponse": {
            "type": "object",
            "properties": {
                "result": {"$ref": "#/definitions/speech.Result"},
                "pending": {"$ref": "#/definitions/assistant.PendingView"}
            }
        },
        "http.TTSResponse": {
            "type": "object",
            "properties": {
                "audio": {"type": "string"},
                "content_type": {"type": "string"}
            }
        },
        "http.errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "asistan API",
	Description:      "Turkish voice and text assistant: turns, confirmations, reminders and speech.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
