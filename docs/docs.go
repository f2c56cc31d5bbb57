// Package docs holds the OpenAPI description of the receipt service served
// under /swagger. It is maintained by hand alongside the route tables in
// internal/interfaces/http/handler.
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/print/direct": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["print"],
                "summary": "Render a sale and persist it as a print job",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/PrintRequest"}},
                    {"in": "header", "name": "Idempotency-Key", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Job completed", "schema": {"$ref": "#/definitions/Response"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/Response"}},
                    "500": {"description": "Render or storage failure", "schema": {"$ref": "#/definitions/Response"}}
                }
            }
        },
        "/api/v1/print/config": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["print"],
                "summary": "Print settings and company header",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Response"}}
                }
            }
        },
        "/api/v1/print/jobs": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["jobs"],
                "summary": "List print jobs",
                "parameters": [
                    {"in": "query", "name": "page", "type": "integer"},
                    {"in": "query", "name": "page_size", "type": "integer"},
                    {"in": "query", "name": "order_by", "type": "string", "enum": ["created_at", "updated_at", "status", "printer_name"]},
                    {"in": "query", "name": "order_dir", "type": "string", "enum": ["asc", "desc"]},
                    {"in": "query", "name": "status", "type": "string"},
                    {"in": "query", "name": "source", "type": "string"},
                    {"in": "query", "name": "printer", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Response"}}
                }
            }
        },
        "/api/v1/print/jobs/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["jobs"],
                "summary": "Get one print job",
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Response"}},
                    "404": {"description": "Unknown job", "schema": {"$ref": "#/definitions/Response"}}
                }
            }
        },
        "/api/v1/print/jobs/{id}/document": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["jobs"],
                "summary": "Download the stored PDF of a job",
                "produces": ["application/pdf"],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "PDF document", "schema": {"type": "file"}},
                    "404": {"description": "Document missing", "schema": {"$ref": "#/definitions/Response"}}
                }
            }
        },
        "/api/v1/print/jobs/cleanup": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["jobs"],
                "summary": "Run one retention pass",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Response"}}
                }
            }
        },
        "/api/v1/print/reprints": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["reprints"],
                "summary": "List reprint audit entries",
                "parameters": [{"in": "query", "name": "sale_id", "type": "integer"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Response"}}
                }
            }
        },
        "/api/pdv/venda/{id}/reimprimir": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["reprints"],
                "summary": "Reprint a sale and record the audit entry",
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Response"}},
                    "404": {"description": "Unknown sale", "schema": {"$ref": "#/definitions/Response"}}
                }
            }
        },
        "/api/v1/printers": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["print"],
                "summary": "List configured printers",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Response"}}
                }
            }
        },
        "/api/v1/receipts/render": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["receipts"],
                "summary": "Compose the receipt HTML for a sale",
                "produces": ["text/html"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/PrintRequest"}}],
                "responses": {
                    "200": {"description": "Receipt document", "schema": {"type": "string"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/Response"}}
                }
            }
        },
        "/api/v1/receipts/pdf": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["receipts"],
                "summary": "Render the receipt of a sale as PDF",
                "produces": ["application/pdf"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/PrintRequest"}}],
                "responses": {
                    "200": {"description": "PDF document", "schema": {"type": "file"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/Response"}}
                }
            }
        },
        "/api/v1/auth/token": {
            "post": {
                "tags": ["auth"],
                "summary": "Issue a terminal access token",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/TokenRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Response"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/Response"}}
                }
            }
        },
        "/api/v1/auth/revoke": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Revoke the caller's token or every token of its terminal",
                "parameters": [{"in": "body", "name": "request", "schema": {"$ref": "#/definitions/RevokeRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Response"}}
                }
            }
        },
        "/api/v1/system/info": {
            "get": {
                "tags": ["system"],
                "summary": "Service name, version and uptime",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Response"}}
                }
            }
        },
        "/health": {
            "get": {
                "tags": ["system"],
                "summary": "Dependency health checks",
                "responses": {
                    "200": {"description": "Healthy", "schema": {"$ref": "#/definitions/Response"}},
                    "503": {"description": "A check failed", "schema": {"$ref": "#/definitions/Response"}}
                }
            }
        }
    },
    "definitions": {
        "Response": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/ErrorInfo"},
                "meta": {"type": "object"}
            }
        },
        "ErrorInfo": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "ERR_VALIDATION"},
                "message": {"type": "string"},
                "request_id": {"type": "string"},
                "timestamp": {"type": "integer"},
                "details": {"type": "array", "items": {"type": "object"}}
            }
        },
        "PrintRequest": {
            "type": "object",
            "properties": {
                "venda_id": {"description": "Sale number or text reference"},
                "cliente": {"type": "string"},
                "vendedor": {"type": "string"},
                "cpf": {"type": "string"},
                "data": {"type": "string"},
                "itens": {"type": "array", "items": {"type": "object"}},
                "subtotal": {"description": "Number or decimal string", "example": "50.00"},
                "desconto_valor": {"description": "Number or decimal string"},
                "desconto_percentual": {"description": "Number or decimal string"},
                "forma_pagamento": {"type": "string"},
                "valor_recebido": {"description": "Number or decimal string"},
                "troco": {"description": "Number or decimal string"},
                "total": {"description": "Number or decimal string"},
                "impressora_nome": {"type": "string"},
                "empresa": {"type": "object", "description": "Header data; the configured company is used when absent"},
                "config_impressao": {"type": "object", "description": "Print mode, paper size, copies and footer"}
            }
        },
        "TokenRequest": {
            "type": "object",
            "required": ["terminal_id", "secret"],
            "properties": {
                "terminal_id": {"type": "string", "maxLength": 64},
                "secret": {"type": "string", "minLength": 8, "maxLength": 128}
            }
        },
        "RevokeRequest": {
            "type": "object",
            "properties": {
                "all_tokens": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Terminal token. Format: \"Bearer {token}\"",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Receipt Service API",
	Description:      "Renders POS sale receipts and stores them as print jobs",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
