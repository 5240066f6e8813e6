package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Notabilis API",
        "description": "Grade file analysis: averages, ranks, chart and PDF report",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Analyses", "description": "Upload a grade file and compute results"},
        {"name": "Exports", "description": "PDF, CSV and chart downloads"}
    ],
    "paths": {
        "/analyses": {
            "post": {
                "tags": ["Analyses"],
                "summary": "Analyse a grade file",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true, "description": "Grade file (.csv, .txt, .tsv, .docx, .xlsx)"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "415": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Missing columns", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/analyses/report.pdf": {
            "post": {
                "tags": ["Exports"],
                "summary": "Download the PDF grade report",
                "consumes": ["multipart/form-data"],
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true},
                    {"name": "layout", "in": "query", "type": "string", "enum": ["summary", "table"]}
                ],
                "responses": {
                    "200": {"description": "PDF report", "schema": {"type": "file"}},
                    "400": {"description": "Unknown layout", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Text outside ISO-8859-1", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/analyses/results.csv": {
            "post": {
                "tags": ["Exports"],
                "summary": "Download results as CSV",
                "consumes": ["multipart/form-data"],
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true},
                    {"name": "layout", "in": "query", "type": "string", "enum": ["table", "compact"]}
                ],
                "responses": {
                    "200": {"description": "CSV file", "schema": {"type": "file"}}
                }
            }
        },
        "/analyses/chart.png": {
            "post": {
                "tags": ["Exports"],
                "summary": "Render the averages bar chart",
                "consumes": ["multipart/form-data"],
                "produces": ["image/png"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "200": {"description": "PNG image", "schema": {"type": "file"}}
                }
            }
        },
        "/analyses/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Store the PDF report behind a signed link (report storage enabled)",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/analyses/cache": {
            "delete": {
                "tags": ["Analyses"],
                "summary": "Drop cached analyses (analysis cache enabled)",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/export/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a stored report",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "token", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "PDF report", "schema": {"type": "file"}},
                    "401": {"description": "Invalid or expired link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Report removed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
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
