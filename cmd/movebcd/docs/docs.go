// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package docs registers movebcd's OpenAPI spec with swaggo so
// http-swagger can serve it at /swagger/.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "movebcd API",
        "description": "Decodes compiled Move modules and scripts submitted over HTTP.",
        "version": "1.0"
    },
    "basePath": "/",
    "paths": {
        "/v1/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "ok"}
                }
            }
        },
        "/v1/decode": {
            "post": {
                "summary": "Decode a Move VM bytecode binary",
                "parameters": [
                    {"name": "kind", "in": "query", "type": "string", "required": false, "description": "module or script"}
                ],
                "responses": {
                    "200": {"description": "decoded CompiledUnit"},
                    "400": {"description": "bad request"},
                    "422": {"description": "decode error"}
                }
            }
        }
    }
}`

// SwaggerInfo holds the metadata http-swagger and swag use to render the
// spec registered below.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8085",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "movebcd API",
	Description:      "Decodes compiled Move modules and scripts submitted over HTTP.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName, SwaggerInfo)
}
