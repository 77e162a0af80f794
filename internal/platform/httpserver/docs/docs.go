// Package docs registers the OpenAPI document served at /swagger/doc.json.
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
        "/api/iam/v1/permissions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["permissions"],
                "summary": "List permissions",
                "parameters": [
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "boolean", "name": "is_active", "in": "query"},
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "string", "name": "sort_by", "in": "query"},
                    {"type": "string", "name": "sort_order", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["permissions"],
                "summary": "Create a permission",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request"},
                    "422": {"description": "Unprocessable Entity"}
                }
            }
        },
        "/api/iam/v1/permissions/{permission_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["permissions"],
                "summary": "Get a permission with linked policies",
                "parameters": [
                    {"type": "integer", "name": "permission_id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["permissions"],
                "summary": "Update a permission",
                "parameters": [
                    {"type": "integer", "name": "permission_id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "422": {"description": "Unprocessable Entity"}}
            },
            "delete": {
                "tags": ["permissions"],
                "summary": "Delete an unreferenced permission",
                "parameters": [
                    {"type": "integer", "name": "permission_id", "in": "path", "required": true}
                ],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}, "422": {"description": "Unprocessable Entity"}}
            }
        },
        "/api/iam/v1/policies": {
            "get": {
                "produces": ["application/json"],
                "tags": ["policies"],
                "summary": "List policies",
                "parameters": [
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "tenant_id", "in": "query"},
                    {"type": "boolean", "name": "is_active", "in": "query"},
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "string", "name": "sort_by", "in": "query"},
                    {"type": "string", "name": "sort_order", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["policies"],
                "summary": "Create a policy with an optional permission set",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request"},
                    "422": {"description": "Unprocessable Entity"}
                }
            }
        },
        "/api/iam/v1/policies/{policy_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["policies"],
                "summary": "Get a policy with permissions and referencing roles",
                "parameters": [
                    {"type": "integer", "name": "policy_id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["policies"],
                "summary": "Update a policy, optionally replacing its permission set",
                "parameters": [
                    {"type": "integer", "name": "policy_id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "422": {"description": "Unprocessable Entity"}}
            },
            "delete": {
                "tags": ["policies"],
                "summary": "Delete an unreferenced non-system policy",
                "parameters": [
                    {"type": "integer", "name": "policy_id", "in": "path", "required": true}
                ],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}, "422": {"description": "Unprocessable Entity"}}
            }
        },
        "/api/iam/v1/roles": {
            "get": {
                "produces": ["application/json"],
                "tags": ["roles"],
                "summary": "List roles",
                "parameters": [
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "tenant_id", "in": "query"},
                    {"type": "boolean", "name": "is_active", "in": "query"},
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "string", "name": "sort_by", "in": "query"},
                    {"type": "string", "name": "sort_order", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["roles"],
                "summary": "Create a role with an optional policy set",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request"},
                    "422": {"description": "Unprocessable Entity"}
                }
            }
        },
        "/api/iam/v1/roles/{role_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["roles"],
                "summary": "Get a role with policies, permissions and assignment counts",
                "parameters": [
                    {"type": "integer", "name": "role_id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["roles"],
                "summary": "Update a role, optionally replacing its policy set",
                "parameters": [
                    {"type": "integer", "name": "role_id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "422": {"description": "Unprocessable Entity"}}
            },
            "delete": {
                "tags": ["roles"],
                "summary": "Delete an unassigned non-system role",
                "parameters": [
                    {"type": "integer", "name": "role_id", "in": "path", "required": true}
                ],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}, "422": {"description": "Unprocessable Entity"}}
            }
        },
        "/api/iam/v1/roles/{role_id}/permissions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["roles"],
                "summary": "Resolve the role's flattened permission set",
                "parameters": [
                    {"type": "integer", "name": "role_id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/iam/v1/roles/{role_id}/permissions/check": {
            "get": {
                "produces": ["application/json"],
                "tags": ["roles"],
                "summary": "Check whether the role grants a module/action pair",
                "parameters": [
                    {"type": "integer", "name": "role_id", "in": "path", "required": true},
                    {"type": "string", "name": "module", "in": "query", "required": true},
                    {"type": "string", "name": "action", "in": "query", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Keystone IAM API",
	Description:      "Permissions, policies, roles and permission resolution.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
