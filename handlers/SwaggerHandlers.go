package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
)

var ginPathParamRe = regexp.MustCompile(`:([^/]+)`)

func ginPathToSwaggerPath(path string) string {
	return ginPathParamRe.ReplaceAllString(path, "{$1}")
}

// swaggerDoc serves the registered swag document. Routes that carry no annotation in the
// document get a generic entry so every registered endpoint is listed.
func swaggerDoc(engine *gin.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc := map[string]interface{}{
			"swagger": "2.0",
			"info":    map[string]interface{}{"title": "Procurement API", "version": "1.0"},
		}
		if raw, err := swag.ReadDoc("swagger"); err == nil {
			if err := json.Unmarshal([]byte(raw), &doc); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "swagger doc is not valid JSON", "details": err.Error()})
				return
			}
		}

		paths, _ := doc["paths"].(map[string]interface{})
		if paths == nil {
			paths = make(map[string]interface{})
		}
		for _, route := range engine.Routes() {
			if strings.HasPrefix(route.Path, "/swagger") {
				continue
			}
			path := ginPathToSwaggerPath(route.Path)
			ops, _ := paths[path].(map[string]interface{})
			if ops == nil {
				ops = make(map[string]interface{})
				paths[path] = ops
			}
			method := strings.ToLower(route.Method)
			if _, ok := ops[method]; ok {
				continue
			}
			op := map[string]interface{}{
				"summary":  route.Method + " " + route.Path,
				"produces": []string{"application/json"},
				"responses": map[string]interface{}{
					"200": map[string]interface{}{"description": "OK"},
					"400": map[string]interface{}{"description": "Bad Request", "schema": map[string]interface{}{"$ref": "#/definitions/models.ErrorResponse"}},
				},
			}
			if strings.HasPrefix(route.Path, "/api/") {
				op["security"] = []map[string][]string{{"BearerAuth": {}}}
			}
			ops[method] = op
		}
		doc["paths"] = paths

		c.JSON(http.StatusOK, doc)
	}
}

func swaggerUI(engine *gin.Engine) gin.HandlerFunc {
	ui := ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json"))
	doc := swaggerDoc(engine)
	return func(c *gin.Context) {
		if c.Param("any") == "/doc.json" {
			doc(c)
			return
		}
		ui(c)
	}
}
