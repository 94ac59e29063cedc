package graph

import (
	"github.com/gin-gonic/gin"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
)

// RegisterRoutes: 認証は任意（OptionalAuth の後ろに載せる）。未認証の操作はエンベロープで UNAUTHORIZED を返す
func RegisterRoutes(r gin.IRoutes, schema *graphql.Schema) {
	r.POST("/graphql", gin.WrapH(&relay.Handler{Schema: schema}))
}
