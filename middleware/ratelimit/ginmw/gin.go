// Package ginmw adapta o Guard para o gin.
//
// Fica separado do pacote ratelimit para que quem usa só net/http não
// dependa de github.com/gin-gonic/gin.
//
//	guard := ratelimit.NewGuard(ratelimit.Options{Counter: log, Blocks: blocks})
//	r := gin.New()
//	r.Use(ginmw.RateLimit(guard))
package ginmw

import (
	"github.com/gin-gonic/gin"

	"request-guard/middleware/ratelimit"
)

// RateLimit aplica o mesmo fluxo do middleware net/http: nega com 403 sem
// chamar os próximos handlers, ou chama c.Next() e registra quando ele retorna.
func RateLimit(guard *ratelimit.Guard) gin.HandlerFunc {
	if guard == nil {
		panic("ginmw: guard is required")
	}
	return func(c *gin.Context) {
		key, dec := guard.Check(c.Request)
		if !dec.Allowed {
			guard.Reject(c.Writer, dec)
			c.Abort()
			return
		}

		guard.SetHeaders(c.Writer, key)
		c.Next()
		guard.Complete(key)
	}
}
