package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const responseMetaKey = "responseMeta"

type responseMeta struct {
	start time.Time
	extra map[string]interface{}
}

// WithResponseMeta starts the per-request metadata that handlers attach to
// the response envelope.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, &responseMeta{start: time.Now(), extra: map[string]interface{}{}})
		c.Next()
	}
}

// SetCacheHit reports whether the payload came from the cache.
func SetCacheHit(c *gin.Context, hit bool) {
	metaFor(c).extra["cacheHit"] = hit
}

// ExtractMeta returns the collected metadata, stamped with the time spent
// since the request entered WithResponseMeta.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	m := metaFor(c)
	m.extra["processingTimeMs"] = time.Since(m.start).Milliseconds()
	return m.extra
}

// metaFor tolerates handlers running without WithResponseMeta, as in unit tests.
func metaFor(c *gin.Context) *responseMeta {
	if v, ok := c.Get(responseMetaKey); ok {
		if m, ok := v.(*responseMeta); ok {
			return m
		}
	}
	m := &responseMeta{start: time.Now(), extra: map[string]interface{}{}}
	c.Set(responseMetaKey, m)
	return m
}
