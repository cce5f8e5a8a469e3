package api

import (
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"margin-gateway/internal/auth"
	"margin-gateway/internal/hypermedia"
	"margin-gateway/pkg/db"
)

const (
	maxBodyBytes = 1 << 20
	accountKey   = "Account"
)

// decodeBody checks the media type, then validates the body against the
// control's schema before filling dst.
func decodeBody(c *gin.Context, schema *hypermedia.Schema, dst any) error {
	mediaType, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
	if err != nil || (mediaType != "application/json" && mediaType != hypermedia.MediaType) {
		return errUnsupportedMediaType
	}
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", errValidation, err)
	}
	return schema.Decode(body, dst)
}

// requireAccount loads the account named in the path and checks the
// request's secret against it.
func (s *Server) requireAccount(c *gin.Context) {
	acc, err := s.Accounts.GetAccount(c.Request.Context(), c.Param("publicId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if !auth.Authorize(acc, c.GetHeader(auth.HeaderSecret)) {
		s.fail(c, fmt.Errorf("%w: missing or incorrect %s header", auth.ErrUnauthorized, auth.HeaderSecret))
		return
	}
	c.Set(accountKey, acc)
	c.Next()
}

func accountFrom(c *gin.Context) *db.Account {
	return c.MustGet(accountKey).(*db.Account)
}
