package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"margin-gateway/internal/auth"
	"margin-gateway/internal/hypermedia"
	"margin-gateway/pkg/db"
	"margin-gateway/pkg/exchanges/common"
)

var (
	errValidation           = errors.New("validation failed")
	errUnsupportedMediaType = errors.New("request body must be JSON")
	errNotImplemented       = errors.New("resource not implemented yet")
	errNoRoute              = errors.New("no such resource")
	errMethodNotAllowed     = errors.New("method not allowed on this resource")
	errTooManyRequests      = errors.New("too many requests, please slow down")
	errPanic                = errors.New("internal error")
)

// problem is the rendered form of an error.
type problem struct {
	status int
	title  string
}

// upstreamProblems maps venue failure kinds to responses. Only an unknown
// resource at the venue is reported as a client error.
var upstreamProblems = map[common.ErrorKind]problem{
	common.KindNotFound:     {http.StatusNotFound, "Not found"},
	common.KindTimeout:      {http.StatusGatewayTimeout, "Venue timeout"},
	common.KindAuthRejected: {http.StatusBadGateway, "Venue rejected credentials"},
	common.KindBadResponse:  {http.StatusBadGateway, "Venue response malformed"},
	common.KindRejected:     {http.StatusBadGateway, "Venue rejected request"},
	common.KindRateLimited:  {http.StatusServiceUnavailable, "Venue rate limit"},
	common.KindUnavailable:  {http.StatusServiceUnavailable, "Venue unavailable"},
}

func classify(err error) problem {
	var (
		se *hypermedia.SchemaError
		ue *common.UpstreamError
	)
	switch {
	case errors.As(err, &se):
		return problem{http.StatusBadRequest, "Schema violation"}
	case errors.Is(err, hypermedia.ErrInvalidJSON), errors.Is(err, errValidation):
		return problem{http.StatusBadRequest, "Invalid JSON document"}
	case errors.Is(err, auth.ErrUnauthorized):
		return problem{http.StatusUnauthorized, "Unauthorized"}
	case errors.Is(err, db.ErrNotFound), errors.Is(err, errNoRoute):
		return problem{http.StatusNotFound, "Not found"}
	case errors.Is(err, errMethodNotAllowed):
		return problem{http.StatusMethodNotAllowed, "Method not allowed"}
	case errors.Is(err, db.ErrDuplicateKey):
		return problem{http.StatusConflict, "Already exists"}
	case errors.Is(err, errUnsupportedMediaType):
		return problem{http.StatusUnsupportedMediaType, "Unsupported media type"}
	case errors.Is(err, errTooManyRequests):
		return problem{http.StatusTooManyRequests, "Too many requests"}
	case errors.Is(err, errNotImplemented):
		return problem{http.StatusNotImplemented, "Not implemented"}
	case errors.As(err, &ue):
		if p, ok := upstreamProblems[ue.Kind]; ok {
			return p
		}
		return upstreamProblems[common.KindUnavailable]
	default:
		return problem{http.StatusInternalServerError, "Internal error"}
	}
}

// fail renders err as a Mason error document and aborts the chain.
// Internal errors are logged and their detail withheld from the client.
func (s *Server) fail(c *gin.Context, err error) {
	p := classify(err)
	message := err.Error()
	if p.status == http.StatusInternalServerError {
		s.Log.Error("request failed",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(requestIDKey)),
		)
		message = "the server could not complete the request"
	}

	var ue *common.UpstreamError
	if errors.As(err, &ue) && ue.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(ue.RetryAfter.Seconds()))))
	}

	doc := hypermedia.ErrorDocument(p.status, p.title, message, c.Request.URL.RequestURI())
	respond(c, p.status, doc)
	c.Abort()
}

// respond writes doc with the Mason media type.
func respond(c *gin.Context, status int, doc hypermedia.Document) {
	raw, err := json.Marshal(doc)
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Data(status, hypermedia.MediaType, raw)
}
