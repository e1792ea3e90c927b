package echoserver

import (
	stderrors "errors"
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/gokit-json22/errors"
	"github.com/kbukum/gokit-json22/json22"
)

// readBody reads at most MaxBodyBytes of the request body.
func (s *Server) readBody(c *gin.Context) (string, error) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxBodyBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return "", errors.InvalidInput("body", "request body too large")
		}
		return "", errors.MalformedPayload(err)
	}
	return string(data), nil
}

func (s *Server) handleEcho(c *gin.Context) {
	text, err := s.readBody(c)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, EchoResult{
		ContentType: c.GetHeader("Content-Type"),
		ContentText: text,
		Accept:      c.GetHeader("Accept"),
	})
}

// handleTyped answers with a JSON22 payload. A JSON22 request body is
// decoded first so that bad input is reported instead of ignored.
func (s *Server) handleTyped(c *gin.Context) {
	if err := s.checkBody(c); err != nil {
		respondError(c, err)
		return
	}
	text, err := json22.Marshal(s.payload(), json22.StringifyOptions{})
	if err != nil {
		respondError(c, errors.Internal(err))
		return
	}
	c.Data(http.StatusOK, json22.MimeType+"; charset=utf-8", []byte(text))
}

func (s *Server) handlePlainJSON(c *gin.Context) {
	if _, err := s.readBody(c); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.payload())
}

func (s *Server) payload() Payload {
	return Payload{
		Date:       s.now().UTC(),
		TypedModel: TypedModel{A: 42},
	}
}

func (s *Server) checkBody(c *gin.Context) error {
	text, err := s.readBody(c)
	if err != nil || text == "" {
		return err
	}

	contentType := c.GetHeader("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case json22.MimeType, "application/json", "":
	default:
		return errors.UnsupportedMediaType(contentType, json22.MimeType, "application/json")
	}

	if _, err := json22.Unmarshal(text, json22.ParseOptions{Context: s.context}); err != nil {
		var unresolved *json22.UnresolvedTypeError
		if stderrors.As(err, &unresolved) {
			return errors.UnresolvedType(unresolved.Name, err)
		}
		return errors.MalformedPayload(err)
	}
	return nil
}
