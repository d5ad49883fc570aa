package httphandler

import (
	"errors"
	"net/http"
	"strconv"

	// Packages
	pg "github.com/mutablelogic/go-pg"
	httprequest "github.com/mutablelogic/go-server/pkg/httprequest"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	types "github.com/mutablelogic/go-server/pkg/types"
	taskqueue "github.com/mutablelogic/go-taskqueue/pkg/taskqueue"
	schema "github.com/mutablelogic/go-taskqueue/pkg/taskqueue/schema"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// RegisterHandlers registers all task queue HTTP handlers on the provided
// router with the given path prefix. The manager must be non-nil.
func RegisterHandlers(router *http.ServeMux, prefix string, manager *taskqueue.Manager) {
	RegisterQueueHandlers(router, prefix, manager)
	RegisterTaskHandlers(router, prefix, manager)
	RegisterResultHandlers(router, prefix, manager)
	RegisterStatsHandlers(router, prefix, manager)
	RegisterMetricsHandler(router, prefix, manager)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func joinPath(prefix, path string) string {
	return types.JoinPath(prefix, path)
}

// readBody decodes a JSON request body. An empty body and malformed
// task entries are rejected with a stable validation code; any other
// decode failure is a plain bad request.
func readBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return schema.Errf(schema.CodeEmptyRequestBody, "missing request body")
	}
	if err := httprequest.Read(r, v); err != nil {
		var verr *schema.ValidationError
		if errors.As(err, &verr) {
			return verr
		}
		return httpresponse.ErrBadRequest.With(err.Error())
	}
	return nil
}

// queuePath parses the {queue} path value as a queue identifier.
func queuePath(r *http.Request) (uint64, error) {
	queue, err := strconv.ParseUint(r.PathValue("queue"), 10, 64)
	if err != nil || queue == 0 {
		return 0, schema.Errf(schema.CodeInvalidQueueId, "invalid queue identifier %q", r.PathValue("queue"))
	}
	return queue, nil
}

// httperr converts manager errors to appropriate HTTP errors.
// Returns the original error if it's already an httpresponse.Err,
// otherwise maps validation and pg errors to their HTTP equivalents.
func httperr(err error) error {
	if err == nil {
		return nil
	}

	// If already an HTTP error, return as-is
	var httpErr httpresponse.Err
	if errors.As(err, &httpErr) {
		return err
	}

	// Validation errors carry a stable code
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		switch verr.Code {
		case schema.CodeQueueNotExist:
			return httpresponse.ErrNotFound.With(verr.Error())
		case schema.CodeTaskFinalized:
			return httpresponse.ErrConflict.With(verr.Error())
		default:
			return httpresponse.ErrBadRequest.With(verr.Error())
		}
	}

	// Map pg errors to HTTP errors
	switch {
	case errors.Is(err, pg.ErrNotFound):
		return httpresponse.ErrNotFound.With(err.Error())
	case errors.Is(err, pg.ErrBadParameter):
		return httpresponse.ErrBadRequest.With(err.Error())
	case errors.Is(err, pg.ErrNotImplemented):
		return httpresponse.ErrNotImplemented.With(err.Error())
	default:
		return httpresponse.ErrInternalError.With(err.Error())
	}
}
