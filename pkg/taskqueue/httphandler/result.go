package httphandler

import (
	"net/http"

	// Packages
	httprequest "github.com/mutablelogic/go-server/pkg/httprequest"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	taskqueue "github.com/mutablelogic/go-taskqueue/pkg/taskqueue"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// RegisterResultHandlers registers HTTP handlers for fetching queue
// results, immediately or by waiting for completion.
func RegisterResultHandlers(router *http.ServeMux, prefix string, manager *taskqueue.Manager) {
	router.HandleFunc(joinPath(prefix, "get-results/{queue}"), func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = resultsGet(w, r, manager)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	})

	router.HandleFunc(joinPath(prefix, "completed-results/{queue}"), func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = resultsWait(w, r, manager)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	})
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func resultsGet(w http.ResponseWriter, r *http.Request, manager *taskqueue.Manager) error {
	queue, err := queuePath(r)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	results, err := manager.Results(r.Context(), queue)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	} else if len(results) == 0 {
		// No results yet
		w.WriteHeader(http.StatusNoContent)
		return nil
	}

	// Return success
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), results)
}

// resultsWait blocks until the queue has been fully processed, or until
// the long-poll timeout elapses. A disconnected client releases its
// waiter through the request context.
func resultsWait(w http.ResponseWriter, r *http.Request, manager *taskqueue.Manager) error {
	queue, err := queuePath(r)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	results, err := manager.WaitForResults(r.Context(), queue)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	} else if results == nil {
		// The queue did not complete before the timeout
		w.WriteHeader(http.StatusNoContent)
		return nil
	}

	// Return success
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), results)
}
