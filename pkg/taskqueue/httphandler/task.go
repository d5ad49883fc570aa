package httphandler

import (
	"encoding/json"
	"net/http"

	// Packages
	httprequest "github.com/mutablelogic/go-server/pkg/httprequest"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	taskqueue "github.com/mutablelogic/go-taskqueue/pkg/taskqueue"
	schema "github.com/mutablelogic/go-taskqueue/pkg/taskqueue/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type taskDetailsResponse struct {
	Params json.RawMessage `json:"params"`
	Result json.RawMessage `json:"result,omitempty"`
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// RegisterTaskHandlers registers HTTP handlers for claiming tasks and
// submitting their results.
func RegisterTaskHandlers(router *http.ServeMux, prefix string, manager *taskqueue.Manager) {
	router.HandleFunc(joinPath(prefix, "next-available-task"), func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			_ = taskNext(w, r, manager)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	})

	router.HandleFunc(joinPath(prefix, "submit-results"), func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			_ = taskSubmit(w, r, manager)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	})

	router.HandleFunc(joinPath(prefix, "task-details"), func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			_ = taskDetails(w, r, manager)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	})
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func taskNext(w http.ResponseWriter, r *http.Request, manager *taskqueue.Manager) error {
	// Parse request
	var claim schema.TaskClaim
	if err := readBody(r, &claim); err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	// Claim the next task
	task, err := manager.NextTask(r.Context(), claim)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	} else if task == nil {
		// No task available
		w.WriteHeader(http.StatusNoContent)
		return nil
	}

	// Return success
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), task)
}

func taskSubmit(w http.ResponseWriter, r *http.Request, manager *taskqueue.Manager) error {
	// Parse request
	var result schema.TaskResult
	if err := readBody(r, &result); err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	// Finalize the task
	receipt, err := manager.SubmitResult(r.Context(), result)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	// Return success
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), receipt)
}

func taskDetails(w http.ResponseWriter, r *http.Request, manager *taskqueue.Manager) error {
	// Parse request
	var req schema.TaskDetailRequest
	if err := readBody(r, &req); err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	// Look up the task
	detail, err := manager.LookupTask(r.Context(), req.TaskId)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	// Return the parameters and result only
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), taskDetailsResponse{
		Params: detail.Params,
		Result: detail.Result,
	})
}
