package httphandler

import (
	"net/http"

	// Packages
	httprequest "github.com/mutablelogic/go-server/pkg/httprequest"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	taskqueue "github.com/mutablelogic/go-taskqueue/pkg/taskqueue"
	schema "github.com/mutablelogic/go-taskqueue/pkg/taskqueue/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type createQueueRequest struct {
	schema.QueueMeta
	Tasks []schema.TaskMeta `json:"tasks"`
}

type addTasksRequest struct {
	Queue   uint64               `json:"queue"`
	Tasks   []schema.TaskMeta    `json:"tasks"`
	Options *schema.QueueOptions `json:"options,omitempty"`
}

type addTasksResponse struct {
	Queue    uint64 `json:"queue"`
	NumTasks uint64 `json:"numTasks"`
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// RegisterQueueHandlers registers HTTP handlers for queue lifecycle
// operations on the provided router with the given path prefix.
func RegisterQueueHandlers(router *http.ServeMux, prefix string, manager *taskqueue.Manager) {
	router.HandleFunc(joinPath(prefix, "create-queue"), func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			_ = queueCreate(w, r, manager)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	})

	router.HandleFunc(joinPath(prefix, "add-tasks"), func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			_ = tasksAdd(w, r, manager)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	})

	router.HandleFunc(joinPath(prefix, "check-queue"), func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			_ = queueCheck(w, r, manager)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	})

	router.HandleFunc(joinPath(prefix, "delete-queue/{queue}"), func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodDelete:
			_ = queueDelete(w, r, manager)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	})

	router.HandleFunc(joinPath(prefix, "delete-everything"), func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodDelete:
			_ = deleteEverything(w, r, manager)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	})

	router.HandleFunc(joinPath(prefix, "status/{queue}"), func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = queueStatus(w, r, manager)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	})
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func queueCreate(w http.ResponseWriter, r *http.Request, manager *taskqueue.Manager) error {
	// Parse request
	var req createQueueRequest
	if err := readBody(r, &req); err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	// Create the queue and its tasks atomically
	response, err := manager.CreateQueue(r.Context(), req.QueueMeta, req.Tasks)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	// Return success
	return httpresponse.JSON(w, http.StatusCreated, httprequest.Indent(r), response)
}

func tasksAdd(w http.ResponseWriter, r *http.Request, manager *taskqueue.Manager) error {
	// Parse request
	var req addTasksRequest
	if err := readBody(r, &req); err != nil {
		return httpresponse.Error(w, httperr(err))
	}
	if req.Queue == 0 {
		return httpresponse.Error(w, httperr(schema.Errf(schema.CodeMissingQueueId, "missing queue identifier")))
	}

	// Insert the tasks
	count, err := manager.AddTasks(r.Context(), req.Queue, req.Tasks, req.Options)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	// Return success
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), addTasksResponse{
		Queue:    req.Queue,
		NumTasks: count,
	})
}

func queueCheck(w http.ResponseWriter, r *http.Request, manager *taskqueue.Manager) error {
	// Parse request
	var req schema.QueueCheckRequest
	if err := readBody(r, &req); err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	// Locate the queue
	queue, err := manager.CheckQueue(r.Context(), req)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	// Return success
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), queue)
}

func queueDelete(w http.ResponseWriter, r *http.Request, manager *taskqueue.Manager) error {
	queue, err := queuePath(r)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	deleted, err := manager.DeleteQueue(r.Context(), queue)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	// Return success
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), deleted)
}

func deleteEverything(w http.ResponseWriter, r *http.Request, manager *taskqueue.Manager) error {
	if err := manager.DeleteEverything(r.Context()); err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	// Return success
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func queueStatus(w http.ResponseWriter, r *http.Request, manager *taskqueue.Manager) error {
	queue, err := queuePath(r)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	status, err := manager.Status(r.Context(), queue)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	// Return success
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), status)
}
