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

type queuesDetailsResponse struct {
	schema.QueueList
	TotalPages uint64 `json:"total_pages"`
}

type queueCountsResponse struct {
	schema.Counts
	CompletedQueues   []uint64 `json:"completed_queues,omitempty"`
	CompletedLastHour uint64   `json:"completed_last_hour"`
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// RegisterStatsHandlers registers HTTP handlers for the dashboard and
// statistics views.
func RegisterStatsHandlers(router *http.ServeMux, prefix string, manager *taskqueue.Manager) {
	router.HandleFunc(joinPath(prefix, "tasks-stats"), func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = tasksStats(w, r, manager)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	})

	router.HandleFunc(joinPath(prefix, "recent-queues"), func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = recentQueues(w, r, manager)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	})

	router.HandleFunc(joinPath(prefix, "queues-details"), func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = queuesDetails(w, r, manager)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	})

	router.HandleFunc(joinPath(prefix, "queue-details/{queue}"), func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = queueDetails(w, r, manager)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	})

	router.HandleFunc(joinPath(prefix, "queue-counts"), func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = queueCounts(w, r, manager)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	})
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func tasksStats(w http.ResponseWriter, r *http.Request, manager *taskqueue.Manager) error {
	// Parse request
	var req schema.StatsRequest
	if err := httprequest.Query(r.URL.Query(), &req); err != nil {
		return httpresponse.Error(w, err)
	}

	// Gather the counters
	stats, err := manager.TaskStats(r.Context(), req)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	// Return success
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), stats)
}

func recentQueues(w http.ResponseWriter, r *http.Request, manager *taskqueue.Manager) error {
	response, err := manager.RecentQueues(r.Context())
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	// Return success
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), response)
}

func queuesDetails(w http.ResponseWriter, r *http.Request, manager *taskqueue.Manager) error {
	// Parse request
	var req schema.QueueListRequest
	if err := httprequest.Query(r.URL.Query(), &req); err != nil {
		return httpresponse.Error(w, err)
	}

	// List the queues
	list, err := manager.ListQueues(r.Context(), req)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	// Compute the page count from the filtered total
	limit := uint64(schema.QueueListLimit)
	if req.Limit != nil && *req.Limit > 0 {
		limit = *req.Limit
	}
	response := queuesDetailsResponse{QueueList: *list}
	response.TotalPages = (list.Count + limit - 1) / limit

	// Return success
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), response)
}

func queueDetails(w http.ResponseWriter, r *http.Request, manager *taskqueue.Manager) error {
	queue, err := queuePath(r)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	// Parse request
	var req schema.TaskListRequest
	if err := httprequest.Query(r.URL.Query(), &req); err != nil {
		return httpresponse.Error(w, err)
	}
	req.Queue = queue

	// Gather the composite view
	detail, err := manager.QueueDetail(r.Context(), req)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	// Return success
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), detail)
}

func queueCounts(w http.ResponseWriter, r *http.Request, manager *taskqueue.Manager) error {
	counts, err := manager.Counts(r.Context())
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}
	completed, err := manager.CompletedQueues(r.Context())
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}
	lastHour, err := manager.CompletedLastHour(r.Context())
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	// Return success
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), queueCountsResponse{
		Counts:            *counts,
		CompletedQueues:   completed.Body,
		CompletedLastHour: lastHour,
	})
}
