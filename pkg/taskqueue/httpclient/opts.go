package httpclient

import (
	"fmt"
	"net/url"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type opt struct {
	url.Values
}

// Opt is an option to set on the client request.
type Opt func(*opt) error

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func applyOpts(opts ...Opt) (*opt, error) {
	o := new(opt)
	o.Values = make(url.Values)
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

////////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithOffsetLimit sets offset and limit query parameters.
func WithOffsetLimit(offset uint64, limit *uint64) Opt {
	return func(o *opt) error {
		if offset > 0 {
			o.Set("offset", fmt.Sprint(offset))
		}
		if limit != nil {
			o.Set("limit", fmt.Sprint(*limit))
		}
		return nil
	}
}

// WithInterval sets the interval query parameter for statistics requests.
func WithInterval(interval string) Opt {
	return func(o *opt) error {
		if interval != "" {
			o.Set("interval", interval)
		}
		return nil
	}
}

// WithSearch sets the search query parameter.
func WithSearch(search string) Opt {
	return func(o *opt) error {
		if search != "" {
			o.Set("search", search)
		}
		return nil
	}
}

// WithTag sets the tag query parameter.
func WithTag(tag string) Opt {
	return func(o *opt) error {
		if tag != "" {
			o.Set("tag", tag)
		}
		return nil
	}
}

// WithSort sets the sortBy and sortOrder query parameters.
func WithSort(sortBy, sortOrder string) Opt {
	return func(o *opt) error {
		if sortBy != "" {
			o.Set("sortBy", sortBy)
		}
		if sortOrder != "" {
			o.Set("sortOrder", sortOrder)
		}
		return nil
	}
}

// WithStatus sets the status query parameter for task list requests.
func WithStatus(status string) Opt {
	return func(o *opt) error {
		if status != "" {
			o.Set("status", status)
		}
		return nil
	}
}

// WithAll requests the full task list instead of a snapshot.
func WithAll() Opt {
	return func(o *opt) error {
		o.Set("all", "true")
		return nil
	}
}

// OptSet is a generic option to set a query parameter.
func OptSet(key, value string) Opt {
	return func(o *opt) error {
		if value != "" {
			o.Set(key, value)
		}
		return nil
	}
}
