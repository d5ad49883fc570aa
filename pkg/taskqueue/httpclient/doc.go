// Package httpclient is a client for the task queue HTTP API.
package httpclient
