// Package httphandler exposes the task queue over HTTP: queue lifecycle,
// task claim and result submission, completion waiting, and the
// statistics and metrics views.
package httphandler
