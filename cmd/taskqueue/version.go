package main

import (
	"encoding/json"

	// Packages
	"github.com/mutablelogic/go-taskqueue/pkg/version"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func VersionJSON() string {
	data, err := json.MarshalIndent(version.Map(), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
