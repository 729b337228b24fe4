package slicer

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var rawVersion string

// Version is the release of the slicer module.
var Version = strings.TrimSpace(rawVersion)
