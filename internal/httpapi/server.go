// Package httpapi implements the Request Handler Glue (spec.md §4.6): it
// maps HTTP methods to coordinator calls, manages per-request locking,
// generates request IDs and access-log lines, and translates coordinator
// outcomes into the authoritative status codes of spec.md §6.
//
// The router and access-logging middleware are grounded on the teacher's
// control-plane API (pkg/controlplane/api/router.go): the same chi
// middleware ordering (RealIP, a request-ID middleware, a custom request
// logger, Recoverer)
// generalized to this service's single-resource surface and its own
// request-ID/access-log line format.
package httpapi

import (
	"github.com/ericlee/eoss/internal/coordinator"
	"github.com/ericlee/eoss/internal/lock"
	"github.com/ericlee/eoss/internal/logger"
)

// Server holds everything a request handler needs: the coordinator, the
// lock manager, the configured version salt, the SAFEMODE switch, and the
// two logs the glue writes to.
type Server struct {
	coordinator *coordinator.Coordinator
	locks       *lock.Manager
	versionSalt string
	safeMode    bool
	accessLog   *logger.Logger
	appLog      *logger.Logger
}

// NewServer wires the glue layer to its collaborators.
func NewServer(coord *coordinator.Coordinator, locks *lock.Manager, versionSalt string, safeMode bool, accessLog, appLog *logger.Logger) *Server {
	return &Server{
		coordinator: coord,
		locks:       locks,
		versionSalt: versionSalt,
		safeMode:    safeMode,
		accessLog:   accessLog,
		appLog:      appLog,
	}
}
