package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/ericlee/eoss/internal/coordinator"
	"github.com/ericlee/eoss/internal/eosserrors"
	"github.com/ericlee/eoss/internal/lock"
	"github.com/ericlee/eoss/internal/objectname"
)

func respond(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if body != "" {
		_, _ = w.Write([]byte(body))
	}
}

func (s *Server) objectName(r *http.Request) (filename, version, objectName string) {
	filename = chi.URLParam(r, "filename")
	version = r.Header.Get("X-EOSS-Object-Version")
	objectName = objectname.Encode(filename, s.versionSalt, version)
	return
}

func (s *Server) acquireExclusiveOrRespond(w http.ResponseWriter, name string) (*lock.Handle, bool) {
	h, err := s.locks.AcquireExclusive(name)
	if err != nil {
		if e, ok := eosserrors.AsError(err); ok && e.Code == eosserrors.ErrLockBusy {
			respond(w, http.StatusConflict, "Object Write Conflict")
			return nil, false
		}
		s.writeError(w, err)
		return nil, false
	}
	return h, true
}

func (s *Server) acquireSharedOrRespond(w http.ResponseWriter, name string) (*lock.Handle, bool) {
	h, err := s.locks.AcquireShared(name)
	if err != nil {
		if e, ok := eosserrors.AsError(err); ok && e.Code == eosserrors.ErrLockBusy {
			respond(w, http.StatusConflict, "Object Read Conflict")
			return nil, false
		}
		s.writeError(w, err)
		return nil, false
	}
	return h, true
}

// writeError maps a coordinator/eosserrors failure to its status code and
// body text (spec.md §6's status code matrix).
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, coordinator.ErrObjectAbsent):
		respond(w, http.StatusNotFound, "Object Does Not Exist")
		return
	case errors.Is(err, coordinator.ErrObjectInitialized):
		respond(w, 440, "Object Initialized Only")
		return
	case errors.Is(err, coordinator.ErrObjectStaged):
		respond(w, 441, "Object Saved Not Closed")
		return
	case errors.Is(err, coordinator.ErrObjectLost):
		respond(w, 524, "Object MDS Closed Not In Local")
		return
	}

	e, ok := eosserrors.AsError(err)
	if !ok {
		if s.appLog != nil {
			s.appLog.Exception("unmapped internal failure", err)
		}
		respond(w, 523, "EOSS Internal Exception Failure")
		return
	}

	if s.appLog != nil {
		s.appLog.Exception(e.Code.String(), err)
	}

	switch e.Code {
	case eosserrors.ErrConnect:
		respond(w, 520, "MDS Connection Failure")
	case eosserrors.ErrExec:
		respond(w, 521, "MDS Execution Failure")
	case eosserrors.ErrCommit:
		respond(w, 522, "MDS Commit Failure")
	case eosserrors.ErrLockBusy:
		respond(w, http.StatusConflict, "Object Write Conflict")
	case eosserrors.ErrRollbackOk:
		respond(w, 526, "EOSS Rollback Done")
	case eosserrors.ErrRollbackPartial:
		respond(w, 527, "EOSS Rollback Failed")
	default:
		respond(w, 523, "EOSS Internal Exception Failure")
	}
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	if s.safeMode {
		respond(w, 525, "EOSS Safemode Enabled")
		return
	}

	filename, version, name := s.objectName(r)

	handle, ok := s.acquireExclusiveOrRespond(w, name)
	if !ok {
		return
	}
	defer s.locks.Release(handle)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		respond(w, 523, "EOSS Internal Exception Failure")
		return
	}

	if err := s.coordinator.Put(name, filename, version, body); err != nil {
		s.writeError(w, err)
		return
	}

	respond(w, http.StatusCreated, "Object Uploaded")
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	filename, _, name := s.objectName(r)

	handle, ok := s.acquireSharedOrRespond(w, name)
	if !ok {
		return
	}

	existence, err := s.coordinator.CheckExists(name)
	if err != nil {
		s.locks.Release(handle)
		s.writeError(w, err)
		return
	}

	switch existence {
	case coordinator.Absent:
		s.locks.Release(handle)
		respond(w, http.StatusNotFound, "Object Does Not Exist")
		return
	case coordinator.Init:
		s.locks.Release(handle)
		respond(w, 440, "Object Initialized Only")
		return
	case coordinator.Staged:
		s.locks.Release(handle)
		respond(w, 441, "Object Saved Not Closed")
		return
	case coordinator.Lost:
		s.locks.Release(handle)
		respond(w, 524, "Object MDS Closed Not In Local")
		return
	}

	f, err := os.Open(s.coordinator.FinalPath(name))
	// The shared lock only needs to cover the existence check; it is safe
	// to release before streaming (spec.md §9, §4.3).
	s.locks.Release(handle)
	if err != nil {
		respond(w, 523, "EOSS Internal Exception Failure")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, f)
}

func (s *Server) handleHead(w http.ResponseWriter, r *http.Request) {
	_, _, name := s.objectName(r)

	handle, ok := s.acquireSharedOrRespond(w, name)
	if !ok {
		return
	}
	defer s.locks.Release(handle)

	existence, err := s.coordinator.CheckExists(name)
	if err != nil {
		s.writeError(w, err)
		return
	}

	switch existence {
	case coordinator.Absent:
		respond(w, http.StatusNotFound, "Object Does Not Exist")
	case coordinator.Init:
		respond(w, 440, "Object Initialized Only")
	case coordinator.Staged:
		respond(w, 441, "Object Saved Not Closed")
	case coordinator.Lost:
		respond(w, 524, "Object MDS Closed Not In Local")
	case coordinator.Present:
		respond(w, http.StatusOK, "Object Exists")
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if s.safeMode {
		respond(w, 525, "EOSS Safemode Enabled")
		return
	}

	_, _, name := s.objectName(r)

	handle, ok := s.acquireExclusiveOrRespond(w, name)
	if !ok {
		return
	}
	defer s.locks.Release(handle)

	if err := s.coordinator.Delete(name); err != nil {
		s.writeError(w, err)
		return
	}

	respond(w, http.StatusOK, "Object Deleted")
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.coordinator.Stats()
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(stats)
}

func (s *Server) handleUnknownRoute(w http.ResponseWriter, r *http.Request) {
	// A bare 404 from the router is rewritten to 403 (spec.md §4.6):
	// deliberate surface-hardening so unmapped routes don't reveal routing
	// structure through a distinguishable status code.
	w.WriteHeader(http.StatusForbidden)
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusMethodNotAllowed, "Bad Method")
}
