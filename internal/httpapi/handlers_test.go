package httpapi

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ericlee/eoss/internal/coordinator"
	"github.com/ericlee/eoss/internal/lock"
	"github.com/ericlee/eoss/internal/mds"
)

func newTestServer(t *testing.T, safeMode bool) (*Server, http.Handler, *mds.Pool) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "mds.sql")
	pool, err := mds.Open(dbPath, "metadata")
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	s, err := pool.NewSession()
	require.NoError(t, err)
	require.NoError(t, s.Exec(mds.CreateTableStatement(pool.Table())))
	require.NoError(t, s.Commit())
	require.NoError(t, s.Close())

	coord := coordinator.New(pool, t.TempDir())
	locks := lock.NewManager(t.TempDir())

	srv := NewServer(coord, locks, "snoopy", safeMode, nil, nil)
	return srv, srv.NewRouter(), pool
}

func TestRoundTripPutGetHeadDelete(t *testing.T) {
	_, router, _ := newTestServer(t, false)

	putReq := httptest.NewRequest(http.MethodPut, "/eoss/v1/object/hello.txt", strings.NewReader("hi"))
	putW := httptest.NewRecorder()
	router.ServeHTTP(putW, putReq)
	require.Equal(t, http.StatusCreated, putW.Code)
	require.NotEmpty(t, putW.Header().Get("X-EOSS-Request-ID"))

	getReq := httptest.NewRequest(http.MethodGet, "/eoss/v1/object/hello.txt", nil)
	getW := httptest.NewRecorder()
	router.ServeHTTP(getW, getReq)
	require.Equal(t, http.StatusOK, getW.Code)
	require.Equal(t, "hi", getW.Body.String())

	headReq := httptest.NewRequest(http.MethodHead, "/eoss/v1/object/hello.txt", nil)
	headW := httptest.NewRecorder()
	router.ServeHTTP(headW, headReq)
	require.Equal(t, http.StatusOK, headW.Code)

	delReq := httptest.NewRequest(http.MethodDelete, "/eoss/v1/object/hello.txt", nil)
	delW := httptest.NewRecorder()
	router.ServeHTTP(delW, delReq)
	require.Equal(t, http.StatusOK, delW.Code)

	headReq2 := httptest.NewRequest(http.MethodHead, "/eoss/v1/object/hello.txt", nil)
	headW2 := httptest.NewRecorder()
	router.ServeHTTP(headW2, headReq2)
	require.Equal(t, http.StatusNotFound, headW2.Code)
}

func TestVersionedCoexistence(t *testing.T) {
	_, router, _ := newTestServer(t, false)

	putA := httptest.NewRequest(http.MethodPut, "/eoss/v1/object/hello.txt", strings.NewReader("A"))
	putA.Header.Set("X-EOSS-Object-Version", "a")
	wA := httptest.NewRecorder()
	router.ServeHTTP(wA, putA)
	require.Equal(t, http.StatusCreated, wA.Code)

	putB := httptest.NewRequest(http.MethodPut, "/eoss/v1/object/hello.txt", strings.NewReader("B"))
	putB.Header.Set("X-EOSS-Object-Version", "b")
	wB := httptest.NewRecorder()
	router.ServeHTTP(wB, putB)
	require.Equal(t, http.StatusCreated, wB.Code)

	getA := httptest.NewRequest(http.MethodGet, "/eoss/v1/object/hello.txt", nil)
	getA.Header.Set("X-EOSS-Object-Version", "a")
	gwA := httptest.NewRecorder()
	router.ServeHTTP(gwA, getA)
	require.Equal(t, "A", gwA.Body.String())

	getB := httptest.NewRequest(http.MethodGet, "/eoss/v1/object/hello.txt", nil)
	getB.Header.Set("X-EOSS-Object-Version", "b")
	gwB := httptest.NewRecorder()
	router.ServeHTTP(gwB, getB)
	require.Equal(t, "B", gwB.Body.String())
}

func TestSafeModeBlocksMutationsOnly(t *testing.T) {
	_, router, _ := newTestServer(t, true)

	putReq := httptest.NewRequest(http.MethodPut, "/eoss/v1/object/hello.txt", strings.NewReader("hi"))
	putW := httptest.NewRecorder()
	router.ServeHTTP(putW, putReq)
	require.Equal(t, 525, putW.Code)

	delReq := httptest.NewRequest(http.MethodDelete, "/eoss/v1/object/hello.txt", nil)
	delW := httptest.NewRecorder()
	router.ServeHTTP(delW, delReq)
	require.Equal(t, 525, delW.Code)

	getReq := httptest.NewRequest(http.MethodGet, "/eoss/v1/object/hello.txt", nil)
	getW := httptest.NewRecorder()
	router.ServeHTTP(getW, getReq)
	require.Equal(t, http.StatusNotFound, getW.Code)

	statsReq := httptest.NewRequest(http.MethodGet, "/eoss/v1/stats", nil)
	statsW := httptest.NewRecorder()
	router.ServeHTTP(statsW, statsReq)
	require.Equal(t, http.StatusOK, statsW.Code)
}

func TestWriteConflictOnConcurrentExclusiveLock(t *testing.T) {
	srv, router, _ := newTestServer(t, false)

	putReq := httptest.NewRequest(http.MethodPut, "/eoss/v1/object/big.bin", strings.NewReader("x"))
	putW := httptest.NewRecorder()
	router.ServeHTTP(putW, putReq)
	require.Equal(t, http.StatusCreated, putW.Code)

	name := objectNameFor(srv, "big.bin")
	held, err := srv.locks.AcquireExclusive(name)
	require.NoError(t, err)
	defer srv.locks.Release(held)

	delReq := httptest.NewRequest(http.MethodDelete, "/eoss/v1/object/big.bin", nil)
	delW := httptest.NewRecorder()
	router.ServeHTTP(delW, delReq)
	require.Equal(t, http.StatusConflict, delW.Code)
	require.Equal(t, "Object Write Conflict", delW.Body.String())
}

func TestUnknownRouteRewrittenTo403(t *testing.T) {
	_, router, _ := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodGet, "/not-a-real-route", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestInitStateReturns440(t *testing.T) {
	srv, router, pool := newTestServer(t, false)
	name := objectNameFor(srv, "stuck-init.txt")

	session, err := srv.coordinator.CheckExists(name)
	require.NoError(t, err)
	require.Equal(t, coordinator.Absent, session)

	insertInitRow(t, pool, name, "stuck-init.txt")

	headReq := httptest.NewRequest(http.MethodHead, "/eoss/v1/object/stuck-init.txt", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, headReq)
	require.Equal(t, 440, w.Code)
}

func objectNameFor(srv *Server, filename string) string {
	req := httptest.NewRequest(http.MethodHead, "/eoss/v1/object/"+filename, nil)
	_, version, name := srv.objectName(req)
	_ = version
	return name
}

func insertInitRow(t *testing.T, pool *mds.Pool, objectName, filename string) {
	t.Helper()

	s, err := pool.NewSession()
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Exec(
		fmt.Sprintf("INSERT INTO %s (id, filename, version, size, timestamp, state) VALUES (?, ?, NULL, NULL, NULL, 1)", s.Table()),
		objectName, filename,
	))
	require.NoError(t, s.Commit())
}
