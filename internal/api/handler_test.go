package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "docflow/internal/db"
	"docflow/internal/db/repository"
	"docflow/internal/domain"
	"docflow/internal/notify"
	"docflow/internal/service"
)

type apiFixture struct {
	router *chi.Mux
	users  *repository.UserRepo
	docs   *repository.DocumentRepo

	actors map[string]domain.Actor // X-Test-User header -> actor
}

func setupAPI(t *testing.T) *apiFixture {
	t.Helper()
	writeDB, readDB := internaldb.OpenTestSQLite(t)

	documentRepo := repository.NewDocumentRepo(writeDB)
	reviewRepo := repository.NewReviewRepo(writeDB)
	ruleRepo := repository.NewRuleRepo(writeDB)
	userRepo := repository.NewUserRepo(writeDB)
	auditRepo := repository.NewAuditRepo(writeDB)
	metricRepo := repository.NewMetricRepo(writeDB)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reviewSvc := service.NewReviewService(
		writeDB, reviewRepo, repository.NewReviewRepo(readDB),
		documentRepo, ruleRepo, userRepo, auditRepo, metricRepo,
		notify.NopNotifier{}, service.Options{}, logger,
	)

	handler := NewHandler(
		reviewSvc,
		service.NewDocumentService(documentRepo, auditRepo),
		service.NewRuleService(ruleRepo, auditRepo),
		service.NewUserService(userRepo, auditRepo),
		service.NewAuditService(auditRepo),
		service.NewMetricService(metricRepo),
		logger,
	)

	f := &apiFixture{
		users:  userRepo,
		docs:   documentRepo,
		actors: make(map[string]domain.Actor),
	}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if actor, ok := f.actors[req.Header.Get("X-Test-User")]; ok {
				req = req.WithContext(domain.WithActor(req.Context(), actor))
			}
			next.ServeHTTP(w, req)
		})
	})
	handler.Routes(r)
	f.router = r
	return f
}

func (f *apiFixture) addActor(t *testing.T, name string, role domain.Role) *domain.User {
	t.Helper()
	u, err := f.users.Create(t.Context(), &domain.User{
		Name: name, Role: role, Active: true,
	})
	require.NoError(t, err)
	f.actors[name] = domain.Actor{UserID: u.ID, Name: u.Name, Role: u.Role}
	return u
}

func (f *apiFixture) addDoc(t *testing.T, title, docType string) *domain.Document {
	t.Helper()
	d, err := f.docs.Create(t.Context(), &domain.Document{
		Title: title, DocType: docType, CurrentVersion: 1, Status: domain.DocumentActive,
	})
	require.NoError(t, err)
	return d
}

func (f *apiFixture) do(t *testing.T, method, path, asUser string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, buf)
	if asUser != "" {
		req.Header.Set("X-Test-User", asUser)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeReview(t *testing.T, rec *httptest.ResponseRecorder) Review {
	t.Helper()
	var out Review
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestCreateReviewEndpoint_IdempotentStatusCodes(t *testing.T) {
	f := setupAPI(t)
	doc := f.addDoc(t, "Guide", "user_guide")

	body := map[string]interface{}{
		"document_id": doc.ID, "change_id": "chg-1",
		"proposed_version": 2, "impact_score": 4,
	}
	rec := f.do(t, http.MethodPost, "/reviews", "", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decodeReview(t, rec)
	assert.Equal(t, "pending", first.Status)

	// Same change again: 200 with the existing review.
	rec = f.do(t, http.MethodPost, "/reviews", "", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, first.ID, decodeReview(t, rec).ID)
}

func TestCreateReviewEndpoint_Validation(t *testing.T) {
	f := setupAPI(t)

	rec := f.do(t, http.MethodPost, "/reviews", "", map[string]interface{}{
		"document_id": "d", "change_id": "c", "proposed_version": 1, "impact_score": 42,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetReviewEndpoint_NotFound(t *testing.T) {
	f := setupAPI(t)

	rec := f.do(t, http.MethodGet, "/reviews/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReviewLifecycleEndpoints(t *testing.T) {
	f := setupAPI(t)
	doc := f.addDoc(t, "Guide", "user_guide")
	reviewer := f.addActor(t, "reviewer", domain.RoleReviewer)

	rec := f.do(t, http.MethodPost, "/reviews", "", map[string]interface{}{
		"document_id": doc.ID, "change_id": "chg-1",
		"proposed_version": 2, "impact_score": 4,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	review := decodeReview(t, rec)

	// Claim as the reviewer.
	rec = f.do(t, http.MethodPost, "/reviews/"+review.ID+"/claim", "reviewer", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	claimed := decodeReview(t, rec)
	assert.Equal(t, "in_review", claimed.Status)
	require.NotNil(t, claimed.ReviewerID)
	assert.Equal(t, reviewer.ID, *claimed.ReviewerID)

	// Rejection without feedback is a 400.
	rec = f.do(t, http.MethodPost, "/reviews/"+review.ID+"/reject", "reviewer", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Approving with modifications resolves as approved_with_changes.
	rec = f.do(t, http.MethodPost, "/reviews/"+review.ID+"/approve", "reviewer", map[string]interface{}{
		"modifications": map[string]interface{}{"intro": "shorten"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	approved := decodeReview(t, rec)
	assert.Equal(t, "approved_with_changes", approved.Status)

	// Terminal reviews cannot be decided again.
	rec = f.do(t, http.MethodPost, "/reviews/"+review.ID+"/approve", "reviewer", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReviewQueueEndpoint_Ordering(t *testing.T) {
	f := setupAPI(t)
	doc := f.addDoc(t, "Guide", "user_guide")

	for _, c := range []struct {
		change   string
		priority int
	}{{"chg-1", 5}, {"chg-2", 9}, {"chg-3", 5}} {
		rec := f.do(t, http.MethodPost, "/reviews", "", map[string]interface{}{
			"document_id": doc.ID, "change_id": c.change,
			"proposed_version": 2, "impact_score": 3, "priority": c.priority,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := f.do(t, http.MethodGet, "/reviews/queue", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Data       []Review `json:"data"`
		TotalCount int64    `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, int64(3), out.TotalCount)
	require.Len(t, out.Data, 3)
	assert.Equal(t, "chg-2", out.Data[0].ChangeID)
	assert.Equal(t, "chg-1", out.Data[1].ChangeID)
	assert.Equal(t, "chg-3", out.Data[2].ChangeID)
}

func TestAdminEndpoints_RequireAdmin(t *testing.T) {
	f := setupAPI(t)
	f.addActor(t, "reviewer", domain.RoleReviewer)
	f.addActor(t, "admin", domain.RoleAdmin)

	ruleBody := map[string]interface{}{
		"name": "guides", "priority": 5,
		"conditions": map[string]interface{}{"document_types": []string{"user_guide"}},
	}

	rec := f.do(t, http.MethodPost, "/rules", "reviewer", ruleBody)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/rules", "admin", ruleBody)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/audit", "reviewer", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodGet, "/audit", "admin", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDocumentEndpoints(t *testing.T) {
	f := setupAPI(t)

	rec := f.do(t, http.MethodPost, "/documents", "", map[string]interface{}{
		"title": "API Reference", "doc_type": "api_reference",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var doc Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "active", doc.Status)

	rec = f.do(t, http.MethodPost, "/documents", "", map[string]interface{}{"title": "no type"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/documents/"+doc.ID+"/archive", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/documents/"+doc.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "archived", doc.Status)
}
