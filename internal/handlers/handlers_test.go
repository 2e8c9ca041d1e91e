package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"kyccodes/internal/entities"
	"kyccodes/internal/middleware"
	"kyccodes/internal/models"
	"kyccodes/internal/repositories"
	"kyccodes/internal/services"
)

type stubCodeService struct {
	createFn  func(in services.CreateCodeInput) (*models.Code, error)
	getFn     func(id int64) (*models.Code, error)
	verifyFn  func(id int64, value string) (*models.Code, error)
	requestFn func(userID int64, codeType, category string) (*models.Code, error)
}

func (s *stubCodeService) CreateForUser(_ context.Context, in services.CreateCodeInput) (*models.Code, error) {
	return s.createFn(in)
}

func (s *stubCodeService) GetCode(_ context.Context, id int64) (*models.Code, error) {
	return s.getFn(id)
}

func (s *stubCodeService) VerifyCode(_ context.Context, id int64, value string) (*models.Code, error) {
	return s.verifyFn(id, value)
}

func (s *stubCodeService) RequestCode(_ context.Context, userID int64, codeType, category string) (*models.Code, error) {
	return s.requestFn(userID, codeType, category)
}

func (s *stubCodeService) Status(c *models.Code) string { return c.Status }

type stubPhoneService struct {
	records []services.PhoneRecord
	err     error
}

func (s *stubPhoneService) ListPhones(context.Context, int64) ([]services.PhoneRecord, error) {
	return s.records, s.err
}

func init() {
	gin.SetMode(gin.TestMode)
}

// asUser stands in for AuthMiddleware.
func asUser(id int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.CtxUserID, id)
		c.Next()
	}
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeErrors(t *testing.T, w *httptest.ResponseRecorder) []string {
	t.Helper()
	var resp struct {
		Errors []string `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode errors: %v (body %s)", err, w.Body.String())
	}
	return resp.Errors
}

func sampleCode() *models.Code {
	phone := "+77011234567"
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &models.Code{
		ID:          10,
		UserID:      1,
		Type:        models.CodeTypePhone,
		Category:    models.CategoryLogin,
		PhoneNumber: &phone,
		CodeHash:    "$2a$04$secret",
		Status:      models.CodeStatusPending,
		ExpiresAt:   now.Add(10 * time.Minute),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func newManagementRouter(t *testing.T, svc services.CodeService) *gin.Engine {
	h := NewManagementCodeHandler(svc, zaptest.NewLogger(t))
	r := gin.New()
	r.POST("/management/code/create", h.Create)
	r.POST("/management/code/get", h.Get)
	r.POST("/management/code/verify_code", h.Verify)
	return r
}

func TestManagementCreate(t *testing.T) {
	var got services.CreateCodeInput
	svc := &stubCodeService{createFn: func(in services.CreateCodeInput) (*models.Code, error) {
		got = in
		return sampleCode(), nil
	}}
	r := newManagementRouter(t, svc)

	w := doJSON(t, r, http.MethodPost, "/management/code/create", map[string]any{
		"user_uid":     "u-1",
		"type":         "phone",
		"category":     "login",
		"phone_number": "+77011234567",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	want := services.CreateCodeInput{UserUID: "u-1", Type: "phone", Category: "login", PhoneNumber: "+77011234567"}
	if got != want {
		t.Fatalf("input = %+v, want %+v", got, want)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["id"] != float64(10) || body["status"] != "pending" {
		t.Fatalf("unexpected body %v", body)
	}
	if _, leaked := body["code_hash"]; leaked {
		t.Fatal("hash must not be exposed")
	}
	if bytes.Contains(w.Body.Bytes(), []byte("secret")) {
		t.Fatal("response leaks the hash")
	}
}

func TestManagementCreateValidation(t *testing.T) {
	called := false
	svc := &stubCodeService{createFn: func(services.CreateCodeInput) (*models.Code, error) {
		called = true
		return sampleCode(), nil
	}}
	r := newManagementRouter(t, svc)

	tests := []struct {
		name string
		body map[string]any
		want []string
	}{
		{
			name: "missing everything",
			body: map[string]any{},
			want: []string{"management.code.missing_user_uid", "management.code.missing_type", "management.code.missing_category"},
		},
		{
			name: "unknown type and category",
			body: map[string]any{"user_uid": "u-1", "type": "fax", "category": "lottery"},
			want: []string{"management.codes.invalid_type", "management.codes.invalid_category"},
		},
		{
			name: "blank email",
			body: map[string]any{"user_uid": "u-1", "type": "email", "category": "login", "email": " "},
			want: []string{"management.code.invalid_email"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/management/code/create", tt.body)
			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d", w.Code)
			}
			if got := decodeErrors(t, w); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("errors = %v, want %v", got, tt.want)
			}
		})
	}
	if called {
		t.Fatal("service must not be called on invalid input")
	}
}

func TestManagementCreateUserNotFound(t *testing.T) {
	svc := &stubCodeService{createFn: func(services.CreateCodeInput) (*models.Code, error) {
		return nil, services.ErrUserNotFound
	}}
	r := newManagementRouter(t, svc)

	w := doJSON(t, r, http.MethodPost, "/management/code/create", map[string]any{
		"user_uid": "ghost", "type": "email", "category": "login",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decodeErrors(t, w); !reflect.DeepEqual(got, []string{"management.code.user_not_found"}) {
		t.Fatalf("errors = %v", got)
	}
}

func TestManagementGet(t *testing.T) {
	svc := &stubCodeService{getFn: func(id int64) (*models.Code, error) {
		if id != 10 {
			return nil, services.ErrCodeNotFound
		}
		return sampleCode(), nil
	}}
	r := newManagementRouter(t, svc)

	w := doJSON(t, r, http.MethodPost, "/management/code/get", map[string]any{"code_id": 10})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var got entities.Code
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != 10 || got.Type != "phone" || got.Category != "login" {
		t.Fatalf("unexpected entity %+v", got)
	}

	w = doJSON(t, r, http.MethodPost, "/management/code/get", map[string]any{"code_id": 11})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decodeErrors(t, w); !reflect.DeepEqual(got, []string{"management.code.code_not_found"}) {
		t.Fatalf("errors = %v", got)
	}

	w = doJSON(t, r, http.MethodPost, "/management/code/get", map[string]any{})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decodeErrors(t, w); !reflect.DeepEqual(got, []string{"management.code.missing_code_id"}) {
		t.Fatalf("errors = %v", got)
	}
}

func TestManagementVerify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKey    string
	}{
		{name: "ok", wantStatus: http.StatusOK},
		{name: "not found", err: services.ErrCodeNotFound, wantStatus: http.StatusNotFound, wantKey: "management.code.code_not_found"},
		{name: "expired", err: services.ErrCodeExpired, wantStatus: http.StatusUnprocessableEntity, wantKey: "management.code.code_expired"},
		{name: "out of attempts", err: services.ErrCodeOutOfAttempts, wantStatus: http.StatusUnprocessableEntity, wantKey: "management.code.code_out_attempt"},
		{name: "mismatch", err: services.ErrCodeInvalid, wantStatus: http.StatusUnprocessableEntity, wantKey: "management.code.verification_invalid"},
		{name: "already verified", err: services.ErrCodeAlreadyVerified, wantStatus: http.StatusUnprocessableEntity, wantKey: "management.code.code_already_verified"},
		{name: "unexpected", err: errors.New("db down"), wantStatus: http.StatusInternalServerError, wantKey: internalErrorKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotValue string
			svc := &stubCodeService{verifyFn: func(id int64, value string) (*models.Code, error) {
				gotValue = value
				return sampleCode(), tt.err
			}}
			r := newManagementRouter(t, svc)

			w := doJSON(t, r, http.MethodPost, "/management/code/verify_code", map[string]any{
				"code_id":           10,
				"verification_code": " 123456 ",
			})
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if gotValue != "123456" {
				t.Fatalf("value = %q", gotValue)
			}
			if tt.wantKey == "" {
				return
			}
			if got := decodeErrors(t, w); !reflect.DeepEqual(got, []string{tt.wantKey}) {
				t.Fatalf("errors = %v", got)
			}
		})
	}
}

func TestManagementVerifyValidation(t *testing.T) {
	r := newManagementRouter(t, &stubCodeService{})

	w := doJSON(t, r, http.MethodPost, "/management/code/verify_code", map[string]any{})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", w.Code)
	}
	want := []string{"management.code.missing_code_id", "management.code.missing_verification_code"}
	if got := decodeErrors(t, w); !reflect.DeepEqual(got, want) {
		t.Fatalf("errors = %v, want %v", got, want)
	}
}

func newResourceRouter(t *testing.T, svc services.CodeService, userID int64) *gin.Engine {
	h := NewCodeHandler(svc, zaptest.NewLogger(t))
	r := gin.New()
	r.POST("/resource/code/", asUser(userID), h.RequestCode)
	return r
}

func TestRequestCode(t *testing.T) {
	var gotUser int64
	var gotType, gotCategory string
	svc := &stubCodeService{requestFn: func(userID int64, codeType, category string) (*models.Code, error) {
		gotUser, gotType, gotCategory = userID, codeType, category
		return sampleCode(), nil
	}}
	r := newResourceRouter(t, svc, 7)

	w := doJSON(t, r, http.MethodPost, "/resource/code/", map[string]any{"type": "phone", "category": "login"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if w.Body.String() != "{}" {
		t.Fatalf("body = %s", w.Body.String())
	}
	if gotUser != 7 || gotType != "phone" || gotCategory != "login" {
		t.Fatalf("service got (%d, %s, %s)", gotUser, gotType, gotCategory)
	}
}

func TestRequestCodeWithoutPhone(t *testing.T) {
	svc := &stubCodeService{requestFn: func(int64, string, string) (*models.Code, error) {
		return nil, nil
	}}
	r := newResourceRouter(t, svc, 7)

	w := doJSON(t, r, http.MethodPost, "/resource/code/", map[string]any{"type": "phone", "category": "login"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestRequestCodeValidation(t *testing.T) {
	r := newResourceRouter(t, &stubCodeService{}, 7)

	w := doJSON(t, r, http.MethodPost, "/resource/code/", map[string]any{"type": "fax", "category": "nope"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", w.Code)
	}
	want := []string{"resource.user.invalid_type", "resource.user.invalid_category"}
	if got := decodeErrors(t, w); !reflect.DeepEqual(got, want) {
		t.Fatalf("errors = %v, want %v", got, want)
	}
}

func TestRequestCodeThrottled(t *testing.T) {
	svc := &stubCodeService{requestFn: func(int64, string, string) (*models.Code, error) {
		return nil, &services.SendThrottledError{RetryAfter: 41500 * time.Millisecond}
	}}
	r := newResourceRouter(t, svc, 7)

	w := doJSON(t, r, http.MethodPost, "/resource/code/", map[string]any{"type": "email", "category": "login"})
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "42" {
		t.Fatalf("Retry-After = %q", got)
	}
	if got := decodeErrors(t, w); !reflect.DeepEqual(got, []string{"resource.code.too_many_requests"}) {
		t.Fatalf("errors = %v", got)
	}
}

func TestRequestCodeWithoutPrincipal(t *testing.T) {
	h := NewCodeHandler(&stubCodeService{}, zaptest.NewLogger(t))
	r := gin.New()
	r.POST("/resource/code/", h.RequestCode)

	w := doJSON(t, r, http.MethodPost, "/resource/code/", map[string]any{"type": "email", "category": "login"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestListPhones(t *testing.T) {
	validated := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc := &stubPhoneService{records: []services.PhoneRecord{
		{
			Phone: &models.Phone{ID: 1, UserID: 7, Number: "+77011234567"},
			Code:  &models.Code{ID: 3, ValidatedAt: &validated},
		},
		{
			Phone: &models.Phone{ID: 2, UserID: 7, Number: "+77017654321"},
			Code:  &models.Code{ID: 4},
		},
	}}
	h := NewPhoneHandler(svc, entities.NewPhonePresenter(true), zaptest.NewLogger(t))
	r := gin.New()
	r.GET("/resource/phones", asUser(7), h.List)

	w := doJSON(t, r, http.MethodGet, "/resource/phones", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var got []entities.Phone
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].Number != "+770****4567" || got[0].ValidatedAt == nil || !got[0].ValidatedAt.Equal(validated) {
		t.Fatalf("first phone = %+v", got[0])
	}
	if got[1].ValidatedAt != nil {
		t.Fatalf("second phone should be unvalidated: %+v", got[1])
	}
}

type phonesByUser []*models.Phone

func (p phonesByUser) GetByUserID(context.Context, int64) (*models.Phone, error) {
	if len(p) == 0 {
		return nil, repositories.ErrNotFound
	}
	return p[0], nil
}

func (p phonesByUser) ListByUserID(context.Context, int64) ([]*models.Phone, error) {
	return p, nil
}

type codesByID map[int64]*models.Code

func (c codesByID) UpsertPending(context.Context, *models.Code) (*models.Code, error) {
	return nil, errors.New("not supported")
}

func (c codesByID) GetByID(_ context.Context, id int64) (*models.Code, error) {
	if code, ok := c[id]; ok {
		return code, nil
	}
	return nil, repositories.ErrNotFound
}

func (c codesByID) UpdateLocked(context.Context, int64, repositories.CodeUpdateFunc) (*models.Code, error) {
	return nil, errors.New("not supported")
}

func TestListPhonesWithoutCodeRendersUnvalidated(t *testing.T) {
	validated := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	dangling := int64(99)
	linked := int64(3)
	phones := phonesByUser{
		{ID: 1, UserID: 7, Number: "+77011234567"},
		{ID: 2, UserID: 7, Number: "+77017654321", CodeID: &dangling},
		{ID: 3, UserID: 7, Number: "+77010000000", CodeID: &linked},
	}
	codes := codesByID{3: {ID: 3, ValidatedAt: &validated}}
	svc := services.NewPhoneService(phones, codes)
	h := NewPhoneHandler(svc, entities.NewPhonePresenter(false), zaptest.NewLogger(t))
	r := gin.New()
	r.GET("/resource/phones", asUser(7), h.List)

	w := doJSON(t, r, http.MethodGet, "/resource/phones", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var got []entities.Phone
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}
	for i, want := range []string{"+77011234567", "+77017654321"} {
		if got[i].Number != want || got[i].ValidatedAt != nil {
			t.Fatalf("phone %d = %+v, want unvalidated %s", i, got[i], want)
		}
	}
	if got[2].ValidatedAt == nil || !got[2].ValidatedAt.Equal(validated) {
		t.Fatalf("linked phone = %+v", got[2])
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"validated_at":null`)) {
		t.Fatalf("body should carry explicit nulls: %s", w.Body.String())
	}
}

func TestListPhonesServiceFailure(t *testing.T) {
	svc := &stubPhoneService{err: errors.New("db down")}
	h := NewPhoneHandler(svc, entities.NewPhonePresenter(false), zaptest.NewLogger(t))
	r := gin.New()
	r.GET("/resource/phones", asUser(7), h.List)

	w := doJSON(t, r, http.MethodGet, "/resource/phones", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decodeErrors(t, w); !reflect.DeepEqual(got, []string{internalErrorKey}) {
		t.Fatalf("errors = %v", got)
	}
}
