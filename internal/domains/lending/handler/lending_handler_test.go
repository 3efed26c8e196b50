package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	bookModel "library-backend/internal/domains/book/model"
	"library-backend/internal/domains/lending/model"
	memberModel "library-backend/internal/domains/member/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	ensureErr error
	books     []bookModel.Book
	members   []memberModel.Member
	checkout  func(req model.CheckoutRequest) (*model.CheckoutResult, error)
	giveBack  func(req model.ReturnRequest) (*model.ReturnResult, error)

	lastRequest model.LendingRequest
}

func (s *stubService) EnsureCatalog(context.Context) error { return s.ensureErr }

func (s *stubService) Checkout(_ context.Context, req model.CheckoutRequest) (*model.CheckoutResult, error) {
	s.lastRequest = req
	return s.checkout(req)
}

func (s *stubService) Return(_ context.Context, req model.ReturnRequest) (*model.ReturnResult, error) {
	s.lastRequest = req
	return s.giveBack(req)
}

func (s *stubService) ListAvailableBooks(context.Context) ([]bookModel.Book, error) {
	if s.ensureErr != nil {
		return nil, s.ensureErr
	}
	return s.books, nil
}

func (s *stubService) ListMembers(context.Context) ([]memberModel.Member, error) {
	if s.ensureErr != nil {
		return nil, s.ensureErr
	}
	return s.members, nil
}

func (s *stubService) SweepExpiredPenalties(context.Context) (int64, error) { return 0, nil }

func setupRouter(svc *stubService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewLendingHandler(svc, "Eigen Library 1.0")
	r.GET("/", h.Home)
	r.GET("/list-book", h.ListBooks)
	r.GET("/list-member", h.ListMembers)
	r.POST("/checkout", h.Checkout)
	r.POST("/return", h.Return)
	return r
}

func doJSON(r http.Handler, path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doGet(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestLendingHandler_Home(t *testing.T) {
	t.Run("banner", func(t *testing.T) {
		w := doGet(setupRouter(&stubService{}), "/")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Eigen Library 1.0", w.Body.String())
	})

	t.Run("banner even when store is empty", func(t *testing.T) {
		w := doGet(setupRouter(&stubService{ensureErr: model.NewUninitializedStoreError()}), "/")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Eigen Library 1.0", w.Body.String())
	})

	t.Run("store failure", func(t *testing.T) {
		w := doGet(setupRouter(&stubService{ensureErr: errors.New("dial tcp: refused")}), "/")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "refused")
	})
}

func TestLendingHandler_Lists(t *testing.T) {
	svc := &stubService{
		books:   []bookModel.Book{{Code: "JK-45", Title: "Harry Potter", Author: "J.K Rowling", Stock: 1, Version: 4}},
		members: []memberModel.Member{{Code: "M001", Name: "Angga", BookDetail: []memberModel.BorrowedBook{}}},
	}
	r := setupRouter(svc)

	w := doGet(r, "/list-book")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"code":"JK-45","title":"Harry Potter","author":"J.K Rowling","stock":1}]`, w.Body.String())

	w = doGet(r, "/list-member")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"code":"M001","name":"Angga","bookDetail":[],"isPenalized":false,"penalizedAt":null}]`, w.Body.String())
}

func TestLendingHandler_ListsUninitialized(t *testing.T) {
	r := setupRouter(&stubService{ensureErr: model.NewUninitializedStoreError()})

	w := doGet(r, "/list-book")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Error, The systems failed to load books or members", w.Body.String())
}

func TestLendingHandler_Checkout(t *testing.T) {
	svc := &stubService{
		checkout: func(req model.CheckoutRequest) (*model.CheckoutResult, error) {
			return &model.CheckoutResult{Book: &bookModel.Book{Code: req.BookCode, Title: "Harry Potter"}}, nil
		},
	}
	r := setupRouter(svc)

	t.Run("json body", func(t *testing.T) {
		w := doJSON(r, "/checkout", `{"member_code":"M001","book_code":"JK-45"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Successfully checkout Harry Potter", w.Body.String())
		assert.Equal(t, model.LendingRequest{MemberCode: "M001", BookCode: "JK-45"}, svc.lastRequest)
	})

	t.Run("form body", func(t *testing.T) {
		form := url.Values{"member_code": {"M002"}, "book_code": {"TW-11"}}
		req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, model.LendingRequest{MemberCode: "M002", BookCode: "TW-11"}, svc.lastRequest)
	})

	t.Run("malformed json reaches validation with empty fields", func(t *testing.T) {
		w := doJSON(r, "/checkout", `{"member_code":`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, model.LendingRequest{}, svc.lastRequest)
	})
}

func TestLendingHandler_ValidationError(t *testing.T) {
	svc := &stubService{
		checkout: func(req model.CheckoutRequest) (*model.CheckoutResult, error) {
			return nil, errors.Join(model.ErrValidation, req.Validate())
		},
	}

	w := doJSON(setupRouter(svc), "/checkout", `{"book_code":"JK-45"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body model.ValidationErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Errors, 1)
	assert.Equal(t, model.FieldError{Msg: "member_code is required.", Param: "member_code", Location: "body"}, body.Errors[0])
}

func TestLendingHandler_DomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"out of stock", model.NewOutOfStockError("Harry Potter"), http.StatusNotFound, "Sorry Harry Potter is already borrowed"},
		{"limit", model.NewBorrowLimitReachedError(2), http.StatusBadRequest, "Sorry, you've already borrowed 2 books, return it first"},
		{"not matched", model.NewNotBorrowedByMemberError(), http.StatusBadRequest, "Error, the returned book is not matched with any of your borrowed book"},
		{"conflict", model.ErrConcurrentUpdate, http.StatusConflict, "Error, the request conflicted with a concurrent update, please retry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{
				giveBack: func(model.ReturnRequest) (*model.ReturnResult, error) { return nil, tt.err },
			}

			w := doJSON(setupRouter(svc), "/return", `{"member_code":"M001","book_code":"JK-45"}`)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestLendingHandler_ReturnPenalized(t *testing.T) {
	svc := &stubService{
		giveBack: func(model.ReturnRequest) (*model.ReturnResult, error) {
			return &model.ReturnResult{Book: &bookModel.Book{Title: "Twilight"}, Penalized: true}, nil
		},
	}

	w := doJSON(setupRouter(svc), "/return", `{"member_code":"M001","book_code":"TW-11"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Successfully returned Twilight, But you've got Penalized", w.Body.String())
}

func TestLendingHandler_InternalError(t *testing.T) {
	svc := &stubService{
		giveBack: func(model.ReturnRequest) (*model.ReturnResult, error) {
			return nil, errors.New("pg: connection closed")
		},
	}

	w := doJSON(setupRouter(svc), "/return", `{"member_code":"M001","book_code":"TW-11"}`)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"error":{"code":"INTERNAL_SERVER_ERROR","message":"Internal server error"}}`, w.Body.String())
}
