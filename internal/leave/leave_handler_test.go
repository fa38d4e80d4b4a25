package leave_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"leavehub/internal/effect"
	"leavehub/internal/leave"
	leaveerrors "leavehub/internal/leave/errors"
	"leavehub/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type fakeLeaveService struct {
	CreateFn        func(ctx context.Context, actorID string, req leave.CreateLeaveRequest) (leave.LeaveResponse, error)
	GetAllFn        func(ctx context.Context, actorID, actorRole string, all bool) ([]leave.LeaveResponse, error)
	GetByIDFn       func(ctx context.Context, actorID, actorRole, id string) (leave.LeaveResponse, error)
	SubmitFn        func(ctx context.Context, actorID, id string) (leave.LeaveResponse, error)
	ApproveFn       func(ctx context.Context, actorID, actorRole, id string) (leave.LeaveResponse, error)
	RejectFn        func(ctx context.Context, actorID, id, reason string) (leave.LeaveResponse, error)
	WithdrawFn      func(ctx context.Context, actorID, id string) (leave.LeaveResponse, error)
	RevertFn        func(ctx context.Context, actorID, id, note string) (leave.LeaveResponse, error)
	ListEffectsFn   func(ctx context.Context, actorID, actorRole, id string) ([]leave.EffectResponse, error)
	RedriveEffectFn func(ctx context.Context, actorID, id, effectID string) (leave.EffectResponse, error)
}

func (f *fakeLeaveService) Create(ctx context.Context, actorID string, req leave.CreateLeaveRequest) (leave.LeaveResponse, error) {
	return f.CreateFn(ctx, actorID, req)
}
func (f *fakeLeaveService) GetAll(ctx context.Context, actorID, actorRole string, all bool) ([]leave.LeaveResponse, error) {
	return f.GetAllFn(ctx, actorID, actorRole, all)
}
func (f *fakeLeaveService) GetByID(ctx context.Context, actorID, actorRole, id string) (leave.LeaveResponse, error) {
	return f.GetByIDFn(ctx, actorID, actorRole, id)
}
func (f *fakeLeaveService) Submit(ctx context.Context, actorID, id string) (leave.LeaveResponse, error) {
	return f.SubmitFn(ctx, actorID, id)
}
func (f *fakeLeaveService) Approve(ctx context.Context, actorID, actorRole, id string) (leave.LeaveResponse, error) {
	return f.ApproveFn(ctx, actorID, actorRole, id)
}
func (f *fakeLeaveService) Reject(ctx context.Context, actorID, id, reason string) (leave.LeaveResponse, error) {
	return f.RejectFn(ctx, actorID, id, reason)
}
func (f *fakeLeaveService) Withdraw(ctx context.Context, actorID, id string) (leave.LeaveResponse, error) {
	return f.WithdrawFn(ctx, actorID, id)
}
func (f *fakeLeaveService) Revert(ctx context.Context, actorID, id, note string) (leave.LeaveResponse, error) {
	return f.RevertFn(ctx, actorID, id, note)
}
func (f *fakeLeaveService) ListEffects(ctx context.Context, actorID, actorRole, id string) ([]leave.EffectResponse, error) {
	return f.ListEffectsFn(ctx, actorID, actorRole, id)
}
func (f *fakeLeaveService) RedriveEffect(ctx context.Context, actorID, id, effectID string) (leave.EffectResponse, error) {
	return f.RedriveEffectFn(ctx, actorID, id, effectID)
}

func sampleResponse(actorID string) leave.LeaveResponse {
	return leave.LeaveResponse{
		ID:            uuid.New().String(),
		RequestNumber: "LR-000042",
		EmployeeID:    actorID,
		LeaveType:     "ANNUAL",
		StartDate:     "2026-09-07",
		EndDate:       "2026-09-09",
		Days:          decimal.NewFromInt(3),
		Status:        leave.StatusDraft,
		ApprovalTier:  leave.TierManager,
		Version:       1,
	}
}

func newLeaveTestContext(t *testing.T, method, target, body, actorID, role string) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set("employee_id", actorID)
	c.Set("role", role)
	return w, c
}

func TestLeaveHandler_Create(t *testing.T) {
	actorID := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		svc := &fakeLeaveService{
			CreateFn: func(ctx context.Context, actor string, req leave.CreateLeaveRequest) (leave.LeaveResponse, error) {
				assert.Equal(t, actorID, actor)
				assert.Equal(t, "ANNUAL", req.LeaveType)
				assert.Equal(t, "2026-09-07", req.StartDate)
				return sampleResponse(actor), nil
			},
		}
		h := leave.NewHandler(svc, nil)

		body := `{"leave_type":"ANNUAL","start_date":"2026-09-07","end_date":"2026-09-09","reason":"family trip"}`
		w, c := newLeaveTestContext(t, http.MethodPost, "/leaves", body, actorID, "employee")

		h.Create(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), "LR-000042")
		assert.Contains(t, w.Body.String(), "DRAFT")
	})

	t.Run("success caches the response for replay", func(t *testing.T) {
		rdb, rMock := redismock.NewClientMock()
		svc := &fakeLeaveService{
			CreateFn: func(ctx context.Context, actor string, req leave.CreateLeaveRequest) (leave.LeaveResponse, error) {
				return sampleResponse(actor), nil
			},
		}
		h := leave.NewHandler(svc, rdb)

		body := `{"leave_type":"ANNUAL","start_date":"2026-09-07","end_date":"2026-09-09"}`
		w, c := newLeaveTestContext(t, http.MethodPost, "/leaves", body, actorID, "employee")
		c.Set("idempotency_cache_key", "idemp:/leaves:actor:key-1")
		c.Set("idempotency_lock_key", "idemp:/leaves:actor:key-1:lock")

		rMock.Regexp().ExpectSet("idemp:/leaves:actor:key-1", `.*LR-000042.*`, 24*time.Hour).SetVal("OK")
		rMock.ExpectDel("idemp:/leaves:actor:key-1:lock").SetVal(1)

		h.Create(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NoError(t, rMock.ExpectationsWereMet())
	})

	t.Run("negative validation error", func(t *testing.T) {
		svc := &fakeLeaveService{}
		h := leave.NewHandler(svc, nil)

		w, c := newLeaveTestContext(t, http.MethodPost, "/leaves", `{}`, actorID, "employee")

		h.Create(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Input tidak valid")
	})

	t.Run("negative service error is mapped", func(t *testing.T) {
		svc := &fakeLeaveService{
			CreateFn: func(ctx context.Context, actor string, req leave.CreateLeaveRequest) (leave.LeaveResponse, error) {
				return leave.LeaveResponse{}, leaveerrors.ErrHalfDayMultiDay
			},
		}
		h := leave.NewHandler(svc, nil)

		body := `{"leave_type":"ANNUAL","start_date":"2026-09-07","end_date":"2026-09-09","half_day":true}`
		w, c := newLeaveTestContext(t, http.MethodPost, "/leaves", body, actorID, "employee")

		h.Create(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), apperror.CodeInvalidInput)
	})
}

func TestLeaveHandler_GetAll(t *testing.T) {
	actorID := uuid.New().String()

	t.Run("success with pagination", func(t *testing.T) {
		svc := &fakeLeaveService{
			GetAllFn: func(ctx context.Context, actor, role string, all bool) ([]leave.LeaveResponse, error) {
				assert.False(t, all)
				resp := make([]leave.LeaveResponse, 0, 3)
				for i := 0; i < 3; i++ {
					resp = append(resp, sampleResponse(actor))
				}
				return resp, nil
			},
		}
		h := leave.NewHandler(svc, nil)

		router := setupLeaveRouter(actorID, "employee")
		router.GET("/leaves", h.GetAll)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/leaves?page=2&page_size=2", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"total":3`)
		assert.Contains(t, w.Body.String(), `"page":2`)
	})

	t.Run("success all flag reaches the service", func(t *testing.T) {
		svc := &fakeLeaveService{
			GetAllFn: func(ctx context.Context, actor, role string, all bool) ([]leave.LeaveResponse, error) {
				assert.True(t, all)
				assert.Equal(t, "manager", role)
				return nil, nil
			},
		}
		h := leave.NewHandler(svc, nil)

		router := setupLeaveRouter(actorID, "manager")
		router.GET("/leaves", h.GetAll)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/leaves?all=true", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("negative forbidden is mapped", func(t *testing.T) {
		svc := &fakeLeaveService{
			GetAllFn: func(ctx context.Context, actor, role string, all bool) ([]leave.LeaveResponse, error) {
				return nil, apperror.ErrForbidden
			},
		}
		h := leave.NewHandler(svc, nil)

		router := setupLeaveRouter(actorID, "employee")
		router.GET("/leaves", h.GetAll)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/leaves?all=true", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func setupLeaveRouter(actorID, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("employee_id", actorID)
		c.Set("role", role)
		c.Next()
	})
	return router
}

func TestLeaveHandler_GetById(t *testing.T) {
	actorID := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		leaveID := uuid.New().String()
		svc := &fakeLeaveService{
			GetByIDFn: func(ctx context.Context, actor, role, id string) (leave.LeaveResponse, error) {
				assert.Equal(t, leaveID, id)
				resp := sampleResponse(actor)
				resp.ID = leaveID
				return resp, nil
			},
		}
		h := leave.NewHandler(svc, nil)

		router := setupLeaveRouter(actorID, "employee")
		router.GET("/leaves/:id", h.GetById)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/leaves/"+leaveID, nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), leaveID)
	})

	t.Run("negative not found", func(t *testing.T) {
		svc := &fakeLeaveService{
			GetByIDFn: func(ctx context.Context, actor, role, id string) (leave.LeaveResponse, error) {
				return leave.LeaveResponse{}, leaveerrors.ErrLeaveNotFound
			},
		}
		h := leave.NewHandler(svc, nil)

		router := setupLeaveRouter(actorID, "employee")
		router.GET("/leaves/:id", h.GetById)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/leaves/"+uuid.New().String(), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), apperror.CodeNotFound)
	})
}

func TestLeaveHandler_Submit(t *testing.T) {
	actorID := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		leaveID := uuid.New().String()
		svc := &fakeLeaveService{
			SubmitFn: func(ctx context.Context, actor, id string) (leave.LeaveResponse, error) {
				assert.Equal(t, actorID, actor)
				assert.Equal(t, leaveID, id)
				resp := sampleResponse(actor)
				resp.Status = leave.StatusPending
				resp.Version = 2
				return resp, nil
			},
		}
		h := leave.NewHandler(svc, nil)

		router := setupLeaveRouter(actorID, "employee")
		router.POST("/leaves/:id/submit", h.Submit)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/leaves/"+leaveID+"/submit", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "PENDING")
	})

	t.Run("negative overlap conflict", func(t *testing.T) {
		svc := &fakeLeaveService{
			SubmitFn: func(ctx context.Context, actor, id string) (leave.LeaveResponse, error) {
				return leave.LeaveResponse{}, leaveerrors.ErrLeaveOverlap
			},
		}
		h := leave.NewHandler(svc, nil)

		router := setupLeaveRouter(actorID, "employee")
		router.POST("/leaves/:id/submit", h.Submit)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/leaves/"+uuid.New().String()+"/submit", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), apperror.CodeOverlap)
	})

	t.Run("negative insufficient balance conflict", func(t *testing.T) {
		svc := &fakeLeaveService{
			SubmitFn: func(ctx context.Context, actor, id string) (leave.LeaveResponse, error) {
				return leave.LeaveResponse{}, leaveerrors.ErrInsufficientBalance
			},
		}
		h := leave.NewHandler(svc, nil)

		router := setupLeaveRouter(actorID, "employee")
		router.POST("/leaves/:id/submit", h.Submit)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/leaves/"+uuid.New().String()+"/submit", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), apperror.CodeInsufficientBalance)
	})
}

func TestLeaveHandler_Approve(t *testing.T) {
	actorID := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		svc := &fakeLeaveService{
			ApproveFn: func(ctx context.Context, actor, role, id string) (leave.LeaveResponse, error) {
				assert.Equal(t, "manager", role)
				resp := sampleResponse(uuid.New().String())
				resp.Status = leave.StatusApprovedPendingSync
				return resp, nil
			},
		}
		h := leave.NewHandler(svc, nil)

		router := setupLeaveRouter(actorID, "manager")
		router.POST("/leaves/:id/approve", h.Approve)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/leaves/"+uuid.New().String()+"/approve", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "APPROVED_PENDING_SYNC")
	})

	t.Run("negative escalated tier", func(t *testing.T) {
		svc := &fakeLeaveService{
			ApproveFn: func(ctx context.Context, actor, role, id string) (leave.LeaveResponse, error) {
				return leave.LeaveResponse{}, leaveerrors.ErrEscalatedTierRequired
			},
		}
		h := leave.NewHandler(svc, nil)

		router := setupLeaveRouter(actorID, "manager")
		router.POST("/leaves/:id/approve", h.Approve)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/leaves/"+uuid.New().String()+"/approve", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestLeaveHandler_Reject(t *testing.T) {
	actorID := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		svc := &fakeLeaveService{
			RejectFn: func(ctx context.Context, actor, id, reason string) (leave.LeaveResponse, error) {
				assert.Equal(t, "coverage too thin", reason)
				resp := sampleResponse(uuid.New().String())
				resp.Status = leave.StatusRejected
				return resp, nil
			},
		}
		h := leave.NewHandler(svc, nil)

		body := `{"reason":"coverage too thin"}`
		w, c := newLeaveTestContext(t, http.MethodPost, "/leaves/x/reject", body, actorID, "manager")
		c.Params = gin.Params{{Key: "id", Value: uuid.New().String()}}

		h.Reject(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "REJECTED")
	})

	t.Run("negative missing reason body", func(t *testing.T) {
		svc := &fakeLeaveService{}
		h := leave.NewHandler(svc, nil)

		w, c := newLeaveTestContext(t, http.MethodPost, "/leaves/x/reject", `{}`, actorID, "manager")
		c.Params = gin.Params{{Key: "id", Value: uuid.New().String()}}

		h.Reject(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Input tidak valid")
	})
}

func TestLeaveHandler_Withdraw(t *testing.T) {
	actorID := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		svc := &fakeLeaveService{
			WithdrawFn: func(ctx context.Context, actor, id string) (leave.LeaveResponse, error) {
				resp := sampleResponse(actor)
				resp.Status = leave.StatusWithdrawn
				return resp, nil
			},
		}
		h := leave.NewHandler(svc, nil)

		router := setupLeaveRouter(actorID, "employee")
		router.POST("/leaves/:id/withdraw", h.Withdraw)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/leaves/"+uuid.New().String()+"/withdraw", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "WITHDRAWN")
	})

	t.Run("negative invalid transition", func(t *testing.T) {
		svc := &fakeLeaveService{
			WithdrawFn: func(ctx context.Context, actor, id string) (leave.LeaveResponse, error) {
				return leave.LeaveResponse{}, leaveerrors.ErrInvalidStatusTransition
			},
		}
		h := leave.NewHandler(svc, nil)

		router := setupLeaveRouter(actorID, "employee")
		router.POST("/leaves/:id/withdraw", h.Withdraw)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/leaves/"+uuid.New().String()+"/withdraw", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), apperror.CodeInvalidTransition)
	})
}

func TestLeaveHandler_Revert(t *testing.T) {
	actorID := uuid.New().String()

	t.Run("success with empty body", func(t *testing.T) {
		svc := &fakeLeaveService{
			RevertFn: func(ctx context.Context, actor, id, note string) (leave.LeaveResponse, error) {
				assert.Empty(t, note)
				resp := sampleResponse(uuid.New().String())
				resp.Status = leave.StatusReverted
				return resp, nil
			},
		}
		h := leave.NewHandler(svc, nil)

		router := setupLeaveRouter(actorID, "manager")
		router.POST("/leaves/:id/revert", h.Revert)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/leaves/"+uuid.New().String()+"/revert", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "REVERTED")
	})

	t.Run("success with note", func(t *testing.T) {
		svc := &fakeLeaveService{
			RevertFn: func(ctx context.Context, actor, id, note string) (leave.LeaveResponse, error) {
				assert.Equal(t, "booked by mistake", note)
				resp := sampleResponse(uuid.New().String())
				resp.Status = leave.StatusReverted
				return resp, nil
			},
		}
		h := leave.NewHandler(svc, nil)

		body := `{"note":"booked by mistake"}`
		w, c := newLeaveTestContext(t, http.MethodPost, "/leaves/x/revert", body, actorID, "manager")
		c.Params = gin.Params{{Key: "id", Value: uuid.New().String()}}

		h.Revert(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestLeaveHandler_Effects(t *testing.T) {
	actorID := uuid.New().String()

	t.Run("success lists the journal", func(t *testing.T) {
		svc := &fakeLeaveService{
			ListEffectsFn: func(ctx context.Context, actor, role, id string) ([]leave.EffectResponse, error) {
				return []leave.EffectResponse{
					{ID: uuid.New().String(), Kind: effect.KindCalendarCreate, Status: effect.StatusSucceeded, Attempts: 1},
					{ID: uuid.New().String(), Kind: effect.KindSheetUpsert, Status: effect.StatusFailedRetryable, Attempts: 3, LastError: "http 502"},
				}, nil
			},
		}
		h := leave.NewHandler(svc, nil)

		router := setupLeaveRouter(actorID, "employee")
		router.GET("/leaves/:id/effects", h.ListEffects)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/leaves/"+uuid.New().String()+"/effects", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "calendar_create")
		assert.Contains(t, w.Body.String(), "failed_retryable")
	})

	t.Run("success redrive", func(t *testing.T) {
		leaveID := uuid.New().String()
		effectID := uuid.New().String()
		svc := &fakeLeaveService{
			RedriveEffectFn: func(ctx context.Context, actor, id, eid string) (leave.EffectResponse, error) {
				assert.Equal(t, leaveID, id)
				assert.Equal(t, effectID, eid)
				return leave.EffectResponse{ID: eid, Kind: effect.KindCalendarCreate, Status: effect.StatusPending}, nil
			},
		}
		h := leave.NewHandler(svc, nil)

		router := setupLeaveRouter(actorID, "hr")
		router.POST("/leaves/:id/effects/:effectID/redrive", h.RedriveEffect)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/leaves/"+leaveID+"/effects/"+effectID+"/redrive", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "pending")
	})

	t.Run("negative redrive on a succeeded record", func(t *testing.T) {
		svc := &fakeLeaveService{
			RedriveEffectFn: func(ctx context.Context, actor, id, eid string) (leave.EffectResponse, error) {
				return leave.EffectResponse{}, leaveerrors.ErrEffectNotRedrivable
			},
		}
		h := leave.NewHandler(svc, nil)

		router := setupLeaveRouter(actorID, "hr")
		router.POST("/leaves/:id/effects/:effectID/redrive", h.RedriveEffect)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/leaves/"+uuid.New().String()+"/effects/"+uuid.New().String()+"/redrive", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), apperror.CodeInvalidState)
	})
}
