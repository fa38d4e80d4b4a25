package leave

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"leavehub/internal/shared/apperror"
	"leavehub/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	rdb     *redis.Client
	logger  *zap.Logger
}

func NewHandler(service Service, rdb *redis.Client, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("leave.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.handler")
	}
	return &Handler{service: service, rdb: rdb, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("leave request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

// releaseIdempotencyLock melepas lock middleware apa pun hasil handler.
// Dipanggil lewat defer di semua handler mutasi.
func (h *Handler) releaseIdempotencyLock(c *gin.Context) {
	if h.rdb == nil {
		return
	}
	lockKey, _ := c.Get("idempotency_lock_key")
	if lk, ok := lockKey.(string); ok && lk != "" {
		h.rdb.Del(c.Request.Context(), lk)
	}
}

// cacheIdempotentResponse menyimpan respons sukses untuk replay 24 jam.
func (h *Handler) cacheIdempotentResponse(c *gin.Context, resp any) {
	if h.rdb == nil {
		return
	}
	cacheKey, _ := c.Get("idempotency_cache_key")
	if ck, ok := cacheKey.(string); ok && ck != "" {
		if payload, marshalErr := json.Marshal(resp); marshalErr == nil {
			_ = h.rdb.Set(c.Request.Context(), ck, string(payload), 24*time.Hour).Err()
		}
	}
}

func (h *Handler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	actorID := c.GetString("employee_id")
	h.logger.Debug("http create leave", zap.String("actor_id", actorID))
	defer h.releaseIdempotencyLock(c)

	var req CreateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http create leave validation failed", zap.Error(err))
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Input tidak valid", err.Error())
		return
	}

	resp, err := h.service.Create(ctx, actorID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.cacheIdempotentResponse(c, resp)
	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) GetAll(c *gin.Context) {
	ctx := c.Request.Context()
	actorID := c.GetString("employee_id")
	actorRole := c.GetString("role")
	all, _ := strconv.ParseBool(c.DefaultQuery("all", "false"))
	h.logger.Debug("http get all leaves",
		zap.String("actor_id", actorID),
		zap.Bool("all", all),
	)

	resp, err := h.service.GetAll(ctx, actorID, actorRole, all)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if pageSize < 1 {
		pageSize = 10
	}

	total := int64(len(resp))
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(resp) {
		start = len(resp)
	}
	if end > len(resp) {
		end = len(resp)
	}

	meta := response.NewPaginationMeta(total, page, pageSize)
	response.Success(c, http.StatusOK, resp[start:end], &meta)
}

func (h *Handler) GetById(c *gin.Context) {
	ctx := c.Request.Context()
	leaveID := c.Param("id")
	h.logger.Debug("http get leave by id", zap.String("leave_id", leaveID))

	resp, err := h.service.GetByID(ctx, c.GetString("employee_id"), c.GetString("role"), leaveID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Submit(c *gin.Context) {
	ctx := c.Request.Context()
	actorID := c.GetString("employee_id")
	leaveID := c.Param("id")
	h.logger.Debug("http submit leave",
		zap.String("leave_id", leaveID),
		zap.String("actor_id", actorID),
	)
	defer h.releaseIdempotencyLock(c)

	resp, err := h.service.Submit(ctx, actorID, leaveID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.cacheIdempotentResponse(c, resp)
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Approve(c *gin.Context) {
	ctx := c.Request.Context()
	leaveID := c.Param("id")
	h.logger.Debug("http approve leave", zap.String("leave_id", leaveID))
	defer h.releaseIdempotencyLock(c)

	resp, err := h.service.Approve(ctx, c.GetString("employee_id"), c.GetString("role"), leaveID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.cacheIdempotentResponse(c, resp)
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Reject(c *gin.Context) {
	ctx := c.Request.Context()
	leaveID := c.Param("id")
	h.logger.Debug("http reject leave", zap.String("leave_id", leaveID))
	defer h.releaseIdempotencyLock(c)

	var req RejectLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http reject leave validation failed", zap.Error(err))
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Input tidak valid", err.Error())
		return
	}

	resp, err := h.service.Reject(ctx, c.GetString("employee_id"), leaveID, req.Reason)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.cacheIdempotentResponse(c, resp)
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Withdraw(c *gin.Context) {
	ctx := c.Request.Context()
	leaveID := c.Param("id")
	h.logger.Debug("http withdraw leave", zap.String("leave_id", leaveID))
	defer h.releaseIdempotencyLock(c)

	resp, err := h.service.Withdraw(ctx, c.GetString("employee_id"), leaveID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.cacheIdempotentResponse(c, resp)
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Revert(c *gin.Context) {
	ctx := c.Request.Context()
	leaveID := c.Param("id")
	h.logger.Debug("http revert leave", zap.String("leave_id", leaveID))
	defer h.releaseIdempotencyLock(c)

	// Body opsional; catatan kosong sah.
	var req RevertLeaveRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Warn("http revert leave validation failed", zap.Error(err))
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Input tidak valid", err.Error())
			return
		}
	}

	resp, err := h.service.Revert(ctx, c.GetString("employee_id"), leaveID, req.Note)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.cacheIdempotentResponse(c, resp)
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) ListEffects(c *gin.Context) {
	ctx := c.Request.Context()
	leaveID := c.Param("id")
	h.logger.Debug("http list leave effects", zap.String("leave_id", leaveID))

	resp, err := h.service.ListEffects(ctx, c.GetString("employee_id"), c.GetString("role"), leaveID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) RedriveEffect(c *gin.Context) {
	ctx := c.Request.Context()
	leaveID := c.Param("id")
	effectID := c.Param("effectID")
	h.logger.Debug("http redrive leave effect",
		zap.String("leave_id", leaveID),
		zap.String("effect_id", effectID),
	)
	defer h.releaseIdempotencyLock(c)

	resp, err := h.service.RedriveEffect(ctx, c.GetString("employee_id"), leaveID, effectID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.cacheIdempotentResponse(c, resp)
	response.Success(c, http.StatusOK, resp, nil)
}
