package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"leavehub/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func Idempotency(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		idempKey := c.GetHeader("Idempotency-Key")
		employeeID := c.GetString("employee_id")

		if idempKey == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		cacheKey := fmt.Sprintf("idemp:%s:%s:%s", c.FullPath(), employeeID, idempKey)
		lockKey := cacheKey + ":lock" // Key khusus untuk locking

		// 1. CEK CACHE: request yang sama sudah pernah sukses
		val, err := rdb.Get(c.Request.Context(), cacheKey).Result()
		if err == nil {
			var cachedRes any
			_ = json.Unmarshal([]byte(val), &cachedRes)
			c.AbortWithStatusJSON(http.StatusOK, response.ApiEnvelope{Ok: true, Data: cachedRes})
			return
		}

		// 2. ATOMIC LOCK (SetNX)
		// Mencoba membuat key 'lock'. Jika sudah ada, berarti request lain sedang jalan.
		// Set expiry pendek (30 detik) agar jika server crash, lock otomatis hilang.
		isNew, _ := rdb.SetNX(c.Request.Context(), lockKey, "locked", 30*time.Second).Result()

		if !isNew {
			// Request ganda terdeteksi saat proses masih berlangsung!
			response.Error(c, http.StatusConflict, "PROCESSING", "Transaksi Anda sedang diproses, mohon tunggu sebentar.", nil)
			c.Abort()
			return
		}

		// Tambahkan lockKey ke context agar bisa dihapus oleh Handler setelah selesai
		c.Set("idempotency_cache_key", cacheKey)
		c.Set("idempotency_lock_key", lockKey)

		c.Next()
	}
}
