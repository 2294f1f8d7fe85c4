package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

// HealthHandler exposes liveness and readiness probes over the postgres,
// redis and rabbitmq connections the marketplace runs on.
type HealthHandler struct {
	dbPool      *pgxpool.Pool
	redisClient *redis.Client
	amqpConn    *amqp.Connection
}

func NewHealthHandler(dbPool *pgxpool.Pool, redisClient *redis.Client, amqpConn *amqp.Connection) *HealthHandler {
	return &HealthHandler{dbPool: dbPool, redisClient: redisClient, amqpConn: amqpConn}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz probes every backing service and reports them all, so one degraded
// dependency does not mask the state of the others.
func (h *HealthHandler) Readyz(c *gin.Context) {
	ctx := c.Request.Context()

	checks := map[string]bool{
		"postgres": h.dbPool.Ping(ctx) == nil,
		"redis":    h.redisClient.Ping(ctx).Err() == nil,
		"rabbitmq": !h.amqpConn.IsClosed(),
	}

	resp := gin.H{"status": "ok"}
	code := http.StatusOK
	for name, up := range checks {
		if up {
			resp[name] = "connected"
		} else {
			resp[name] = "unavailable"
			resp["status"] = "error"
			code = http.StatusServiceUnavailable
		}
	}
	c.JSON(code, resp)
}
