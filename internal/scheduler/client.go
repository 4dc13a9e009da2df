package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"schadenportal_backend/platform/config"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Client enqueues background tasks. It implements the retry enqueuer the
// assignment coordinator uses for failed commission derivations.
type Client struct {
	client *asynq.Client
	queue  string
}

// NewClient creates an asynq client from the scheduler configuration.
func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	opt, err := redisConnOpt(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{
		client: asynq.NewClient(opt),
		queue:  cfg.GetAsynqQueueName(),
	}, nil
}

func redisConnOpt(cfg config.SchedulerConfig) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return asynq.RedisClientOpt{}, fmt.Errorf("parse redis URL: %w", err)
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if cfg.GetRedisTLSInsecure() {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if cfg.GetRedisTLSInsecure() {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}

// EnqueueOfferSweep schedules one sweep pass.
func (c *Client) EnqueueOfferSweep(ctx context.Context) error {
	_, err := c.client.EnqueueContext(ctx, NewOfferSweepTask(),
		asynq.Queue(c.queue),
		asynq.MaxRetry(3),
		// Collapse overlapping enqueues from restarted tickers.
		asynq.TaskID(TaskOfferSweep),
		asynq.Retention(time.Minute),
	)
	if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		return fmt.Errorf("enqueue offer sweep: %w", err)
	}
	return nil
}

// EnqueueCommissionDerive schedules an asynchronous derivation retry.
func (c *Client) EnqueueCommissionDerive(ctx context.Context, orderID, partnerID, assignmentID uuid.UUID) error {
	task, err := NewCommissionDeriveTask(CommissionDerivePayload{
		OrderID:      orderID,
		PartnerID:    partnerID,
		AssignmentID: assignmentID,
	})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.MaxRetry(10),
		asynq.ProcessIn(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("enqueue commission derive: %w", err)
	}
	return nil
}

// Close releases the underlying redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}
