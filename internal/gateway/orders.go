package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"coziyoo-seed/internal/model"
)

type orderPayload struct {
	SellerID        string                `json:"sellerId"`
	DeliveryType    string                `json:"deliveryType"`
	DeliveryAddress model.DeliveryAddress `json:"deliveryAddress"`
	Items           []model.OrderItem     `json:"items"`
}

// SubmitOrder places an order for the buyer. A 429 answer is retried under the
// client's order policy with the same Idempotency-Key on every attempt. Any
// other non-201 answer, a transport error, or running out of attempts yields a
// *model.OrderSubmissionError; those are never retried because the effect of
// the request on the server is unknown.
func (c *Client) SubmitOrder(ctx context.Context, buyerToken string, req model.OrderRequest) (model.OrderConfirmation, error) {
	if req.IdempotencyKey == "" {
		return model.OrderConfirmation{}, &model.OrderSubmissionError{Err: fmt.Errorf("idempotency key is required")}
	}

	headers := map[string]string{
		"Authorization":   "Bearer " + buyerToken,
		"Idempotency-Key": req.IdempotencyKey,
	}
	payload := orderPayload{
		SellerID:        req.SellerID,
		DeliveryType:    "delivery",
		DeliveryAddress: req.DeliveryAddress,
		Items:           req.Items,
	}

	var (
		lastStatus   int
		lastBody     string
		confirmation model.OrderConfirmation
	)

	policy := c.orderRetry
	policy.Retryable = func(err error) bool {
		return errors.Is(err, model.ErrRateLimited)
	}
	policy.Notify = func(err error, attempt int, delay time.Duration) {
		c.logger.Warn().
			Str("idempotency_key", req.IdempotencyKey).
			Int("attempt", attempt).
			Int("max_attempts", c.orderRetry.MaxAttempts).
			Dur("retry_in", delay).
			Msg("rate limited, retrying order")
	}

	attempts, err := policy.Do(ctx, func(attempt int) error {
		status, raw, err := c.postJSON(ctx, "/v1/orders", headers, payload)
		lastStatus, lastBody = status, string(raw)
		if err != nil {
			return err
		}

		switch status {
		case http.StatusCreated:
			data, err := decodeData[model.OrderConfirmation](raw)
			if err == nil && data.OrderID == "" {
				err = fmt.Errorf("response is missing order id")
			}
			if err != nil {
				return fmt.Errorf("order may have been created: %w", err)
			}
			confirmation = data
			return nil
		case http.StatusTooManyRequests:
			return model.ErrRateLimited
		default:
			return errUnexpectedStatus
		}
	})
	if err != nil {
		return model.OrderConfirmation{}, &model.OrderSubmissionError{
			IdempotencyKey: req.IdempotencyKey,
			StatusCode:     lastStatus,
			Body:           lastBody,
			Attempts:       attempts,
			Err:            err,
		}
	}

	return confirmation, nil
}
