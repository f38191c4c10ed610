// Package measurement drives the measurement record lifecycle from the
// client side: capture, approve/reject, soft delete and recover. Local
// refusals (wrong state, missing reason, unconfirmed challenge) happen
// before any network call; nothing mutates optimistically.
package measurement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"framecraft/internal/client/captcha"
	"framecraft/internal/client/gateway"
)

// Controller errors reported before any network call
var (
	ErrNotPending      = errors.New("measurement is not pending approval")
	ErrNotDeleted      = errors.New("measurement is not deleted")
	ErrReasonRequired  = errors.New("a non-empty reason is required")
	ErrCaptchaMismatch = errors.New("confirmation code did not match")
)

// Record is a measurement as the backend returns it
type Record struct {
	ID             uint       `json:"id"`
	Number         string     `json:"number"`
	Type           string     `json:"type"`
	PartyName      string     `json:"party_name"`
	Items          []Item     `json:"items"`
	ApprovalStatus string     `json:"approval_status"`
	RejectReason   string     `json:"reject_reason,omitempty"`
	IsDeleted      bool       `json:"is_deleted"`
	DeleteReason   string     `json:"delete_reason,omitempty"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
	CreatedBy      uint       `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Item is one captured row of a measurement
type Item struct {
	Position int    `json:"position"`
	Fields   string `json:"fields"`
}

// Pending reports whether the record still accepts approve/reject
func (r *Record) Pending() bool {
	return !r.IsDeleted && r.ApprovalStatus == "pending_approval"
}

// PromptFunc asks the user to retype a confirmation code. It receives
// the code to display and, when the previous attempt did not match,
// retry=true so the caller can tell the user before showing the fresh
// code. Returning an error aborts the action (user cancelled).
type PromptFunc func(code string, retry bool) (string, error)

// Controller calls the measurement endpoints through the gateway
type Controller struct {
	api *gateway.Client
}

// NewController creates a measurement controller
func NewController(api *gateway.Client) *Controller {
	return &Controller{api: api}
}

type listPayload struct {
	Measurements []Record `json:"measurements"`
}

// List fetches the active (non-deleted) records
func (c *Controller) List(ctx context.Context, page int) ([]Record, error) {
	return c.list(ctx, fmt.Sprintf("/production/measurements?page=%d", page))
}

// ListDeleted fetches the deleted view
func (c *Controller) ListDeleted(ctx context.Context, page int) ([]Record, error) {
	return c.list(ctx, fmt.Sprintf("/production/measurements/deleted?page=%d", page))
}

func (c *Controller) list(ctx context.Context, path string) ([]Record, error) {
	data, err := c.api.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	var payload listPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode measurements: %w", err)
	}
	return payload.Measurements, nil
}

// Get fetches one record by ID
func (c *Controller) Get(ctx context.Context, id uint) (*Record, error) {
	data, err := c.api.Get(ctx, fmt.Sprintf("/production/measurements/%d", id))
	if err != nil {
		return nil, err
	}
	return decodeRecord(data)
}

// CreateInput is the capture form payload
type CreateInput struct {
	Type      string              `json:"type"`
	PartyName string              `json:"party_name"`
	Items     []map[string]string `json:"items"`
}

// Create captures a new record; it comes back pending approval
func (c *Controller) Create(ctx context.Context, input CreateInput) (*Record, error) {
	data, err := c.api.Post(ctx, "/production/measurements", input)
	if err != nil {
		return nil, err
	}
	return decodeRecord(data)
}

// Approve transitions a pending record to approved. Records already
// decided or deleted are refused locally; the server response is the
// source of truth for the new state.
func (c *Controller) Approve(ctx context.Context, rec *Record) (*Record, error) {
	if !rec.Pending() {
		return nil, ErrNotPending
	}

	data, err := c.api.Post(ctx, fmt.Sprintf("/production/measurements/%d/approve", rec.ID), nil)
	if err != nil {
		return nil, err
	}
	return decodeRecord(data)
}

// Reject transitions a pending record to rejected. The reason is
// mandatory and checked before the call goes out.
func (c *Controller) Reject(ctx context.Context, rec *Record, reason string) (*Record, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	if !rec.Pending() {
		return nil, ErrNotPending
	}

	body := map[string]string{"reason": reason}
	data, err := c.api.Post(ctx, fmt.Sprintf("/production/measurements/%d/reject", rec.ID), body)
	if err != nil {
		return nil, err
	}
	return decodeRecord(data)
}

// Delete soft-deletes a record. It requires a non-empty reason and a
// matched confirmation code; both are enforced before the network call.
func (c *Controller) Delete(ctx context.Context, rec *Record, reason string, prompt PromptFunc) (*Record, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}

	if err := confirm(prompt); err != nil {
		return nil, err
	}

	body := map[string]string{"reason": reason}
	data, err := c.api.Delete(ctx, fmt.Sprintf("/production/measurements/%d", rec.ID), body)
	if err != nil {
		return nil, err
	}
	return decodeRecord(data)
}

// Recover restores a deleted record behind the same confirmation gate;
// no reason is needed.
func (c *Controller) Recover(ctx context.Context, rec *Record, prompt PromptFunc) (*Record, error) {
	if !rec.IsDeleted {
		return nil, ErrNotDeleted
	}

	if err := confirm(prompt); err != nil {
		return nil, err
	}

	return c.recover(ctx, rec.ID)
}

// RecoverOutcome is one record's result from a bulk recover
type RecoverOutcome struct {
	ID     uint
	Number string
	Err    error
}

// RecoverAll recovers every currently deleted record behind one
// confirmation gate. Each record's outcome is independent: failures
// are reported per item and nothing is rolled back.
func (c *Controller) RecoverAll(ctx context.Context, prompt PromptFunc) ([]RecoverOutcome, error) {
	deleted, err := c.ListDeleted(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(deleted) == 0 {
		return nil, nil
	}

	if err := confirm(prompt); err != nil {
		return nil, err
	}

	outcomes := make([]RecoverOutcome, 0, len(deleted))
	for _, rec := range deleted {
		_, err := c.recover(ctx, rec.ID)
		outcomes = append(outcomes, RecoverOutcome{ID: rec.ID, Number: rec.Number, Err: err})
	}
	return outcomes, nil
}

func (c *Controller) recover(ctx context.Context, id uint) (*Record, error) {
	data, err := c.api.Post(ctx, fmt.Sprintf("/production/measurements/%d/recover", id), nil)
	if err != nil {
		return nil, err
	}
	return decodeRecord(data)
}

// confirm runs the challenge loop: each attempt gets a fresh one-shot
// code, a mismatch regenerates and re-prompts with retry set, and a
// prompt error (user cancel) aborts the action.
func confirm(prompt PromptFunc) error {
	retry := false
	for {
		challenge, err := captcha.New()
		if err != nil {
			return err
		}

		input, err := prompt(challenge.Code(), retry)
		if err != nil {
			return err
		}

		ok, err := challenge.Confirm(input)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		// Mismatch: loop with a brand new code; the old one is spent.
		retry = true
	}
}

func decodeRecord(data json.RawMessage) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode measurement: %w", err)
	}
	return &rec, nil
}
