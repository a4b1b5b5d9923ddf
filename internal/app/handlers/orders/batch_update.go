package orders

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/commands"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/dto"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/middleware"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/shared/errs"
)

const batchUpdateKey = "orders.batch_update"

var ErrOrderIDsRequired = errs.Validation("Order IDs are required")

type BatchUpdateOrdersCommand struct {
	UserID   string `validate:"required"`
	IsAdmin  bool
	OrderIDs []string
	Status   string `validate:"required"`
	Note     string `validate:"max=500"`
}

func (c BatchUpdateOrdersCommand) Key() string     { return batchUpdateKey }
func (c BatchUpdateOrdersCommand) ActorID() string { return c.UserID }
func (c BatchUpdateOrdersCommand) Unmanaged()      {}

// BatchUpdateHandler runs one status update per id; each commits on its own.
type BatchUpdateHandler struct {
	Bus    commands.Bus
	Logger *slog.Logger
}

func (h *BatchUpdateHandler) Handle(ctx context.Context, cmd BatchUpdateOrdersCommand) (*dto.BatchResult, error) {
	ids := make([]string, 0, len(cmd.OrderIDs))
	seen := make(map[string]struct{}, len(cmd.OrderIDs))
	for _, raw := range cmd.OrderIDs {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, ErrOrderIDsRequired
	}

	result := &dto.BatchResult{Results: make([]dto.BatchItemResult, 0, len(ids))}
	for _, id := range ids {
		_, err := commands.Dispatch[UpdateOrderStatusCommand, *dto.Order](ctx, h.Bus, UpdateOrderStatusCommand{
			UserID:      cmd.UserID,
			IsAdmin:     cmd.IsAdmin,
			OrderID:     id,
			Status:      cmd.Status,
			Note:        cmd.Note,
			OwnerScoped: true,
		})
		item := dto.BatchItemResult{OrderID: id, Success: err == nil}
		if err != nil {
			item.Kind = string(errs.KindOf(err))
			item.Message = errs.Message(err)
			result.Failed++
		} else {
			result.Succeeded++
		}
		result.Results = append(result.Results, item)
	}
	if h.Logger != nil {
		h.Logger.InfoContext(ctx, "batch order update", "actor", cmd.UserID, "status", cmd.Status, "succeeded", result.Succeeded, "failed", result.Failed)
	}
	return result, nil
}

var _ commands.Handler[BatchUpdateOrdersCommand, *dto.BatchResult] = (*BatchUpdateHandler)(nil)
var _ middleware.UnmanagedCommand = BatchUpdateOrdersCommand{}
