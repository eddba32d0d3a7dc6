package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/LucasLaguilio/Doce-Traco-backend/internal/domain"
	"go.mongodb.org/mongo-driver/mongo"
)

// wrapDriverErr tags a driver failure as a timeout or a generic store error
// so the transport layer can tell them apart with errors.Is.
func wrapDriverErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || mongo.IsTimeout(err) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStore, err)
}
