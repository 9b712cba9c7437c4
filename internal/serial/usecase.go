package serial

import (
	"context"
	"strings"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type UseCase interface {
	Register(ctx context.Context, serial, variantID string) error
	Lookup(ctx context.Context, serial string) (*model.SerialRecord, error)
	Exists(ctx context.Context, serial string) (bool, error)
	Release(ctx context.Context, serial string) error
}

// Normalize is applied to every serial before it is stored or looked up.
func Normalize(serial string) string {
	return strings.ToUpper(strings.TrimSpace(serial))
}
