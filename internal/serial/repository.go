package serial

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type Repository interface {
	// Insert claims rec.Serial. When the serial is already taken it returns
	// the record holding it and inserted=false.
	Insert(ctx context.Context, rec *model.SerialRecord) (existing *model.SerialRecord, inserted bool, err error)
	FindBySerial(ctx context.Context, serial string) (*model.SerialRecord, error)
	Delete(ctx context.Context, serial string) error
}
