package db

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/jobboard/verification/internal/verification/entity"
)

var errScanDelivery = errors.New("db: delivery scan value is not json")

// deliveryColumn maps entity.DeliveryOutcome to the JSONB delivery column.
type deliveryColumn entity.DeliveryOutcome

func (d deliveryColumn) Value() (driver.Value, error) {
	return json.Marshal(entity.DeliveryOutcome(d))
}

func (d *deliveryColumn) Scan(value any) error {
	var bytes []byte

	switch v := value.(type) {
	case nil:
		*d = deliveryColumn{}
		return nil
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errScanDelivery
	}

	var out entity.DeliveryOutcome
	if err := json.Unmarshal(bytes, &out); err != nil {
		return err
	}

	*d = deliveryColumn(out)
	return nil
}
