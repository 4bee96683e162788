package event

import (
	"github.com/erp/costing/internal/domain/costing"
)

// RegisterCostingEvents registers the costing domain events with the serializer
func RegisterCostingEvents(serializer *EventSerializer) {
	serializer.Register(costing.EventTypeLayerOpened, &costing.LayerOpenedEvent{})
	serializer.Register(costing.EventTypeLayersConsumed, &costing.LayersConsumedEvent{})
	serializer.Register(costing.EventTypeCostsApportioned, &costing.CostsApportionedEvent{})
}
