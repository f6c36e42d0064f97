package enums

// OutboxAggregateType names the entity an outbox event is about. The
// aggregate id doubles as the broker partition key.
type OutboxAggregateType string

const (
	AggregateOrder   OutboxAggregateType = "order"
	AggregateProduct OutboxAggregateType = "product"
	AggregateEnquiry OutboxAggregateType = "enquiry"
)

func (a OutboxAggregateType) IsValid() bool {
	switch a {
	case AggregateOrder, AggregateProduct, AggregateEnquiry:
		return true
	}
	return false
}

// OutboxEventType names a domain event. Values are also topic suffixes, so
// renaming one moves its consumers.
type OutboxEventType string

const (
	EventOrderCreated       OutboxEventType = "order_created"
	EventOrderStatusChanged OutboxEventType = "order_status_changed"
	EventOrderPaid          OutboxEventType = "order_paid"
	EventReviewAdded        OutboxEventType = "review_added"
	EventEnquiryReceived    OutboxEventType = "enquiry_received"
)

func (e OutboxEventType) IsValid() bool {
	switch e {
	case EventOrderCreated, EventOrderStatusChanged, EventOrderPaid, EventReviewAdded, EventEnquiryReceived:
		return true
	}
	return false
}
