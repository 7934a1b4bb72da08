package event_bus

const (
	TimeEntryChangedEvent EventType = "time_entry.changed"
	AmendmentChangedEvent EventType = "amendment.changed"
	ExpenseChangedEvent   EventType = "expense.changed"
	ProjectChangedEvent   EventType = "project.changed"
)

type ChangeKind string

const (
	ChangeCreated  ChangeKind = "created"
	ChangeUpdated  ChangeKind = "updated"
	ChangeDeleted  ChangeKind = "deleted"
	ChangeLocked   ChangeKind = "locked"
	ChangeApproved ChangeKind = "approved"
	ChangeRejected ChangeKind = "rejected"
)

type TimeEntryChanged struct {
	ProjectId int
	EntryId   int
	Kind      ChangeKind
}

type AmendmentChanged struct {
	ProjectId   int
	AmendmentId int
	Kind        ChangeKind
}

type ExpenseChanged struct {
	ProjectId int
	ExpenseId int
	Kind      ChangeKind
}

type ProjectChanged struct {
	ProjectId int
	Kind      ChangeKind
}
