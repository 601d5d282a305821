package models

// TicketStatus tracks a support ticket through its lifecycle.
type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketOpen, TicketInProgress, TicketResolved, TicketClosed:
		return true
	}
	return false
}

// Ticket is a support request raised by a staff user.
type Ticket struct {
	BaseModel

	Subject     string               `gorm:"type:varchar(200);not null" json:"subject"`
	Description string               `gorm:"type:text" json:"description"`
	Status      TicketStatus         `gorm:"type:varchar(16);not null;default:'open';index" json:"status"`
	Priority    NotificationPriority `gorm:"type:varchar(16);not null;default:'medium'" json:"priority"`
	CreatedByID string               `gorm:"type:uuid;not null;index" json:"created_by_id"`
	OrgID       *string              `gorm:"column:organization_id;type:uuid;index" json:"organization_id"`

	CreatedBy *User         `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	Replies   []TicketReply `gorm:"foreignKey:TicketID;constraint:OnDelete:CASCADE" json:"replies,omitempty"`
}

// OrganizationID returns the tenant id or an empty string.
func (t *Ticket) OrganizationID() string {
	if t.OrgID == nil {
		return ""
	}
	return *t.OrgID
}

// TicketReply is a message appended to a ticket thread.
type TicketReply struct {
	BaseModel

	TicketID string `gorm:"type:uuid;not null;index" json:"ticket_id"`
	AuthorID string `gorm:"type:uuid;not null" json:"author_id"`
	Message  string `gorm:"type:text;not null" json:"message"`
}
