package model

import "time"

// ContactSubject 咨询主题
type ContactSubject string

const (
	SubjectVolunteer   ContactSubject = "volunteer"
	SubjectDonation    ContactSubject = "donation"
	SubjectPartnership ContactSubject = "partnership"
	SubjectGeneral     ContactSubject = "general"
	SubjectTechnical   ContactSubject = "technical"
)

func (s ContactSubject) IsValid() bool {
	switch s {
	case SubjectVolunteer, SubjectDonation, SubjectPartnership, SubjectGeneral, SubjectTechnical:
		return true
	}
	return false
}

// Priority 工单优先级，创建时由主题决定，之后不再重新计算
func (s ContactSubject) Priority() ContactPriority {
	switch s {
	case SubjectTechnical:
		return PriorityHigh
	case SubjectGeneral:
		return PriorityLow
	}
	return PriorityMedium
}

type ContactStatus string

const (
	ContactStatusNew        ContactStatus = "new"
	ContactStatusInProgress ContactStatus = "in-progress"
	ContactStatusResolved   ContactStatus = "resolved"
	ContactStatusClosed     ContactStatus = "closed"
)

func (s ContactStatus) IsValid() bool {
	switch s {
	case ContactStatusNew, ContactStatusInProgress, ContactStatusResolved, ContactStatusClosed:
		return true
	}
	return false
}

type ContactPriority string

const (
	PriorityLow    ContactPriority = "low"
	PriorityMedium ContactPriority = "medium"
	PriorityHigh   ContactPriority = "high"
)

// Contact 支持工单
type Contact struct {
	ID              int64           `json:"id"`
	TicketID        string          `json:"ticketId"`
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	Subject         ContactSubject  `json:"subject"`
	Message         string          `json:"message"`
	Status          ContactStatus   `json:"status"`
	Priority        ContactPriority `json:"priority"`
	ResponseMessage string          `json:"responseMessage,omitempty"`
	RespondedAt     *time.Time      `json:"respondedAt,omitempty"`
	RespondedBy     *int64          `json:"respondedBy,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}
