package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DonationType 捐赠类型，创建后不可修改
type DonationType string

const (
	DonationTypeFood     DonationType = "food"
	DonationTypeMonetary DonationType = "monetary"
	DonationTypeSupplies DonationType = "supplies"
)

func (t DonationType) IsValid() bool {
	switch t {
	case DonationTypeFood, DonationTypeMonetary, DonationTypeSupplies:
		return true
	}
	return false
}

// DonationStatus 捐赠状态
type DonationStatus string

const (
	DonationStatusPending         DonationStatus = "pending"
	DonationStatusPickupScheduled DonationStatus = "pickup-scheduled"
	DonationStatusInTransit       DonationStatus = "in-transit"
	DonationStatusQualityCheck    DonationStatus = "quality-check"
	DonationStatusDelivered       DonationStatus = "delivered"
	DonationStatusCompleted       DonationStatus = "completed"
	DonationStatusCancelled       DonationStatus = "cancelled"
)

// AllDonationStatuses 按生命周期顺序排列
var AllDonationStatuses = []DonationStatus{
	DonationStatusPending,
	DonationStatusPickupScheduled,
	DonationStatusInTransit,
	DonationStatusQualityCheck,
	DonationStatusDelivered,
	DonationStatusCompleted,
	DonationStatusCancelled,
}

func (s DonationStatus) IsValid() bool {
	_, ok := s.title()
	return ok
}

// Title 时间线条目的标题，未知状态原样返回
func (s DonationStatus) Title() string {
	if title, ok := s.title(); ok {
		return title
	}
	return string(s)
}

func (s DonationStatus) title() (string, bool) {
	switch s {
	case DonationStatusPending:
		return "Donation Pending", true
	case DonationStatusPickupScheduled:
		return "Pickup Scheduled", true
	case DonationStatusInTransit:
		return "In Transit", true
	case DonationStatusQualityCheck:
		return "Quality Check", true
	case DonationStatusDelivered:
		return "Delivered", true
	case DonationStatusCompleted:
		return "Completed", true
	case DonationStatusCancelled:
		return "Cancelled", true
	}
	return "", false
}

// Cancellable 只有尚未取件的捐赠允许用户取消
func (s DonationStatus) Cancellable() bool {
	switch s {
	case DonationStatusPending, DonationStatusPickupScheduled:
		return true
	case DonationStatusInTransit, DonationStatusQualityCheck, DonationStatusDelivered,
		DonationStatusCompleted, DonationStatusCancelled:
		return false
	}
	return false
}

// stampsDelivery 进入这些状态时刷新 deliveredAt
func (s DonationStatus) stampsDelivery() bool {
	switch s {
	case DonationStatusDelivered, DonationStatusCompleted:
		return true
	}
	return false
}

// DonationPurpose 资金用途
type DonationPurpose string

const (
	PurposeGeneral   DonationPurpose = "general"
	PurposeMeals     DonationPurpose = "meals"
	PurposeFleet     DonationPurpose = "fleet"
	PurposeTraining  DonationPurpose = "training"
	PurposeAwareness DonationPurpose = "awareness"
)

func (p DonationPurpose) IsValid() bool {
	switch p {
	case PurposeGeneral, PurposeMeals, PurposeFleet, PurposeTraining, PurposeAwareness:
		return true
	}
	return false
}

// ItemCondition 物资成色
type ItemCondition string

const (
	ConditionNew     ItemCondition = "new"
	ConditionLikeNew ItemCondition = "like-new"
	ConditionGood    ItemCondition = "good"
	ConditionFair    ItemCondition = "fair"
)

func (c ItemCondition) IsValid() bool {
	switch c {
	case ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair:
		return true
	}
	return false
}

// RecipientType 受助机构类型
type RecipientType string

const (
	RecipientShelter          RecipientType = "shelter"
	RecipientOrphanage        RecipientType = "orphanage"
	RecipientSchool           RecipientType = "school"
	RecipientHospital         RecipientType = "hospital"
	RecipientCommunityKitchen RecipientType = "community-kitchen"
	RecipientOther            RecipientType = "other"
)

func (t RecipientType) IsValid() bool {
	switch t {
	case RecipientShelter, RecipientOrphanage, RecipientSchool, RecipientHospital,
		RecipientCommunityKitchen, RecipientOther:
		return true
	}
	return false
}

type SupplyItem struct {
	Name      string        `json:"name"`
	Quantity  string        `json:"quantity"`
	Condition ItemCondition `json:"condition,omitempty"`
}

type Location struct {
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Pincode string `json:"pincode,omitempty"`
}

type Recipient struct {
	Name     string        `json:"name,omitempty"`
	Type     RecipientType `json:"type,omitempty"`
	Location string        `json:"location,omitempty"`
}

// TimelineEntry 时间线中的一条审计记录
type TimelineEntry struct {
	Status      DonationStatus `json:"status"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// Timeline 只允许追加的审计日志
type Timeline struct {
	entries []TimelineEntry
}

// RestoreTimeline 从存储中恢复时间线
func RestoreTimeline(entries []TimelineEntry) Timeline {
	restored := make([]TimelineEntry, len(entries))
	copy(restored, entries)
	return Timeline{entries: restored}
}

func (t *Timeline) Append(entry TimelineEntry) {
	t.entries = append(t.entries, entry)
}

func (t Timeline) Len() int {
	return len(t.entries)
}

// Entries 返回副本，调用方无法修改已有记录
func (t Timeline) Entries() []TimelineEntry {
	entries := make([]TimelineEntry, len(t.entries))
	copy(entries, t.entries)
	return entries
}

func (t Timeline) Last() (TimelineEntry, bool) {
	if len(t.entries) == 0 {
		return TimelineEntry{}, false
	}
	return t.entries[len(t.entries)-1], true
}

func (t Timeline) MarshalJSON() ([]byte, error) {
	if t.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t.entries)
}

func (t *Timeline) UnmarshalJSON(data []byte) error {
	var entries []TimelineEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	t.entries = entries
	return nil
}

// ErrNotCancellable 当前状态不允许取消
var ErrNotCancellable = errors.New("cannot cancel donation at this stage")

const (
	DefaultCancelReason       = "Cancelled by user"
	initialTimelineTitle      = "Donation Received"
	initialTimelineDesc       = "Your generous donation has been registered in our system"
	paymentReceivedTitle      = "Payment Received"
	cancelledTimelineTitle    = "Donation Cancelled"
	defaultStatusUpdateFormat = "Status updated to %s"
)

// Donation 一次捐赠
type Donation struct {
	ID         int64        `json:"id"`
	DonationID string       `json:"donationId"`
	DonorID    int64        `json:"donor"`
	Type       DonationType `json:"type"`

	// 食物
	FoodItem   string `json:"foodItem,omitempty"`
	Quantity   string `json:"quantity,omitempty"`
	BestBefore string `json:"bestBefore,omitempty"`

	// 资金
	Amount        float64         `json:"amount,omitempty"`
	PaymentMethod PaymentMethod   `json:"paymentMethod,omitempty"`
	Purpose       DonationPurpose `json:"purpose,omitempty"`

	// 物资
	SupplyItems []SupplyItem `json:"supplyItems,omitempty"`

	Location  *Location  `json:"location,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	Recipient *Recipient `json:"recipient,omitempty"`

	Status       DonationStatus `json:"status"`
	Timeline     Timeline       `json:"timeline"`
	DeliveredAt  *time.Time     `json:"deliveredAt,omitempty"`
	CancelledAt  *time.Time     `json:"cancelledAt,omitempty"`
	CancelReason string         `json:"cancelReason,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// NewDonation 创建一条待处理的捐赠并写入第一条时间线
func NewDonation(donationID string, donorID int64, donationType DonationType, now time.Time) *Donation {
	d := &Donation{
		DonationID: donationID,
		DonorID:    donorID,
		Type:       donationType,
		Status:     DonationStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	d.Timeline.Append(TimelineEntry{
		Status:      DonationStatusPending,
		Title:       initialTimelineTitle,
		Description: initialTimelineDesc,
		Timestamp:   now,
	})
	return d
}

// NewPaymentDonation 支付成功后生成的已完成资金捐赠
func NewPaymentDonation(donationID string, donorID int64, amount float64, method PaymentMethod, purpose DonationPurpose, notes string, now time.Time) *Donation {
	d := &Donation{
		DonationID:    donationID,
		DonorID:       donorID,
		Type:          DonationTypeMonetary,
		Amount:        amount,
		PaymentMethod: method,
		Purpose:       purpose,
		Notes:         notes,
		Status:        DonationStatusCompleted,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	d.Timeline.Append(TimelineEntry{
		Status:      DonationStatusCompleted,
		Title:       paymentReceivedTitle,
		Description: fmt.Sprintf("₹%s received via %s", FormatAmount(amount), method),
		Timestamp:   now,
	})
	return d
}

// TransitionTo 管理员更新状态：不限制来源状态，每次调用都会追加时间线
func (d *Donation) TransitionTo(status DonationStatus, description string, recipient *Recipient, now time.Time) TimelineEntry {
	if description == "" {
		description = fmt.Sprintf(defaultStatusUpdateFormat, status)
	}
	entry := TimelineEntry{
		Status:      status,
		Title:       status.Title(),
		Description: description,
		Timestamp:   now,
	}

	d.Status = status
	d.Timeline.Append(entry)
	if recipient != nil {
		r := *recipient
		d.Recipient = &r
	}
	if status.stampsDelivery() {
		t := now
		d.DeliveredAt = &t
	}
	d.UpdatedAt = now
	return entry
}

// Cancel 取消捐赠，失败时不修改任何字段
func (d *Donation) Cancel(reason string, now time.Time) (TimelineEntry, error) {
	if !d.Status.Cancellable() {
		return TimelineEntry{}, ErrNotCancellable
	}
	if reason == "" {
		reason = DefaultCancelReason
	}
	entry := TimelineEntry{
		Status:      DonationStatusCancelled,
		Title:       cancelledTimelineTitle,
		Description: reason,
		Timestamp:   now,
	}

	t := now
	d.Status = DonationStatusCancelled
	d.CancelledAt = &t
	d.CancelReason = reason
	d.Timeline.Append(entry)
	d.UpdatedAt = now
	return entry, nil
}

// IsOwnedBy 判断捐赠是否属于指定用户
func (d *Donation) IsOwnedBy(userID int64) bool {
	return d.DonorID == userID
}
