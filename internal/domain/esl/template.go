package esl

import (
	"encoding/json"
	"time"

	"github.com/erp/esl-addon/internal/domain/shared"
)

// EmptySlot is the placeholder value of an unassigned template slot
const EmptySlot = ""

// Template mirrors one vendor label template. The slot list pairs the
// template's item positions with product barcodes for multi-bind; its length
// always equals ItemCapacity.
type Template struct {
	shared.BaseEntity
	VendorID       string `gorm:"type:varchar(100);not null;uniqueIndex"`
	TemplateNumber string `gorm:"type:varchar(100)"`
	Name           string `gorm:"type:varchar(200)"`
	Size           string `gorm:"type:varchar(50)"`
	Resolution     string `gorm:"type:varchar(50)"`
	Hardware       string `gorm:"type:varchar(100)"`
	ItemCapacity   int    `gorm:"not null;default:0"`
	PreviewPath    string `gorm:"type:varchar(500)"`
	Enabled        bool   `gorm:"not null;default:true"`
	RawJSON        string `gorm:"type:text"`
	Slots          string `gorm:"type:jsonb;default:'[]'"`
}

// TableName returns the table name for GORM
func (Template) TableName() string {
	return "esl_templates"
}

// NewTemplate creates a mirror record from normalized vendor metadata,
// with every slot initialized to the empty placeholder.
func NewTemplate(info TemplateInfo) (*Template, error) {
	if info.ID == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Template identifier is required")
	}
	t := &Template{
		BaseEntity: shared.NewBaseEntity(),
		VendorID:   info.ID,
	}
	t.applyInfo(info)
	t.storeSlots(emptySlots(t.ItemCapacity))
	return t, nil
}

// ApplyInfo updates the mirrored metadata from a fresh vendor sync and
// resizes the slot list when the item capacity changed.
func (t *Template) ApplyInfo(info TemplateInfo) {
	previous := t.ItemCapacity
	t.applyInfo(info)
	if t.ItemCapacity != previous {
		t.resizeSlots(t.ItemCapacity)
	}
	t.UpdatedAt = time.Now()
}

func (t *Template) applyInfo(info TemplateInfo) {
	t.TemplateNumber = info.TemplateNumber
	t.Name = info.Name
	t.Size = info.Size
	t.Resolution = info.Resolution
	t.Hardware = info.Hardware
	t.ItemCapacity = info.ItemCapacity
	t.PreviewPath = info.PreviewPath
	t.Enabled = info.Enabled
	t.RawJSON = info.Raw
}

// SlotList returns the per-position barcode assignments. Corrupt stored
// data degrades to an all-empty list of the right size.
func (t *Template) SlotList() []string {
	var slots []string
	if err := json.Unmarshal([]byte(t.Slots), &slots); err != nil {
		return emptySlots(t.ItemCapacity)
	}
	if len(slots) != t.ItemCapacity {
		slots = resize(slots, t.ItemCapacity)
	}
	return slots
}

// AssignSlot places a barcode into the first empty slot. Duplicates are
// rejected and a full list is reported without modifying the contents.
// Returns the number of occupied slots after the assignment.
func (t *Template) AssignSlot(barcode string) (int, error) {
	slots := t.SlotList()
	occupied := 0
	free := -1
	for i, code := range slots {
		switch {
		case code == barcode:
			return 0, ErrSlotDuplicate
		case code != EmptySlot:
			occupied++
		case free < 0:
			free = i
		}
	}
	if free < 0 {
		return 0, ErrSlotsFull
	}
	slots[free] = barcode
	t.storeSlots(slots)
	t.UpdatedAt = time.Now()
	return occupied + 1, nil
}

// AssignedBarcodes returns the non-empty slot values in slot order
func (t *Template) AssignedBarcodes() []string {
	var codes []string
	for _, code := range t.SlotList() {
		if code != EmptySlot {
			codes = append(codes, code)
		}
	}
	return codes
}

// ResetSlots clears every slot back to the empty placeholder
func (t *Template) ResetSlots() {
	t.storeSlots(emptySlots(t.ItemCapacity))
	t.UpdatedAt = time.Now()
}

// PreviewURL joins the vendor asset base with the stored path fragment
func (t *Template) PreviewURL(assetBase string) string {
	if t.PreviewPath == "" {
		return ""
	}
	return assetBase + t.PreviewPath
}

func (t *Template) resizeSlots(capacity int) {
	t.storeSlots(resize(t.SlotList(), capacity))
}

func (t *Template) storeSlots(slots []string) {
	raw, err := json.Marshal(slots)
	if err != nil {
		raw = []byte("[]")
	}
	t.Slots = string(raw)
}

func emptySlots(capacity int) []string {
	if capacity < 0 {
		capacity = 0
	}
	slots := make([]string, capacity)
	for i := range slots {
		slots[i] = EmptySlot
	}
	return slots
}

func resize(slots []string, capacity int) []string {
	if capacity < 0 {
		capacity = 0
	}
	if len(slots) > capacity {
		return slots[:capacity]
	}
	for len(slots) < capacity {
		slots = append(slots, EmptySlot)
	}
	return slots
}
