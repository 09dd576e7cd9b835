package model

// Slot names one of the two display targets kept per tracked investment.
type Slot string

const (
	SlotEarnings  Slot = "earnings"
	SlotRemaining Slot = "remaining"
)

// Slots lists every slot a display must provide for an investment.
var Slots = []Slot{SlotEarnings, SlotRemaining}
